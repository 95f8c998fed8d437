package router

import (
	"context"
	"fmt"
	"time"

	"github.com/flemzord/intentd/internal/descriptor"
	"github.com/flemzord/intentd/internal/protocol"
	"github.com/flemzord/intentd/internal/security"
)

// Method names of the process-call entry point.
const (
	MethodListDomains     = "list_domains"
	MethodListTools       = "list_tools"
	MethodDescribeTool    = "describe_tool"
	MethodGetIntentSchema = "get_intent_schema"
	MethodExecuteIntent   = "execute_intent"
	MethodAgentContext    = "agent_context"
)

// Dispatch is the single entry point consumed by every transport adapter.
// It routes a decoded request to its handler and always returns a complete
// response envelope; panics and unrecognized failures are wrapped into a
// generic internal error rather than escaping to the transport loop.
func (r *Router) Dispatch(ctx context.Context, req protocol.Request) (resp protocol.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic in dispatch", "method", req.Method, "panic", rec)
			resp = protocol.Fail(req.ID, protocol.Internal(fmt.Sprintf("internal error: %v", rec)))
		}
	}()

	r.auditLog(security.AuditEvent{Type: security.EventRequest, Method: req.Method})

	result, perr := r.handle(ctx, req.Method, req.Params)
	if perr != nil {
		return protocol.Fail(req.ID, perr)
	}
	return protocol.OK(req.ID, result)
}

func (r *Router) handle(ctx context.Context, method string, params map[string]any) (any, *protocol.Error) {
	switch method {
	case MethodListDomains:
		return r.listDomains(), nil
	case MethodListTools:
		return r.listTools(params), nil
	case MethodDescribeTool:
		return r.describeTool(params)
	case MethodGetIntentSchema:
		return r.getIntentSchema(params)
	case MethodExecuteIntent:
		return r.executeIntent(ctx, params)
	case MethodAgentContext:
		return map[string]any{"context": r.AgentContext()}, nil
	default:
		return nil, protocol.MethodNotFound(method)
	}
}

// ToolSummary is one entry of list_tools.
type ToolSummary struct {
	Domain  string `json:"domain"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
	Version string `json:"version,omitempty"`
}

// IntentSummary is one entry of describe_tool: pattern list plus behavior
// flags only, never full schemas.
type IntentSummary struct {
	Patterns    []string `json:"patterns"`
	Confirm     bool     `json:"confirm"`
	Destructive bool     `json:"destructive"`
	Idempotent  bool     `json:"idempotent"`
}

func (r *Router) listDomains() map[string]any {
	return map[string]any{"domains": r.catalog.Domains()}
}

func (r *Router) listTools(params map[string]any) map[string]any {
	domain, _ := params["domain"].(string)

	var tools []ToolSummary
	for _, t := range r.catalog.Tools() {
		if domain != "" && t.Domain != domain {
			continue
		}
		tools = append(tools, ToolSummary{
			Domain: t.Domain, Name: t.Name, Summary: t.Summary, Version: t.Version,
		})
	}
	return map[string]any{"tools": tools}
}

func (r *Router) describeTool(params map[string]any) (any, *protocol.Error) {
	name, ok := params["tool"].(string)
	if !ok || name == "" {
		return nil, protocol.InvalidParams("describe_tool requires a \"tool\" string parameter")
	}
	if _, found := r.catalog.Tool(name); !found {
		return nil, protocol.ToolNotFound(name)
	}
	rec, err := r.catalog.Capabilities(name)
	if err != nil {
		return nil, protocol.Internal(err.Error())
	}

	intents := make([]IntentSummary, len(rec.Intents))
	for i, in := range rec.Intents {
		intents[i] = IntentSummary{
			Patterns:    patternStrings(in.Patterns),
			Confirm:     in.Confirm,
			Destructive: in.Destructive,
			Idempotent:  in.Idempotent,
		}
	}
	return map[string]any{"tool": name, "intents": intents}, nil
}

// IntentSchema is the full on-demand disclosure of one intent.
type IntentSchema struct {
	Patterns    []string               `json:"patterns"`
	Command     string                 `json:"command"`
	Params      map[string]ParamSchema `json:"params,omitempty"`
	Output      map[string]any         `json:"output,omitempty"`
	Confirm     bool                   `json:"confirm"`
	Destructive bool                   `json:"destructive"`
	Idempotent  bool                   `json:"idempotent"`
}

// ParamSchema is the wire form of one parameter declaration.
type ParamSchema struct {
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Description string `json:"description,omitempty"`
}

func (r *Router) getIntentSchema(params map[string]any) (any, *protocol.Error) {
	name, ok := params["tool"].(string)
	if !ok || name == "" {
		return nil, protocol.InvalidParams("get_intent_schema requires a \"tool\" string parameter")
	}
	pattern, ok := params["pattern"].(string)
	if !ok || pattern == "" {
		return nil, protocol.InvalidParams("get_intent_schema requires a \"pattern\" string parameter")
	}
	if _, found := r.catalog.Tool(name); !found {
		return nil, protocol.ToolNotFound(name)
	}
	rec, err := r.catalog.Capabilities(name)
	if err != nil {
		return nil, protocol.Internal(err.Error())
	}

	for _, in := range rec.Intents {
		for _, p := range in.Patterns {
			if p.String() != pattern {
				continue
			}
			schema := IntentSchema{
				Patterns:    patternStrings(in.Patterns),
				Command:     in.Command,
				Output:      in.Output,
				Confirm:     in.Confirm,
				Destructive: in.Destructive,
				Idempotent:  in.Idempotent,
			}
			if len(in.Params) > 0 {
				schema.Params = make(map[string]ParamSchema, len(in.Params))
				for pname, def := range in.Params {
					schema.Params[pname] = ParamSchema{
						Type:        string(def.Type),
						Required:    def.Required,
						Default:     def.Default,
						Enum:        def.Enum,
						Description: def.Description,
					}
				}
			}
			return map[string]any{"tool": name, "intent": schema}, nil
		}
	}
	return nil, protocol.IntentNotMatched(
		fmt.Sprintf("tool %q has no intent with pattern %q", name, pattern),
	)
}

func (r *Router) executeIntent(ctx context.Context, params map[string]any) (any, *protocol.Error) {
	want, ok := params["want"].(string)
	if !ok || want == "" {
		return nil, protocol.InvalidParams("execute_intent requires a \"want\" string parameter")
	}

	p := ExecuteParams{Want: want}
	if cctx, ok := params["context"].(map[string]any); ok {
		p.Context = cctx
	}
	if confirm, ok := params["confirm"].(bool); ok {
		p.Confirm = confirm
	}
	if ms, ok := asMillis(params["timeout_ms"]); ok {
		p.Timeout = ms
	}

	return r.Execute(ctx, p)
}

func asMillis(v any) (time.Duration, bool) {
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return time.Duration(n) * time.Millisecond, true
		}
	case int:
		if n > 0 {
			return time.Duration(n) * time.Millisecond, true
		}
	case int64:
		if n > 0 {
			return time.Duration(n) * time.Millisecond, true
		}
	}
	return 0, false
}

func patternStrings(patterns []descriptor.Pattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = p.String()
	}
	return out
}

