// Package router composes the matcher, validator, and executor into the
// end-to-end intent lifecycle and maps every outcome onto the protocol
// error taxonomy. It exposes the single entry point consumed identically
// by every transport adapter.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/intentd/internal/descriptor"
	"github.com/flemzord/intentd/internal/executor"
	"github.com/flemzord/intentd/internal/intent"
	"github.com/flemzord/intentd/internal/protocol"
	"github.com/flemzord/intentd/internal/security"
)

// Catalog is the descriptor surface the router needs.
type Catalog interface {
	Tools() []*descriptor.ToolIdentity
	Tool(name string) (*descriptor.ToolIdentity, bool)
	Domains() []string
	Capabilities(name string) (*descriptor.CapabilityRecord, error)
}

// Runner spawns finished command lines. *executor.Runner satisfies this;
// tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, command string, timeout time.Duration) (*executor.Result, error)
}

// Options configures a Router.
type Options struct {
	Catalog Catalog
	Runner  Runner

	// Audit, if non-nil, receives lifecycle events.
	Audit *security.AuditLogger

	// Limiter, if non-nil, caps the rate of actual executions. Requests
	// that stop at the confirmation gate do not consume execution budget.
	Limiter *security.RateLimiter

	Logger *slog.Logger
}

// Router orchestrates the intent lifecycle. It holds no per-call mutable
// state; concurrent calls are independent.
type Router struct {
	catalog Catalog
	matcher *intent.Matcher
	runner  Runner
	audit   *security.AuditLogger
	limiter *security.RateLimiter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New creates a router.
func New(opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		catalog: opts.Catalog,
		matcher: intent.NewMatcher(opts.Catalog, logger),
		runner:  opts.Runner,
		audit:   opts.Audit,
		limiter: opts.Limiter,
		logger:  logger,
		tracer:  otel.Tracer("intentd/router"),
	}
}

// ExecutionResult is the success payload of execute_intent.
type ExecutionResult struct {
	Tool    string `json:"tool"`
	Command string `json:"command"`
	Output  any    `json:"output"`
}

// ConfirmationResult is the non-error negative-success payload returned
// when a confirm-gated intent is called without explicit confirmation.
type ConfirmationResult struct {
	ConfirmationRequired bool   `json:"confirmation_required"`
	Tool                 string `json:"tool"`
	Command              string `json:"command"`
	Destructive          bool   `json:"destructive"`
	Prompt               string `json:"prompt"`
}

// ExecuteParams are the decoded parameters of execute_intent.
type ExecuteParams struct {
	Want    string
	Context map[string]any
	Confirm bool
	Timeout time.Duration
}

// Execute runs the full intent lifecycle: match, re-resolve, validate,
// build, confirm-gate, execute. The returned protocol error is always one
// of the typed kinds; callers never see a raw internal failure.
func (r *Router) Execute(ctx context.Context, p ExecuteParams) (any, *protocol.Error) {
	ctx, span := r.tracer.Start(ctx, "intent.execute",
		trace.WithAttributes(attribute.String("intent.want", p.Want)))
	defer span.End()

	cand, merr := r.matchWant(p.Want)
	if merr != nil {
		return nil, merr
	}
	tool := cand.Tool.Name
	span.SetAttributes(attribute.String("intent.tool", tool))

	// Re-resolve the specific intent from the capability record,
	// re-confirming the matcher's implicit choice.
	rec, capErr := r.catalog.Capabilities(tool)
	if capErr != nil {
		r.logger.Warn("capability load failed after match", "tool", tool, "error", capErr)
		return nil, notMatched(p.Want, r.catalog.Domains())
	}
	in := intent.FindIntent(rec.Intents, p.Want)
	if in == nil {
		return nil, notMatched(p.Want, r.catalog.Domains())
	}

	command, buildErr := executor.BuildCommand(in, p.Context)
	if buildErr != nil {
		verr := validationError(buildErr)
		r.auditLog(security.AuditEvent{
			Type: security.EventValidation, Tool: tool, Detail: verr.Message,
		})
		return nil, verr
	}

	if in.Confirm && !p.Confirm {
		r.auditLog(security.AuditEvent{
			Type: security.EventConfirmation, Tool: tool, Command: command,
		})
		return ConfirmationResult{
			ConfirmationRequired: true,
			Tool:                 tool,
			Command:              command,
			Destructive:          in.Destructive,
			Prompt:               confirmationPrompt(tool, command, in.Destructive),
		}, nil
	}

	if r.limiter != nil {
		if err := r.limiter.Allow(security.LimitExecution); err != nil {
			r.auditLog(security.AuditEvent{
				Type: security.EventRateLimit, Tool: tool, Command: command,
			})
			return nil, protocol.InvalidRequest("execution rate limit exceeded, retry later")
		}
	}

	// A caller disconnect must not kill a command that is already past the
	// confirmation gate; the runner applies the per-call deadline itself.
	res, runErr := r.runner.Run(context.WithoutCancel(ctx), command, p.Timeout)
	if runErr != nil {
		eerr := executionError(runErr)
		r.auditLog(security.AuditEvent{
			Type: security.EventExecution, Tool: tool, Command: command,
			Detail: eerr.Message, Metadata: map[string]string{"status": "failed"},
		})
		return nil, eerr
	}

	r.auditLog(security.AuditEvent{
		Type: security.EventExecution, Tool: tool, Command: command,
		Metadata: map[string]string{"status": "ok"},
	})
	return ExecutionResult{Tool: tool, Command: command, Output: res.Output}, nil
}

// matchWant runs the matcher and maps its outcomes to protocol errors.
func (r *Router) matchWant(want string) (*intent.Candidate, *protocol.Error) {
	cand, err := r.matcher.Match(want)
	if err != nil {
		return nil, matchError(err, want, r.catalog.Domains())
	}
	r.auditLog(security.AuditEvent{
		Type: security.EventMatch, Tool: cand.Tool.Name,
		Metadata: map[string]string{"score": fmt.Sprintf("%g", cand.Score)},
	})
	return cand, nil
}

func (r *Router) auditLog(event security.AuditEvent) {
	if r.audit != nil {
		r.audit.Log(event)
	}
}

func confirmationPrompt(tool, command string, destructive bool) string {
	warning := ""
	if destructive {
		warning = " This operation cannot be undone."
	}
	return fmt.Sprintf(
		"Tool %q wants to run: %s.%s Re-send the request with confirm=true to proceed.",
		tool, command, warning,
	)
}
