package router

import (
	"fmt"
	"strings"
)

// AgentContext produces a short natural-language summary of the available
// domains and tools plus instructions for constructing an intent call.
// Automated agents embed this in their system context.
func (r *Router) AgentContext() string {
	var b strings.Builder

	b.WriteString("You can run operating-system tools by describing what you want in plain text.\n\n")

	domains := r.catalog.Domains()
	if len(domains) > 0 {
		fmt.Fprintf(&b, "Available domains: %s.\n\n", strings.Join(domains, ", "))
	}

	b.WriteString("Available tools:\n")
	for _, t := range r.catalog.Tools() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", t.Name, t.Domain, t.Summary)
	}

	b.WriteString("\nTo run a tool, call execute_intent with:\n")
	b.WriteString("- want: a plain-text description of the operation (required)\n")
	b.WriteString("- context: an object of parameter values\n")
	b.WriteString("- confirm: true to approve an operation that asked for confirmation\n")
	b.WriteString("\nUse describe_tool to see a tool's trigger patterns and flags, and " +
		"get_intent_schema to see the full parameter schema for one pattern. " +
		"If a call returns confirmation_required, inspect the command and re-send " +
		"the identical request with confirm=true to proceed.\n")

	return b.String()
}
