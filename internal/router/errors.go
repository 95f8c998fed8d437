package router

import (
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/intentd/internal/executor"
	"github.com/flemzord/intentd/internal/intent"
	"github.com/flemzord/intentd/internal/protocol"
)

// TiedCandidate is the structured payload entry for an ambiguous match.
type TiedCandidate struct {
	Tool   string  `json:"tool"`
	Domain string  `json:"domain"`
	Score  float64 `json:"score"`
}

// matchError maps matcher failures onto protocol errors.
func matchError(err error, want string, domains []string) *protocol.Error {
	var amb *intent.AmbiguousError
	if errors.As(err, &amb) {
		tied := make([]TiedCandidate, len(amb.Candidates))
		for i, c := range amb.Candidates {
			tied[i] = TiedCandidate{Tool: c.Tool.Name, Domain: c.Tool.Domain, Score: c.Score}
		}
		return protocol.AmbiguousIntent(amb.Error()).WithData(map[string]any{
			"candidates": tied,
		})
	}
	return notMatched(want, domains)
}

// notMatched builds the no-match error, carrying the available domains so
// an automated caller can re-prompt.
func notMatched(want string, domains []string) *protocol.Error {
	return protocol.IntentNotMatched(
		fmt.Sprintf("no tool matched %q", want),
	).WithData(map[string]any{"domains": domains})
}

// validationError maps BuildCommand failures onto protocol errors, carrying
// the full error list so a caller can fix every problem at once.
func validationError(err error) *protocol.Error {
	var inv *executor.InvalidParamsError
	if errors.As(err, &inv) {
		return protocol.ValidationFailed(inv.Error()).WithData(map[string]any{
			"errors": inv.Errors,
		})
	}
	var unres *executor.UnresolvedPlaceholderError
	if errors.As(err, &unres) {
		return protocol.ValidationFailed(unres.Error()).WithData(map[string]any{
			"placeholders": unres.Names,
		})
	}
	return protocol.Internal(err.Error())
}

// executionError maps runner failures onto protocol errors.
func executionError(err error) *protocol.Error {
	var exec *executor.ExecError
	if !errors.As(err, &exec) {
		return protocol.Internal(err.Error())
	}

	data := map[string]any{"kind": string(exec.Kind)}
	switch exec.Kind {
	case executor.FailTimeout:
		data["timeout_ms"] = int64(exec.Timeout / time.Millisecond)
		data["output"] = exec.Output
	case executor.FailExit:
		data["exit_code"] = exec.ExitCode
		data["stderr"] = exec.Output
	default:
		if exec.Err != nil {
			data["cause"] = exec.Err.Error()
		}
	}
	return protocol.ExecutionFailed(exec.Error()).WithData(data)
}
