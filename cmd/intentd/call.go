package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func callCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <want>",
		Short: "Resolve a plain-text request against a running daemon and execute it",
		Long: `Sends an execute_intent request to a running intentd daemon. When the
resolved intent requires confirmation, the exact command is shown and an
interactive prompt asks for approval before re-sending with confirm=true.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			rawParams, _ := cmd.Flags().GetStringArray("param")
			yes, _ := cmd.Flags().GetBool("yes")
			timeoutMS, _ := cmd.Flags().GetInt("timeout-ms")

			callCtx, err := parseParams(rawParams)
			if err != nil {
				return err
			}

			params := map[string]any{"want": args[0]}
			if len(callCtx) > 0 {
				params["context"] = callCtx
			}
			if yes {
				params["confirm"] = true
			}
			if timeoutMS > 0 {
				params["timeout_ms"] = timeoutMS
			}

			client := newRPCClient(server)
			resp, err := client.do("execute_intent", params)
			if err != nil {
				return err
			}
			if resp.Error != nil {
				return fmt.Errorf("%s (code %d)", resp.Error.Message, resp.Error.Code)
			}

			result := resultMap(resp.Result)
			if needsConfirmation(result) {
				approved, err := promptConfirmation(result)
				if err != nil {
					return err
				}
				if !approved {
					fmt.Println("Aborted.")
					return nil
				}

				params["confirm"] = true
				resp, err = client.do("execute_intent", params)
				if err != nil {
					return err
				}
				if resp.Error != nil {
					return fmt.Errorf("%s (code %d)", resp.Error.Message, resp.Error.Code)
				}
			}

			return printJSON(resp.Result)
		},
	}
	cmd.Flags().StringP("server", "s", defaultServer, "Daemon base URL")
	cmd.Flags().StringArrayP("param", "p", nil, "Context parameter as key=value (repeatable)")
	cmd.Flags().BoolP("yes", "y", false, "Pre-approve confirmation-gated intents")
	cmd.Flags().Int("timeout-ms", 0, "Per-call execution timeout in milliseconds")
	return cmd
}

func needsConfirmation(result map[string]any) bool {
	required, _ := result["confirmation_required"].(bool)
	return required
}

// promptConfirmation shows the exact command the daemon intends to run and
// asks for approval.
func promptConfirmation(result map[string]any) (bool, error) {
	command, _ := result["command"].(string)
	tool, _ := result["tool"].(string)
	destructive, _ := result["destructive"].(bool)

	title := fmt.Sprintf("Tool %q wants to run:", tool)
	description := command
	if destructive {
		description += "\n\nThis operation is destructive and cannot be undone."
	}

	var approved bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Run it").
			Negative("Abort").
			Value(&approved),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return approved, nil
}

func parseParams(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(raw))
	for _, kv := range raw {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", kv)
		}
		out[key] = value
	}
	return out, nil
}
