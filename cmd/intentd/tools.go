package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List tools registered with a running daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, _ := cmd.Flags().GetString("server")
			domain, _ := cmd.Flags().GetString("domain")
			describe, _ := cmd.Flags().GetString("describe")

			client := newRPCClient(server)

			if describe != "" {
				resp, err := client.do("describe_tool", map[string]any{"tool": describe})
				if err != nil {
					return err
				}
				if resp.Error != nil {
					return fmt.Errorf("%s (code %d)", resp.Error.Message, resp.Error.Code)
				}
				return printJSON(resp.Result)
			}

			params := map[string]any{}
			if domain != "" {
				params["domain"] = domain
			}
			resp, err := client.do("list_tools", params)
			if err != nil {
				return err
			}
			if resp.Error != nil {
				return fmt.Errorf("%s (code %d)", resp.Error.Message, resp.Error.Code)
			}

			result := resultMap(resp.Result)
			tools, _ := result["tools"].([]any)
			if len(tools) == 0 {
				fmt.Println("No tools registered.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DOMAIN\tNAME\tSUMMARY")
			for _, raw := range tools {
				t, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				fmt.Fprintf(w, "%v\t%v\t%v\n", t["domain"], t["name"], t["summary"])
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringP("server", "s", defaultServer, "Daemon base URL")
	cmd.Flags().StringP("domain", "d", "", "Filter by domain")
	cmd.Flags().String("describe", "", "Describe one tool instead of listing")
	return cmd
}
