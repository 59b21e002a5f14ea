package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/curatai/curatai/internal/assistant"
	"github.com/curatai/curatai/internal/catalog/tools"
	"github.com/curatai/curatai/internal/config"
	"github.com/curatai/curatai/internal/toolregistry"
)

// offlineRegistry lists the tools without a catalog session.
func offlineRegistry() (*toolregistry.Registry, error) {
	reg := toolregistry.New()
	if err := tools.Register(reg, tools.NewDeps(nil)); err != nil {
		return nil, err
	}
	return reg, nil
}

// connectTools is replaced in tests to avoid the catalog.
var connectTools = func(cmd *cobra.Command, cfg *config.Config) (*toolregistry.Registry, error) {
	session, err := assistant.Connect(cmd.Context(), cfg, nil)
	if err != nil {
		return nil, err
	}
	_, reg, err := assistant.Tools(cfg, session, nil)
	return reg, err
}

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List, describe and call the catalog tools",
	}
	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsDescribeCmd())
	cmd.AddCommand(newToolsCallCmd())
	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "List the tools available to the assistant",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := offlineRegistry()
			if err != nil {
				return err
			}
			specs := reg.Specs()
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), specs)
				return nil
			}
			width := 0
			for _, s := range specs {
				width = max(width, len(s.Name))
			}
			for _, s := range specs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %s\n", width, s.Name, firstLine(s.Description))
			}
			return nil
		},
	}
}

func newToolsDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "describe <name>",
		Short:       "Show the description and input schema of a tool",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := offlineRegistry()
			if err != nil {
				return err
			}
			_, spec, ok := reg.Lookup(args[0])
			if !ok {
				return toolregistry.ErrUnknownTool.Msg("unknown tool " + args[0])
			}
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), spec)
				return nil
			}
			out, err := yaml.Marshal(spec)
			if err != nil {
				return fmt.Errorf("failed to format tool: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newToolsCallCmd() *cobra.Command {
	var rawArgs string
	cmd := &cobra.Command{
		Use:   "call <name>",
		Short: "Call a tool directly against the catalog",
		Long: `Call a tool directly against the catalog, bypassing the model.
Arguments are passed as a JSON object.

Examples:
  curatai tools call get_table_info --args '{"table_name": "HOTEL_GUESTS"}'
  curatai tools call search_data_products --args '{"search_term": "hotel", "limit": 5}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := connectTools(cmd, GetConfig())
			if err != nil {
				return err
			}
			rsp, err := reg.Invoke(cmd.Context(), args[0], []byte(rawArgs))
			if err != nil {
				return err
			}
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]any{
					"result":    rsp.Content,
					"truncated": rsp.Truncated,
				})
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), rsp.Content)
			return nil
		},
	}
	cmd.Flags().StringVarP(&rawArgs, "args", "a", "{}", "Tool arguments as a JSON object")
	return cmd
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
