package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/curatai/curatai/internal/common/logtrace"
)

var (
	// Global flags
	jsonOutput bool
	configFile string
)

// Commands annotated with annotationNoConfig run without a loaded
// configuration file.
const annotationNoConfig = "curatai/no-config"

// NewRootCmd creates a new root command for the CLI
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curatai",
		Short: "CuratAI is a conversational assistant for the data catalog",
		Long: `CuratAI is a conversational assistant for the data catalog.
It answers questions about data products, tables, columns, people and folders,
and updates titles, descriptions and custom fields after asking for consent.`,
		PersistentPreRunE: preRunHandlePersistents,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
	cmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to configuration file to override default")
	cmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")

	addCommands(cmd)
	return cmd
}

func addCommands(cmd *cobra.Command) {
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), map[string]string{
				"error": err.Error(),
			})
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func preRunHandlePersistents(cmd *cobra.Command, args []string) error {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoConfig] == "true" {
			return nil
		}
	}
	if err := LoadConfig(configFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file %s not found. Create one with \"curatai config init\" first", configFile)
		}
		return fmt.Errorf("unable to load config file: %w", err)
	}
	logtrace.InitLogger(GetConfig().Telemetry.LogLevel, true)
	return nil
}

const Version = "v0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version number of curatai",
		Annotations: map[string]string{annotationNoConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{
					"version": Version,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "curatai %s\n", Version)
			}
		},
	}
}

// printJSON prints data as indented JSON
func printJSON(w io.Writer, data any) {
	jsonData, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(jsonData))
}
