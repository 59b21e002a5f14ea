package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/curatai/curatai/internal/agent"
	"github.com/curatai/curatai/internal/assistant"
	"github.com/curatai/curatai/internal/telemetry"
)

const (
	greeting    = "Hello. How can you help me?"
	inputPrompt = "\n\n> "
	exitCommand = "exit"
)

// newAssistant is replaced in tests to avoid the catalog and the model.
var newAssistant = assistant.New

func newChatCmd() *cobra.Command {
	var (
		provider string
		model    string
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation with the catalog assistant",
		Long: `Start an interactive conversation with the catalog assistant.
The assistant greets you first; type a question at the prompt and "exit" to quit.

Examples:
  curatai chat
  curatai chat --provider openai --model gpt-4.1
  curatai chat --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *GetConfig()
			if provider != "" {
				if provider != "anthropic" && provider != "openai" {
					return fmt.Errorf("unsupported provider %q: use anthropic or openai", provider)
				}
				if provider != cfg.Agent.Provider {
					cfg.Agent.Model = ""
				}
				cfg.Agent.Provider = provider
			}
			if model != "" {
				cfg.Agent.Model = model
			}

			shutdown, err := telemetry.Init(cmd.Context(), cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
			if err != nil {
				return err
			}
			defer func() {
				_ = shutdown(context.Background())
			}()

			out := cmd.OutOrStdout()
			var printer *toolPrinter
			var opts []assistant.Option
			if verbose {
				printer = newToolPrinter(out)
				opts = append(opts, assistant.WithObserver(printer))
			}
			a, err := newAssistant(cmd.Context(), &cfg, opts...)
			if err != nil {
				return fmt.Errorf("unable to start chat: %w", err)
			}
			if verbose {
				bannerLabel.Fprintf(out, "CuratAI on %s (%s)\n",
					cases.Title(language.English).String(a.Driver.Provider.Name()), cfg.Catalog.BaseURL)
			}
			return runChat(cmd.Context(), a.Driver, printer, cmd.InOrStdin(), out)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Model provider (anthropic or openai)")
	cmd.Flags().StringVar(&model, "model", "", "Model name, e.g. gpt-4.1 or claude-3-5-sonnet-latest")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print tool calls and their results")
	return cmd
}

// runChat sends the greeting, then reads one line per turn until "exit" or
// end of input. The history of each turn is carried into the next.
func runChat(ctx context.Context, d *agent.Driver, printer *toolPrinter, in io.Reader, out io.Writer) error {
	var history []agent.Message
	turn := func(input string) error {
		if printer != nil {
			printer.beginTurn()
		}
		res, err := d.Run(ctx, history, input)
		if err != nil {
			return err
		}
		history = res.History
		fmt.Fprintf(out, "\n%s", res.Reply)
		return nil
	}

	if err := turn(greeting); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, inputPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == exitCommand {
			return nil
		}
		if input == "" {
			continue
		}
		if err := turn(input); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// the failed turn is dropped; the conversation continues
			errorLabel.Fprintf(out, "\nError: %v", err)
		}
	}
}
