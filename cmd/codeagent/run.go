package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/martinemde/codeagent/agentflow"
	"github.com/martinemde/codeagent/internal/logging"
	"github.com/martinemde/codeagent/llm"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [request]",
	Short: "Run the agent against a request",
	Long:  `Runs the agent loop until it finishes the request or hits the iteration cap, then prints the agent's summary.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request := strings.Join(args, " ")
		dir, _ := cmd.Flags().GetString("dir")
		verbose, _ := cmd.Flags().GetBool("verbose")
		provider, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")
		maxIterations, _ := cmd.Flags().GetInt("max-iterations")
		plain, _ := cmd.Flags().GetBool("plain")

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelInfo
		}
		logger := logging.New(level)

		cfg := llm.DefaultConfig(provider)
		if model != "" {
			cfg.Model = model
		}
		base, err := llm.NewGollmGenerator(cfg)
		if err != nil {
			return err
		}
		gen := llm.Chain(base,
			llm.WithLogging(logger),
			llm.WithRetry(llm.DefaultRetryPolicy()),
		)

		sessionCfg := agentflow.DefaultConfig()
		sessionCfg.Logger = logger
		if maxIterations > 0 {
			sessionCfg.MaxIterations = maxIterations
		}

		session := agentflow.NewSession(request, agentflow.NewLocalWorkspace(dir), gen, &sessionCfg)
		defer session.Close()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range session.Events() {
				printEvent(ev, verbose)
			}
		}()

		summary, err := session.Run(cmd.Context())
		session.Close()
		<-done
		if err != nil {
			return err
		}

		fmt.Println(renderSummary(summary, plain))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("provider", "openai", "Generation provider (openai, anthropic, ...)")
	runCmd.Flags().String("model", "", "Model identifier (provider default if empty)")
	runCmd.Flags().Int("max-iterations", 0, "Cap on decision rounds (default 10)")
	runCmd.Flags().Bool("plain", false, "Print the summary without markdown rendering")

	// Make 'run' the default if no command is provided.
	rootCmd.RunE = runCmd.RunE
	rootCmd.Args = runCmd.Args
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}

// printEvent writes a progress line for the events worth showing.
func printEvent(ev agentflow.SessionEvent, verbose bool) {
	switch ev.Kind {
	case agentflow.EventActionStart:
		fmt.Fprintf(os.Stderr, "-> %v\n", ev.Data["tool"])
	case agentflow.EventDecisionFallback:
		fmt.Fprintf(os.Stderr, "!! could not parse a decision, finishing: %v\n", ev.Data["reason"])
	case agentflow.EventIterationCap:
		fmt.Fprintf(os.Stderr, "!! iteration cap reached (%v)\n", ev.Data["iterations"])
	case agentflow.EventRepetition:
		fmt.Fprintf(os.Stderr, "!! %v\n", ev.Data["message"])
	case agentflow.EventActionEnd:
		if verbose {
			fmt.Fprintf(os.Stderr, "<- %v (success=%v)\n", ev.Data["tool"], ev.Data["success"])
		}
	}
}

// renderSummary renders the final response as terminal markdown, falling
// back to the raw text when rendering is unavailable.
func renderSummary(summary string, plain bool) string {
	if plain {
		return summary
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return summary
	}
	out, err := r.Render(summary)
	if err != nil {
		return summary
	}
	return strings.TrimRight(out, "\n")
}
