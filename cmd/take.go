package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/app"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/logging"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/questiongen"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/roadmap"
)

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Run a check-up in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTake(cmd)
	},
}

func init() {
	addTakeFlags(takeCmd)
}

func addTakeFlags(cmd *cobra.Command) {
	cmd.Flags().String("owner", "", "Owner id results are stored under (default: OS user name)")
	cmd.Flags().String("log-file", "", "Write logs to this file (the terminal is used by the UI)")
	cmd.Flags().Bool("no-intro", false, "Skip the intro animation")
}

// runTake opens the store, builds the generators and launches the TUI.
func runTake(cmd *cobra.Command) error {
	ctx := cmd.Context()

	owner, err := resolveOwner(cmd)
	if err != nil {
		return err
	}

	logger := logging.Discard()
	if path, _ := cmd.Flags().GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		if logger, err = newLogger(cmd, f); err != nil {
			return err
		}
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Set NEUROMATH_LLM_PROVIDER and an API key, or one of ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY, OPENROUTER_API_KEY.")
		return err
	}

	sess := diagnostic.New(owner, diagnostic.Deps{
		Questions: questiongen.New(provider, questiongen.DefaultConfig()),
		Roadmaps:  roadmap.New(provider, roadmap.DefaultConfig()),
		Recorder:  st.Recorder(),
		Logger:    logger,
	})
	logger.Info("check-up started", "session_id", sess.ID(), "owner_id", owner)

	noIntro, _ := cmd.Flags().GetBool("no-intro")
	if err := app.Run(app.Options{Context: ctx, Session: sess, SkipIntro: noIntro}); err != nil {
		return err
	}

	if sess.Completed() {
		fmt.Printf("Results saved as test %s.\n", sess.ID())
		fmt.Printf("View them again with: neuromath report %s --owner %s\n", sess.ID(), owner)
	} else if sess.Stage() != diagnostic.StageCollectingAge {
		logger.Info("check-up left unfinished", slog.String("session_id", sess.ID()), slog.String("stage", sess.Stage().String()))
	}
	return nil
}

// resolveOwner returns --owner, falling back to the OS user name.
func resolveOwner(cmd *cobra.Command) (string, error) {
	if o, _ := cmd.Flags().GetString("owner"); o != "" {
		return o, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("resolve owner: %w (pass --owner)", err)
	}
	return u.Username, nil
}
