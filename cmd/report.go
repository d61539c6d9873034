package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report <test-id>",
	Short: "Show a stored test with its answers, blockers and roadmap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := resolveOwner(cmd)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := s.StudentRepo().GetTest(cmd.Context(), owner, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("test %s not found for owner %s", args[0], owner)
		}
		if err != nil {
			return fmt.Errorf("get test: %w", err)
		}
		writeReport(os.Stdout, t)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("owner", "", "Owner id (default: OS user name)")
}

func writeReport(w io.Writer, t *store.TestDetail) {
	sep := strings.Repeat("─", 60)

	fmt.Fprintf(w, "Test:      %s\n", t.ID)
	fmt.Fprintf(w, "Student:   %s (%s)\n", t.StudentName, t.StudentID)
	fmt.Fprintf(w, "Age:       %d\n", t.Age)
	fmt.Fprintf(w, "Stage:     %s\n", t.Stage)
	fmt.Fprintf(w, "Started:   %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "Completed: %s\n", t.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if t.Severity != "" {
		fmt.Fprintf(w, "Severity:  %s\n", t.Severity)
	}
	if len(t.Responses) > 0 {
		fmt.Fprintf(w, "Errors:    %.0f%%\n", diagnostic.ErrorRate(t.Responses)*100)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, "ANSWERS")
	fmt.Fprintln(w, sep)
	for _, r := range t.Responses {
		mark := "✓"
		if !r.IsCorrect {
			mark = "✗"
		}
		fmt.Fprintf(w, "%2d. %s [%s, difficulty %d]\n", r.QuestionIndex+1, r.QuestionText, r.Construct, r.Difficulty)
		fmt.Fprintf(w, "    %s %q (expected %q)\n", mark, r.StudentAnswer, r.ReferenceAnswer)
	}

	if len(t.Blockers) > 0 {
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, "BLOCKERS")
		fmt.Fprintln(w, sep)
		for _, b := range t.Blockers {
			status := "suspected"
			if b.Confirmed {
				status = "confirmed"
			}
			fmt.Fprintf(w, "%-28s  %d errors  %s\n", b.Construct, b.ErrorCount, status)
		}
	}

	if rm := t.Roadmap; rm != nil {
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, "ROADMAP")
		fmt.Fprintln(w, sep)
		if rm.Summary != "" {
			fmt.Fprintln(w, rm.Summary)
			fmt.Fprintln(w)
		}
		for _, st := range rm.Steps {
			fmt.Fprintf(w, "%d. %s\n", st.StepNumber, st.Title)
			fmt.Fprintf(w, "   %s\n", st.ExecutionPlan)
			if len(st.Resources) > 0 {
				fmt.Fprintf(w, "   Resources: %s\n", strings.Join(st.Resources, ", "))
			}
		}
	}
}
