package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/store"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "List students and, optionally, their tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := resolveOwner(cmd)
		if err != nil {
			return err
		}
		withTests, _ := cmd.Flags().GetBool("tests")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		students, err := s.StudentRepo().ListStudents(cmd.Context(), owner, store.ListOpts{IncludeTests: withTests})
		if err != nil {
			return fmt.Errorf("list students: %w", err)
		}
		if len(students) == 0 {
			fmt.Println("No students found.")
			return nil
		}

		fmt.Printf("%-36s  %-24s  %s\n", "ID", "Name", "Added")
		fmt.Println(strings.Repeat("─", 80))
		for _, st := range students {
			fmt.Printf("%-36s  %-24s  %s\n", st.ID, truncate(st.Name, 24), st.CreatedAt.Local().Format("2006-01-02 15:04"))
			for _, t := range st.Tests {
				severity := string(t.Severity)
				if severity == "" {
					severity = "-"
				}
				fmt.Printf("    test %s  age %-2d  %-17s  %-8s  %s\n",
					t.ID, t.Age, t.Stage, severity, t.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
		}
		return nil
	},
}

func init() {
	studentsCmd.Flags().Bool("tests", false, "Include each student's tests")
	studentsCmd.Flags().String("owner", "", "Owner id (default: OS user name)")
}
