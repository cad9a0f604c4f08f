package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temple-tools/dvarapala/internal/questions"
)

var questionsFile string

func init() {
	rootCmd.AddCommand(questionsCmd)
	questionsCmd.PersistentFlags().StringVar(&questionsFile, "file", "", "Question bank YAML path (built-in bank when empty)")
	questionsCmd.AddCommand(questionsStatsCmd)
	questionsCmd.AddCommand(questionsValidateCmd)
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Inspect the question bank",
}

var questionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-category question counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := questions.Load(questionsFile)
		if err != nil {
			return err
		}
		s := bank.Stats()
		fmt.Printf("entry:               %d\n", s.Entry)
		fmt.Printf("reflective:          %d\n", s.Reflective)
		fmt.Printf("psych trusted:       %d\n", s.Trusted)
		fmt.Printf("psych medium:        %d\n", s.Medium)
		fmt.Printf("psych high:          %d\n", s.High)
		fmt.Printf("total:               %d\n", s.Total)
		fmt.Printf("doctrine question:   %t\n", s.DoctrineFound)
		return nil
	},
}

var questionsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the question bank file",
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := questions.Load(questionsFile)
		if err != nil {
			return err
		}
		if _, ok := bank.Doctrine(); !ok {
			fmt.Printf("WARNING: no question with reserved id %s; the built-in doctrine text will be used\n",
				questions.DoctrineID)
		}
		fmt.Printf("OK: %d questions\n", bank.Size())
		return nil
	},
}
