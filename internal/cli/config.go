package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/temple-tools/dvarapala/internal/oracle"
	"github.com/temple-tools/dvarapala/internal/questions"
)

var (
	initQuestionsPath string
	initAIPath        string
	initForce         bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringVar(&initQuestionsPath, "questions", "questions.yaml", "Question bank file to write")
	configInitCmd.Flags().StringVar(&initAIPath, "ai-config", "ai.yaml", "Oracle settings file to write")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write starter question bank and oracle settings files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := writeYAML(initQuestionsPath, questions.DefaultBank(), initForce); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", initQuestionsPath)

		cfg := oracle.DefaultConfig()
		// Never write environment credentials into a file.
		cfg.PrimaryKey = ""
		cfg.BackupKey = ""
		if err := writeYAML(initAIPath, cfg, initForce); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", initAIPath)
		fmt.Println("edit the files, set AI_API_KEY, then run: dvarapala serve")
		return nil
	},
}

func writeYAML(path string, v any, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
