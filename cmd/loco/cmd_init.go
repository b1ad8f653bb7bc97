package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loclocko/locomotive/internal/scaffold"
)

var (
	initOutput         string
	initOpenAPI        string
	initHost           string
	initRules          string
	initGitHubWorkflow bool
	initForce          bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new loconfig configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(initOutput); err == nil && !initForce {
			return fmt.Errorf("%s already exists, use --force to overwrite", initOutput)
		}

		host := initHost
		if host == "" {
			host = "http://localhost:8000"
		}
		if err := scaffold.WriteConfigTemplate(initOutput, host, initOpenAPI); err != nil {
			return err
		}
		fmt.Printf("Created: %s\n", initOutput)

		if initRules != "" {
			if _, err := os.Stat(initRules); err == nil && !initForce {
				return fmt.Errorf("%s already exists, use --force to overwrite", initRules)
			}
			if err := scaffold.WriteRulesTemplate(initRules); err != nil {
				return err
			}
			fmt.Printf("Created: %s\n", initRules)
		}

		if initGitHubWorkflow {
			workflowPath := ".github/workflows/loadtest.yml"
			if _, err := os.Stat(workflowPath); err == nil && !initForce {
				fmt.Printf("Skipped: %s already exists\n", workflowPath)
			} else {
				if err := scaffold.WriteGitHubWorkflow(workflowPath, initOutput); err != nil {
					return err
				}
				fmt.Printf("Created: %s\n", workflowPath)
			}
		}

		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Printf("  1. Edit %s to configure your endpoints\n", initOutput)
		fmt.Printf("  2. Run: loco --config %s ci\n", initOutput)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "loconfig.json", "output config file path")
	initCmd.Flags().StringVar(&initOpenAPI, "openapi", "", "OpenAPI spec to pre-populate request templates")
	initCmd.Flags().StringVar(&initHost, "host", "", "default host URL")
	initCmd.Flags().StringVar(&initRules, "rules", "", "also generate a starter rules file at this path")
	initCmd.Flags().BoolVar(&initGitHubWorkflow, "github-workflow", false, "also generate a GitHub Actions workflow")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing files")
}
