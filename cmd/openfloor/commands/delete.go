package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openfloor/openfloor/internal/printer"
)

var deleteAnswerCmd = &cobra.Command{
	Use:   "delete-answer <answer-id>",
	Short: "Remove an answer (admin)",
	Long: `Remove an answer from the floor. Requires a token
(see 'openfloor login').

Examples:
  openfloor delete-answer 9c1d43aa-...`,
	Args: cobra.ExactArgs(1),
	RunE: runDeleteAnswer,
}

func init() {
	rootCmd.AddCommand(deleteAnswerCmd)
}

func runDeleteAnswer(cmd *cobra.Command, args []string) error {
	client, err := newRESTClient()
	if err != nil {
		return err
	}

	if err := client.DeleteAnswer(context.Background(), args[0]); err != nil {
		return printer.Error(
			"failed to delete answer",
			err.Error(),
			[]string{
				"Log in first:\n  openfloor login --username <name> --save",
				"Check the answer ID:\n  openfloor questions --answers",
			},
		)
	}

	printer.Success("answer %s deleted\n", args[0])
	return nil
}
