package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfloor/openfloor/internal/printer"
)

var answerCmd = &cobra.Command{
	Use:   "answer <question-id> <answer>",
	Short: "Post an answer to a question",
	Long: `Post an answer to an existing question.

Examples:
  openfloor answer 4f8a21c0-... "restart the ingest worker first"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAnswer,
}

func init() {
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	questionID := args[0]
	message := strings.TrimSpace(strings.Join(args[1:], " "))
	if message == "" {
		return printer.Error(
			"empty answer",
			"An answer needs some text.",
			[]string{`Try: openfloor answer <question-id> "restart the ingest worker first"`},
		)
	}

	client, err := newRESTClient()
	if err != nil {
		return err
	}

	answer, err := client.CreateAnswer(context.Background(), questionID, message)
	if err != nil {
		return printer.Error(
			"failed to post answer",
			err.Error(),
			[]string{
				"Check the question ID:\n  openfloor questions",
				"Check the service is reachable:\n  openfloor questions",
			},
		)
	}

	printer.Success("answer posted (%s)\n", answer.ID)
	return nil
}
