package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfloor/openfloor/internal/printer"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Post a new question",
	Long: `Post a new question to the floor.

The question starts in the pending state and becomes visible to every
connected client through the push stream.

Examples:
  openfloor ask "how do I rotate the API keys?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return printer.Error(
			"empty question",
			"A question needs some text.",
			[]string{`Try: openfloor ask "how do I rotate the API keys?"`},
		)
	}

	client, err := newRESTClient()
	if err != nil {
		return err
	}

	question, err := client.CreateQuestion(context.Background(), message)
	if err != nil {
		return printer.Error(
			"failed to post question",
			err.Error(),
			[]string{"Check the service is reachable:\n  openfloor questions"},
		)
	}

	printer.Success("question posted (%s)\n", question.ID)
	return nil
}
