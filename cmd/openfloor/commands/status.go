package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfloor/openfloor/internal/printer"
	"github.com/openfloor/openfloor/pkg/forum"
)

var statusCmd = &cobra.Command{
	Use:   "status <question-id> <pending|answered|escalated>",
	Short: "Change a question's triage status (admin)",
	Long: `Change the triage status of a question. Requires a token
(see 'openfloor login').

Escalated questions sort above everything else in every client's view,
so escalation is how a moderator raises a question for the room.

Examples:
  openfloor status 4f8a21c0-... escalated
  openfloor status 4f8a21c0-... answered`,
	Args: cobra.ExactArgs(2),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	questionID := args[0]

	var status forum.Status
	switch strings.ToLower(args[1]) {
	case "pending":
		status = forum.StatusPending
	case "answered":
		status = forum.StatusAnswered
	case "escalated":
		status = forum.StatusEscalated
	default:
		return printer.Error(
			"invalid status",
			fmt.Sprintf("Unknown status: %s", args[1]),
			[]string{"Valid statuses: pending, answered, escalated"},
		)
	}

	client, err := newRESTClient()
	if err != nil {
		return err
	}

	if err := client.ChangeStatus(context.Background(), questionID, status); err != nil {
		return printer.Error(
			"failed to change status",
			err.Error(),
			[]string{
				"Log in first:\n  openfloor login --username <name> --save",
				"Check the question ID:\n  openfloor questions",
			},
		)
	}

	printer.Success("question %s is now %s\n", questionID, status)
	return nil
}
