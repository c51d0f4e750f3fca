package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openfloor/openfloor/internal/printer"
	"github.com/openfloor/openfloor/internal/push"
	"github.com/openfloor/openfloor/internal/sync"
	"github.com/openfloor/openfloor/pkg/forum"
)

var watchOutputFormat string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the floor live",
	Long: `Follow questions and answers as they happen.

Pulls the current floor state, then streams pushed events over the
websocket connection. The full ordered board is reprinted whenever a
change lands, with escalated questions pinned to the top.

Output Formats:
  default - Human-readable board with colors
  json    - Line-delimited JSON events for programmatic processing

Examples:
  # Follow the default service
  openfloor watch

  # Follow a specific service
  openfloor watch --server http://forum.example.com:8000

  # Export events as JSON
  openfloor watch --output=json > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchOutputFormat != "default" && watchOutputFormat != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	session, err := newForumSession()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		cancel()
	}()

	runDone := make(chan error, 1)
	go func() {
		runDone <- session.Run(ctx)
	}()

	if watchOutputFormat == "default" {
		printer.Step("Connecting to %s...\n", session.Client().BaseURL())
		// Give the initial pull a moment so the first board is not empty.
		waitForBoard(ctx, session)
		printBoard(session)
	}

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			<-runDone
			return nil

		case err := <-runDone:
			return err

		case n := <-session.Notifications():
			if watchOutputFormat == "json" {
				if err := enc.Encode(notificationRecord(n)); err != nil {
					return fmt.Errorf("failed to encode event: %w", err)
				}
				continue
			}
			printNotification(n)
			printBoard(session)
		}
	}
}

// waitForBoard blocks briefly until the push connection is up, so the
// first board printed is not empty. An empty board is still possible
// and gets repaired by the first pushed event or repair refresh.
func waitForBoard(ctx context.Context, s *sync.Session) {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		default:
		}
		if s.ConnectionState() == push.StateConnected {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func printNotification(n push.Notification) {
	switch n.Type {
	case forum.EventNewQuestion:
		printer.Success("new question: %s\n", n.Question.Message)
	case forum.EventNewAnswer:
		printer.Success("new answer on %s\n", n.Answer.QuestionID)
	case forum.EventQuestionUpdated:
		printer.Warning("question %s is now %s\n", n.Question.ID, n.Question.Status)
	case forum.EventAnswerDeleted:
		printer.Warning("answer %s was removed\n", n.Answer.ID)
	}
}

func printBoard(s *sync.Session) {
	printer.Println()
	questions := s.Snapshot().OrderedQuestions()
	if len(questions) == 0 {
		printer.Info("The floor is empty. Ask something:\n  openfloor ask \"your question\"\n")
		return
	}
	for _, q := range questions {
		printer.Println(printer.FormatQuestion(q))
		for _, a := range s.Snapshot().Answers(q.ID) {
			printer.Println(printer.FormatAnswer(a))
		}
	}
}

// notificationRecord flattens a notification for JSON output.
func notificationRecord(n push.Notification) map[string]any {
	record := map[string]any{
		"type":      string(n.Type),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if n.Question != nil {
		record["question"] = n.Question
	}
	if n.Answer != nil {
		record["answer"] = n.Answer
	}
	return record
}
