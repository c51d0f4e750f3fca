package commands

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/openfloor/openfloor/internal/printer"
	"github.com/openfloor/openfloor/pkg/forum"
)

var (
	questionsWithAnswers bool
	questionsOutputJSON  bool
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the current questions",
	Long: `List every question on the floor, escalated first, newest first
within each group.

Examples:
  # List questions
  openfloor questions

  # Include answers under each question
  openfloor questions --answers

  # Machine-readable output
  openfloor questions --json`,
	RunE: runQuestions,
}

func init() {
	questionsCmd.Flags().BoolVarP(&questionsWithAnswers, "answers", "a", false, "Include answers under each question")
	questionsCmd.Flags().BoolVar(&questionsOutputJSON, "json", false, "Emit JSON instead of the formatted board")
	rootCmd.AddCommand(questionsCmd)
}

func runQuestions(cmd *cobra.Command, args []string) error {
	client, err := newRESTClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	questions, err := client.ListQuestions(ctx)
	if err != nil {
		return printer.Error(
			"failed to list questions",
			err.Error(),
			[]string{"Check the service is reachable:\n  openfloor questions --server <url>"},
		)
	}

	ordered := forum.OrderQuestions(questions)

	answers := make(map[string][]forum.Answer)
	if questionsWithAnswers {
		for _, q := range ordered {
			list, err := client.ListAnswers(ctx, q.ID)
			if err != nil {
				printer.Warning("could not fetch answers for %s: %v\n", q.ID, err)
				continue
			}
			sort.SliceStable(list, func(i, j int) bool {
				return list[i].CreatedAt.Before(list[j].CreatedAt)
			})
			answers[q.ID] = list
		}
	}

	if questionsOutputJSON {
		payload := make([]map[string]any, 0, len(ordered))
		for _, q := range ordered {
			entry := map[string]any{"question": q}
			if questionsWithAnswers {
				entry["answers"] = answers[q.ID]
			}
			payload = append(payload, entry)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	if len(ordered) == 0 {
		printer.Info("The floor is empty. Ask something:\n  openfloor ask \"your question\"\n")
		return nil
	}

	for _, q := range ordered {
		printer.Println(printer.FormatQuestion(q))
		for _, a := range answers[q.ID] {
			printer.Println(printer.FormatAnswer(a))
		}
	}
	return nil
}
