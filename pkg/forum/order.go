package forum

import "sort"

// OrderQuestions returns questions in deterministic display order:
// Escalated questions first, then everything else, each partition sorted
// by creation time descending with ties broken by ID ascending.
//
// The input is not modified. Callers must re-derive the order on every
// read - status and membership change between reads, so a cached order
// goes stale silently.
func OrderQuestions(questions []Question) []Question {
	escalated := make([]Question, 0, len(questions))
	rest := make([]Question, 0, len(questions))

	for _, q := range questions {
		if q.Status == StatusEscalated {
			escalated = append(escalated, q)
		} else {
			rest = append(rest, q)
		}
	}

	sortByRecency(escalated)
	sortByRecency(rest)

	return append(escalated, rest...)
}

// sortByRecency sorts in place: newest first, ties by ID ascending so the
// order is stable across clients regardless of input order.
func sortByRecency(questions []Question) {
	sort.Slice(questions, func(i, j int) bool {
		if !questions[i].CreatedAt.Equal(questions[j].CreatedAt) {
			return questions[i].CreatedAt.After(questions[j].CreatedAt)
		}
		return questions[i].ID < questions[j].ID
	})
}
