package forum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderQuestions(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)

	t.Run("escalated first then recency", func(t *testing.T) {
		questions := []Question{
			{ID: "1", Status: StatusPending, CreatedAt: t1},
			{ID: "2", Status: StatusEscalated, CreatedAt: t0},
			{ID: "3", Status: StatusEscalated, CreatedAt: t2},
		}

		ordered := OrderQuestions(questions)
		require.Len(t, ordered, 3)
		assert.Equal(t, "3", ordered[0].ID)
		assert.Equal(t, "2", ordered[1].ID)
		assert.Equal(t, "1", ordered[2].ID)
	})

	t.Run("ties broken by ID ascending", func(t *testing.T) {
		questions := []Question{
			{ID: "b", Status: StatusPending, CreatedAt: t0},
			{ID: "a", Status: StatusPending, CreatedAt: t0},
			{ID: "c", Status: StatusPending, CreatedAt: t0},
		}

		ordered := OrderQuestions(questions)
		assert.Equal(t, []string{ordered[0].ID, ordered[1].ID, ordered[2].ID}, []string{"a", "b", "c"})
	})

	t.Run("deterministic regardless of input order", func(t *testing.T) {
		forward := []Question{
			{ID: "1", Status: StatusAnswered, CreatedAt: t0},
			{ID: "2", Status: StatusEscalated, CreatedAt: t1},
			{ID: "3", Status: StatusPending, CreatedAt: t2},
		}
		reversed := []Question{forward[2], forward[1], forward[0]}

		assert.Equal(t, OrderQuestions(forward), OrderQuestions(reversed))
	})

	t.Run("input not modified", func(t *testing.T) {
		questions := []Question{
			{ID: "1", Status: StatusPending, CreatedAt: t0},
			{ID: "2", Status: StatusEscalated, CreatedAt: t1},
		}

		_ = OrderQuestions(questions)
		assert.Equal(t, "1", questions[0].ID)
		assert.Equal(t, "2", questions[1].ID)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, OrderQuestions(nil))
	})
}
