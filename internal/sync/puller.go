// Package sync reconciles the local snapshot with the forum service.
//
// Two components live here. The Puller performs on-demand full
// synchronization: question list first, then every question's answers
// concurrently, merged into the snapshot without clobbering newer pushed
// data. The Dispatcher submits mutations and relies on the push echo for
// snapshot updates, falling back to a pull when no echo arrives in time.
package sync

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/openfloor/openfloor/internal/snapshot"
	"github.com/openfloor/openfloor/pkg/forum"
)

// DataSource is the read side of the forum REST service.
// Satisfied by *restapi.Client.
type DataSource interface {
	ListQuestions(ctx context.Context) ([]forum.Question, error)
	ListAnswers(ctx context.Context, questionID string) ([]forum.Answer, error)
}

// Puller performs full pull synchronization into a snapshot.
type Puller struct {
	source DataSource
	snap   *snapshot.Snapshot
}

// NewPuller creates a puller reading from source into snap.
func NewPuller(source DataSource, snap *snapshot.Snapshot) (*Puller, error) {
	if source == nil {
		return nil, fmt.Errorf("data source cannot be nil")
	}
	if snap == nil {
		return nil, fmt.Errorf("snapshot cannot be nil")
	}

	return &Puller{source: source, snap: snap}, nil
}

// Refresh fetches the full question list and then each question's answers.
// Per-question fetches run concurrently and fail independently: one bad
// question leaves its cached answers at their prior value while the others
// proceed.
//
// A failed question-list fetch leaves the snapshot untouched and returns a
// recoverable error; retry is the caller's decision. A cancelled context
// abandons the pull without mutating the snapshot - a torn-down session
// must not keep writing into a cache nothing reads anymore.
func (p *Puller) Refresh(ctx context.Context) error {
	questions, err := p.source.ListQuestions(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	p.snap.MergeQuestions(questions)

	var wg sync.WaitGroup
	for _, q := range questions {
		wg.Add(1)
		go func(questionID string) {
			defer wg.Done()

			answers, err := p.source.ListAnswers(ctx, questionID)
			if err != nil {
				// Prior cached answers for this question stay as they
				// were; the next refresh gets another chance.
				log.Printf("[Puller] Answers fetch failed for question %s: %v", questionID, err)
				return
			}

			if ctx.Err() != nil {
				return
			}

			p.snap.MergeAnswers(questionID, answers)
		}(q.ID)
	}
	wg.Wait()

	return ctx.Err()
}
