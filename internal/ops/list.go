package ops

import (
	"context"
	"time"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/store"
)

// ListInput contains parameters for the List operation.
type ListInput struct{}

// PollSummary is one row of the List output.
type PollSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	OptionCount int       `json:"option_count"`
	VoteCount   int       `json:"vote_count"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Polls []PollSummary `json:"polls"`
	Count int           `json:"count"`
}

// List returns a summary of every stored poll, ordered by id.
func List(ctx context.Context, st store.Store, cfg *config.Config, input ListInput) (*ListOutput, error) {
	ids, err := st.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]PollSummary, 0, len(ids))
	for _, id := range ids {
		p, err := st.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, PollSummary{
			ID:          p.ID,
			Title:       p.Title,
			Author:      p.Author,
			OptionCount: len(p.Options),
			VoteCount:   len(p.Votes),
			HasPassword: p.HasPassword(),
			CreatedAt:   p.CreatedAt,
		})
	}

	return &ListOutput{Polls: summaries, Count: len(summaries)}, nil
}
