package ops

import (
	"context"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/poll"
	"github.com/hpungsan/tally/internal/store"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	PollID string
}

// FetchOutput contains the poll and its computed tally.
type FetchOutput struct {
	Poll  *poll.Poll `json:"poll"`
	Tally poll.Tally `json:"tally"`
}

// Fetch loads a poll and computes its live tally. The tally is derived from
// the stored votes on every read and never persisted.
func Fetch(ctx context.Context, st store.Store, cfg *config.Config, input FetchInput) (*FetchOutput, error) {
	p, err := st.Load(ctx, input.PollID)
	if err != nil {
		return nil, err
	}
	return &FetchOutput{
		Poll:  p,
		Tally: poll.Count(p),
	}, nil
}
