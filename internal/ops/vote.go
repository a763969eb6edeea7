package ops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/poll"
	"github.com/hpungsan/tally/internal/store"
)

// VoteInput contains parameters for the Vote operation.
type VoteInput struct {
	PollID     string
	Name       string
	Selections []int
}

// VoteOutput contains the result of the Vote operation. VoterName is the
// trimmed name as stored, so the web layer can remember it in the voter
// cookie without re-deriving the normalization.
type VoteOutput struct {
	PollID     string     `json:"poll_id"`
	VoterName  string     `json:"voter_name"`
	Selections []int      `json:"selections"`
	Poll       *poll.Poll `json:"poll"`
}

// Vote records (or re-records) a voter's selections on a poll. Resubmitting
// under the same exact-match name replaces the previous vote, so the
// operation is idempotent per voter. Selections outside the option range are
// dropped; exclusive polls keep only the first valid selection.
func Vote(ctx context.Context, st store.Store, cfg *config.Config, input VoteInput) (*VoteOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	if poll.CountChars(name) > poll.VoterNameMaxChars {
		return nil, errors.NewInvalidRequest(
			fmt.Sprintf("name exceeds %d characters", poll.VoterNameMaxChars))
	}

	p, err := st.Load(ctx, input.PollID)
	if err != nil {
		return nil, err
	}

	selections := poll.FilterSelections(input.Selections, len(p.Options), p.Exclusive)

	p.ReplaceVote(poll.Vote{
		Name:       name,
		Selections: selections,
		VotedAt:    time.Now().UTC(),
	})

	if err := st.Save(ctx, input.PollID, p); err != nil {
		return nil, err
	}

	return &VoteOutput{
		PollID:     p.ID,
		VoterName:  name,
		Selections: selections,
		Poll:       p,
	}, nil
}
