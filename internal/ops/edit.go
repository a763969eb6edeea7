package ops

import (
	"context"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/poll"
	"github.com/hpungsan/tally/internal/store"
)

// AuthorizeEditInput contains parameters for the AuthorizeEdit operation.
type AuthorizeEditInput struct {
	PollID   string
	Password string // plaintext
}

// AuthorizeEditOutput carries the current poll for prefilling the edit form.
type AuthorizeEditOutput struct {
	Poll *poll.Poll `json:"poll"`
}

// AuthorizeEdit verifies the edit password for a poll. Polls created without
// a password return NO_PASSWORD (they can never be edited); a mismatch
// returns WRONG_PASSWORD. The comparison is constant-time.
func AuthorizeEdit(ctx context.Context, st store.Store, cfg *config.Config, input AuthorizeEditInput) (*AuthorizeEditOutput, error) {
	p, err := st.Load(ctx, input.PollID)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(p, input.Password); err != nil {
		return nil, err
	}
	return &AuthorizeEditOutput{Poll: p}, nil
}

// EditInput contains parameters for the Edit operation. Password is the
// current password authorizing the change; NewPassword, when non-empty,
// replaces the stored hash.
type EditInput struct {
	PollID      string
	Password    string
	Title       string
	Description string
	Author      string
	Options     []string
	NewPassword string
}

// EditOutput contains the result of the Edit operation.
type EditOutput struct {
	Poll *poll.Poll `json:"poll"`
}

// Edit re-validates and replaces a poll's editable fields. The id,
// created_at, exclusive flag, and recorded votes are preserved. If the new
// option list is shorter than the old one, stored selections that fall out
// of range are pruned so every persisted selection stays valid.
func Edit(ctx context.Context, st store.Store, cfg *config.Config, input EditInput) (*EditOutput, error) {
	p, err := st.Load(ctx, input.PollID)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(p, input.Password); err != nil {
		return nil, err
	}

	fields, err := normalizeFields(pollFields{
		Title:       input.Title,
		Description: input.Description,
		Author:      input.Author,
		Options:     input.Options,
	})
	if err != nil {
		return nil, err
	}

	p.Title = fields.Title
	p.Description = fields.Description
	p.Author = fields.Author
	p.Options = fields.Options

	if input.NewPassword != "" {
		hash, err := hashPassword(input.NewPassword)
		if err != nil {
			return nil, err
		}
		p.Password = hash
	}

	pruneSelections(p)

	if err := st.Save(ctx, input.PollID, p); err != nil {
		return nil, err
	}
	return &EditOutput{Poll: p}, nil
}

// pruneSelections drops stored selections that no longer reference an
// option, re-applying the exclusive rule to what remains.
func pruneSelections(p *poll.Poll) {
	for i := range p.Votes {
		p.Votes[i].Selections = poll.FilterSelections(
			p.Votes[i].Selections, len(p.Options), p.Exclusive)
	}
}
