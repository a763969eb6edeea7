package ops

import (
	"context"
	"time"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/poll"
	"github.com/hpungsan/tally/internal/store"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Title       string
	Description string
	Author      string
	Password    string // plaintext, empty means no password
	Options     []string
	Exclusive   bool
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	Poll *poll.Poll `json:"poll"`
}

// Create validates the input, allocates a collision-free id, and persists a
// new poll with no votes. The id write is exclusive; losing an allocation
// race surfaces as CONFLICT rather than overwriting the winner.
func Create(ctx context.Context, st store.Store, cfg *config.Config, input CreateInput) (*CreateOutput, error) {
	fields, err := normalizeFields(pollFields{
		Title:       input.Title,
		Description: input.Description,
		Author:      input.Author,
		Options:     input.Options,
	})
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	id, err := store.GenerateID(ctx, st, cfg.IDLength, cfg.IDMaxAttempts)
	if err != nil {
		return nil, err
	}

	p := &poll.Poll{
		ID:          id,
		Title:       fields.Title,
		Description: fields.Description,
		Author:      fields.Author,
		Password:    hash,
		Options:     fields.Options,
		Exclusive:   input.Exclusive,
		Votes:       []poll.Vote{},
		CreatedAt:   time.Now().UTC(),
	}

	if err := st.Create(ctx, id, p); err != nil {
		// Exists said the id was free but another creator won the race.
		if errors.Is(err, errors.ErrConflict) {
			return nil, errors.NewIDExhausted(cfg.IDMaxAttempts)
		}
		return nil, err
	}

	return &CreateOutput{Poll: p}, nil
}
