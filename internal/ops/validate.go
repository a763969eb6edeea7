package ops

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/poll"
)

// pollFields are the caller-editable poll fields shared by Create and Edit.
type pollFields struct {
	Title       string
	Description string
	Author      string
	Options     []string
}

// normalizeFields trims, normalizes, and validates the shared poll fields.
// Limits are counted in code points, not bytes.
func normalizeFields(in pollFields) (pollFields, error) {
	out := pollFields{}

	out.Title = strings.TrimSpace(in.Title)
	if out.Title == "" {
		return out, errors.NewInvalidRequest("title is required")
	}
	if poll.CountChars(out.Title) > poll.TitleMaxChars {
		return out, errors.NewInvalidRequest(
			fmt.Sprintf("title exceeds %d characters", poll.TitleMaxChars))
	}

	out.Description = poll.NormalizeDescription(in.Description)
	if poll.CountChars(out.Description) > poll.DescriptionMaxChars {
		return out, errors.NewInvalidRequest(
			fmt.Sprintf("description exceeds %d characters", poll.DescriptionMaxChars))
	}

	out.Author = strings.TrimSpace(in.Author)
	if poll.CountChars(out.Author) > poll.AuthorMaxChars {
		return out, errors.NewInvalidRequest(
			fmt.Sprintf("author exceeds %d characters", poll.AuthorMaxChars))
	}

	out.Options = poll.DedupeOptions(in.Options)
	if len(out.Options) == 0 {
		return out, errors.NewInvalidRequest("at least one option is required")
	}
	for _, opt := range out.Options {
		if poll.CountChars(opt) > poll.OptionMaxChars {
			return out, errors.NewInvalidRequest(
				fmt.Sprintf("option %q exceeds %d characters", opt, poll.OptionMaxChars))
		}
	}

	return out, nil
}

// hashPassword bcrypt-hashes a non-empty password. Returns nil for the
// empty string, meaning no password is set.
func hashPassword(password string) (*string, error) {
	if password == "" {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to hash password: %w", err))
	}
	s := string(hash)
	return &s, nil
}

// checkPassword verifies a submitted password against a poll's stored hash.
// Polls without a password are not editable at all.
func checkPassword(p *poll.Poll, password string) error {
	if !p.HasPassword() {
		return errors.NewNoPassword()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*p.Password), []byte(password)); err != nil {
		return errors.NewWrongPassword()
	}
	return nil
}
