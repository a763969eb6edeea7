package poll

import "time"

// Field limits, counted in Unicode code points.
const (
	TitleMaxChars       = 100
	DescriptionMaxChars = 3000
	AuthorMaxChars      = 80
	OptionMaxChars      = 60
	VoterNameMaxChars   = 40
)

// Poll is one durable poll record. The JSON layout is the on-disk format:
// one document per poll, keyed by ID.
type Poll struct {
	// ID is a lowercase alphanumeric string of the configured length,
	// immutable once created. It doubles as the storage key and URL token.
	ID string `json:"id"`

	// Title is required, 1–100 code points.
	Title string `json:"title"`

	// Description is optional, newline-normalized, up to 3000 code points.
	Description string `json:"description"`

	// Author is optional, up to 80 code points.
	Author string `json:"author"`

	// Password is the bcrypt hash of the edit password, or nil when the
	// poll is not editable. Never holds plaintext.
	Password *string `json:"password"`

	// Options is the ordered option list. Indices are the vote-selection
	// keys, so the list is index-stable. Entries are case-insensitively
	// unique.
	Options []string `json:"options"`

	// Exclusive limits each vote to a single selection. Absent in legacy
	// records, which the JSON zero value maps to false.
	Exclusive bool `json:"exclusive"`

	// Votes holds at most one entry per voter name.
	Votes []Vote `json:"votes"`

	// CreatedAt is set once at creation and never changes.
	CreatedAt time.Time `json:"created_at"`
}

// Vote is one voter's current selections within a poll.
type Vote struct {
	// Name identifies the voter within this poll (exact match, 1–40 code
	// points). Not globally unique.
	Name string `json:"name"`

	// Selections are indices into the poll's Options.
	Selections []int `json:"selections"`

	// VotedAt is refreshed every time this voter's vote is (re)written.
	VotedAt time.Time `json:"voted_at"`
}

// HasPassword reports whether the poll can be edited with a password.
func (p *Poll) HasPassword() bool {
	return p.Password != nil && *p.Password != ""
}

// VoteByName returns the index of the vote with the given name, or -1.
// Names match exactly (case-sensitive).
func (p *Poll) VoteByName(name string) int {
	for i, v := range p.Votes {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// ReplaceVote removes any existing vote with the same name and appends v,
// preserving the insertion order of the remaining votes. The poll never
// holds two votes for one name.
func (p *Poll) ReplaceVote(v Vote) {
	votes := p.Votes[:0]
	for _, existing := range p.Votes {
		if existing.Name != v.Name {
			votes = append(votes, existing)
		}
	}
	p.Votes = append(votes, v)
}

// HasVoted reports whether a vote exists for the given name.
func (p *Poll) HasVoted(name string) bool {
	return p.VoteByName(name) >= 0
}
