package ops

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/store"
)

// createPoll seeds a poll through the Create op and returns its id.
func createPoll(t *testing.T, st *store.MemStore, exclusive bool) string {
	t.Helper()
	out, err := Create(context.Background(), st, testCfg(), CreateInput{
		Title:     "Team lunch",
		Password:  "hunter2",
		Options:   []string{"Mon", "Tue", "Wed"},
		Exclusive: exclusive,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return out.Poll.ID
}

func TestVote(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	out, err := Vote(ctx, st, testCfg(), VoteInput{
		PollID:     id,
		Name:       "  Alice  ",
		Selections: []int{0, 2},
	})
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if out.VoterName != "Alice" {
		t.Errorf("VoterName = %q, want trimmed %q", out.VoterName, "Alice")
	}
	if out.PollID != id {
		t.Errorf("PollID = %q, want %q", out.PollID, id)
	}
	if !reflect.DeepEqual(out.Selections, []int{0, 2}) {
		t.Errorf("Selections = %v, want [0 2]", out.Selections)
	}

	loaded, err := st.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Votes) != 1 || loaded.Votes[0].Name != "Alice" {
		t.Errorf("Votes = %+v, want Alice's vote persisted", loaded.Votes)
	}
	if loaded.Votes[0].VotedAt.IsZero() {
		t.Error("VotedAt not set")
	}
}

func TestVote_ResubmitReplaces(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	for _, sels := range [][]int{{0}, {1, 2}} {
		if _, err := Vote(ctx, st, testCfg(), VoteInput{
			PollID: id, Name: "Alice", Selections: sels,
		}); err != nil {
			t.Fatalf("Vote: %v", err)
		}
	}

	loaded, err := st.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Votes) != 1 {
		t.Fatalf("len(Votes) = %d, want 1 (replaced, not appended)", len(loaded.Votes))
	}
	if !reflect.DeepEqual(loaded.Votes[0].Selections, []int{1, 2}) {
		t.Errorf("Selections = %v, want latest submission [1 2]", loaded.Votes[0].Selections)
	}
}

func TestVote_ExclusiveKeepsFirstValid(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, true)

	out, err := Vote(ctx, st, testCfg(), VoteInput{
		PollID: id, Name: "Bob", Selections: []int{0, 1},
	})
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if !reflect.DeepEqual(out.Selections, []int{0}) {
		t.Errorf("Selections = %v, want [0] on exclusive poll", out.Selections)
	}
}

func TestVote_InvalidSelectionsDropped(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	out, err := Vote(ctx, st, testCfg(), VoteInput{
		PollID: id, Name: "Bob", Selections: []int{-1, 0, 7, 0},
	})
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if !reflect.DeepEqual(out.Selections, []int{0}) {
		t.Errorf("Selections = %v, want [0]", out.Selections)
	}
}

func TestVote_EmptySelectionsAllowed(t *testing.T) {
	// an abstention still records the voter
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	out, err := Vote(ctx, st, testCfg(), VoteInput{
		PollID: id, Name: "Bob", Selections: nil,
	})
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if len(out.Selections) != 0 {
		t.Errorf("Selections = %v, want empty", out.Selections)
	}

	loaded, _ := st.Load(ctx, id)
	if !loaded.HasVoted("Bob") {
		t.Error("abstention not recorded")
	}
}

func TestVote_NameValidation(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	for _, name := range []string{"", "   ", strings.Repeat("x", 41)} {
		_, err := Vote(ctx, st, testCfg(), VoteInput{PollID: id, Name: name, Selections: []int{0}})
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("Vote(name=%q) error = %v, want INVALID_REQUEST", name, err)
		}
	}
}

func TestVote_UnknownPoll(t *testing.T) {
	ctx := context.Background()
	_, err := Vote(ctx, testStore(), testCfg(), VoteInput{
		PollID: "zzz999", Name: "Alice", Selections: []int{0},
	})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Vote error = %v, want NOT_FOUND", err)
	}
}

func TestVote_MalformedPollID(t *testing.T) {
	ctx := context.Background()
	_, err := Vote(ctx, testStore(), testCfg(), VoteInput{
		PollID: "../../etc", Name: "Alice", Selections: []int{0},
	})
	if !errors.Is(err, errors.ErrMalformedID) {
		t.Errorf("Vote error = %v, want MALFORMED_ID", err)
	}
}
