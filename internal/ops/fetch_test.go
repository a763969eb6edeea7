package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/tally/internal/errors"
)

func TestFetch(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	for _, v := range []VoteInput{
		{PollID: id, Name: "Alice", Selections: []int{0, 1}},
		{PollID: id, Name: "Bob", Selections: []int{0}},
	} {
		if _, err := Vote(ctx, st, testCfg(), v); err != nil {
			t.Fatalf("Vote: %v", err)
		}
	}

	out, err := Fetch(ctx, st, testCfg(), FetchInput{PollID: id})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if out.Poll.ID != id {
		t.Errorf("Poll.ID = %q, want %q", out.Poll.ID, id)
	}
	if out.Tally.TotalVoters != 2 {
		t.Errorf("TotalVoters = %d, want 2", out.Tally.TotalVoters)
	}
	if out.Tally.Options[0].Count != 2 || !out.Tally.Options[0].Favorite {
		t.Errorf("option 0 tally = %+v, want count 2 favorite", out.Tally.Options[0])
	}
}

func TestFetch_Errors(t *testing.T) {
	ctx := context.Background()
	st := testStore()

	if _, err := Fetch(ctx, st, testCfg(), FetchInput{PollID: "zzz999"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch(absent) error = %v, want NOT_FOUND", err)
	}
	if _, err := Fetch(ctx, st, testCfg(), FetchInput{PollID: "NOPE"}); !errors.Is(err, errors.ErrMalformedID) {
		t.Errorf("Fetch(malformed) error = %v, want MALFORMED_ID", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	st := testStore()

	out, err := List(ctx, st, testCfg(), ListInput{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if out.Count != 0 || len(out.Polls) != 0 {
		t.Errorf("List on empty store = %+v", out)
	}

	id := createPoll(t, st, false)
	if _, err := Vote(ctx, st, testCfg(), VoteInput{
		PollID: id, Name: "Alice", Selections: []int{0},
	}); err != nil {
		t.Fatalf("Vote: %v", err)
	}

	out, err = List(ctx, st, testCfg(), ListInput{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("Count = %d, want 1", out.Count)
	}
	s := out.Polls[0]
	if s.ID != id || s.Title != "Team lunch" || s.OptionCount != 3 || s.VoteCount != 1 || !s.HasPassword {
		t.Errorf("summary = %+v", s)
	}
}
