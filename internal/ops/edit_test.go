package ops

import (
	"context"
	"reflect"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hpungsan/tally/internal/errors"
)

func TestAuthorizeEdit(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	out, err := AuthorizeEdit(ctx, st, testCfg(), AuthorizeEditInput{
		PollID: id, Password: "hunter2",
	})
	if err != nil {
		t.Fatalf("AuthorizeEdit: %v", err)
	}
	if out.Poll.ID != id {
		t.Errorf("Poll.ID = %q, want %q", out.Poll.ID, id)
	}
}

func TestAuthorizeEdit_WrongPassword(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	_, err := AuthorizeEdit(ctx, st, testCfg(), AuthorizeEditInput{
		PollID: id, Password: "wrong",
	})
	if !errors.Is(err, errors.ErrWrongPassword) {
		t.Errorf("AuthorizeEdit error = %v, want WRONG_PASSWORD", err)
	}
}

func TestAuthorizeEdit_PasswordlessPoll(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	created, err := Create(ctx, st, testCfg(), CreateInput{
		Title: "Open", Options: []string{"A"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// even the empty password must not unlock a passwordless poll
	_, err = AuthorizeEdit(ctx, st, testCfg(), AuthorizeEditInput{
		PollID: created.Poll.ID, Password: "",
	})
	if !errors.Is(err, errors.ErrNoPassword) {
		t.Errorf("AuthorizeEdit error = %v, want NO_PASSWORD", err)
	}
}

func TestEdit(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, true)

	if _, err := Vote(ctx, st, testCfg(), VoteInput{
		PollID: id, Name: "Alice", Selections: []int{1},
	}); err != nil {
		t.Fatalf("Vote: %v", err)
	}
	before, _ := st.Load(ctx, id)

	out, err := Edit(ctx, st, testCfg(), EditInput{
		PollID:      id,
		Password:    "hunter2",
		Title:       "Team lunch v2",
		Description: "new text",
		Author:      "dave",
		Options:     []string{"Mon", "Tue", "Wed", "Thu"},
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}

	p := out.Poll
	if p.Title != "Team lunch v2" || p.Author != "dave" {
		t.Errorf("edited poll = %+v", p)
	}
	if len(p.Options) != 4 {
		t.Errorf("Options = %v, want 4 entries", p.Options)
	}

	// immutable fields survive the edit
	if p.ID != id {
		t.Errorf("ID changed: %q", p.ID)
	}
	if !p.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", before.CreatedAt, p.CreatedAt)
	}
	if !p.Exclusive {
		t.Error("Exclusive flag changed")
	}
	if len(p.Votes) != 1 || p.Votes[0].Name != "Alice" {
		t.Errorf("Votes = %+v, want Alice's vote preserved", p.Votes)
	}
}

func TestEdit_PasswordRetainedWhenEmpty(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	if _, err := Edit(ctx, st, testCfg(), EditInput{
		PollID:   id,
		Password: "hunter2",
		Title:    "Renamed",
		Options:  []string{"A"},
	}); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	// the old password still authorizes
	if _, err := AuthorizeEdit(ctx, st, testCfg(), AuthorizeEditInput{
		PollID: id, Password: "hunter2",
	}); err != nil {
		t.Errorf("old password no longer works: %v", err)
	}
}

func TestEdit_NewPasswordReplacesHash(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	if _, err := Edit(ctx, st, testCfg(), EditInput{
		PollID:      id,
		Password:    "hunter2",
		Title:       "Renamed",
		Options:     []string{"A"},
		NewPassword: "swordfish",
	}); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	loaded, _ := st.Load(ctx, id)
	if err := bcrypt.CompareHashAndPassword([]byte(*loaded.Password), []byte("swordfish")); err != nil {
		t.Errorf("new password does not verify: %v", err)
	}
	if _, err := AuthorizeEdit(ctx, st, testCfg(), AuthorizeEditInput{
		PollID: id, Password: "hunter2",
	}); !errors.Is(err, errors.ErrWrongPassword) {
		t.Errorf("old password still works after replacement: %v", err)
	}
}

func TestEdit_WrongPasswordLeavesPollUntouched(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	_, err := Edit(ctx, st, testCfg(), EditInput{
		PollID:   id,
		Password: "wrong",
		Title:    "Hijacked",
		Options:  []string{"A"},
	})
	if !errors.Is(err, errors.ErrWrongPassword) {
		t.Fatalf("Edit error = %v, want WRONG_PASSWORD", err)
	}

	loaded, _ := st.Load(ctx, id)
	if loaded.Title != "Team lunch" {
		t.Errorf("Title = %q, poll modified despite auth failure", loaded.Title)
	}
}

func TestEdit_PrunesOutOfRangeSelections(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	if _, err := Vote(ctx, st, testCfg(), VoteInput{
		PollID: id, Name: "Alice", Selections: []int{0, 2},
	}); err != nil {
		t.Fatalf("Vote: %v", err)
	}

	// shrink the option list from three entries to two
	if _, err := Edit(ctx, st, testCfg(), EditInput{
		PollID:   id,
		Password: "hunter2",
		Title:    "Team lunch",
		Options:  []string{"Mon", "Tue"},
	}); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	loaded, _ := st.Load(ctx, id)
	if !reflect.DeepEqual(loaded.Votes[0].Selections, []int{0}) {
		t.Errorf("Selections = %v, want [0] after pruning index 2", loaded.Votes[0].Selections)
	}
}

func TestEdit_Validation(t *testing.T) {
	ctx := context.Background()
	st := testStore()
	id := createPoll(t, st, false)

	_, err := Edit(ctx, st, testCfg(), EditInput{
		PollID:   id,
		Password: "hunter2",
		Title:    "",
		Options:  []string{"A"},
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Edit error = %v, want INVALID_REQUEST", err)
	}
}
