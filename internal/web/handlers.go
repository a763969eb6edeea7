package web

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/ops"
	"github.com/hpungsan/tally/internal/store"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	st       store.Store
	cfg      *config.Config
	renderer *Renderer
}

// HandleHome handles GET / — the create-poll form.
func (h *Handlers) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "create", CreatePageData{
		PageData: PageData{Title: "Create a poll", Version: h.renderer.version},
	})
}

// HandleCreate handles POST /polls — create a poll and redirect to it.
// Validation failures redisplay the form with the submitted values.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, errors.NewInvalidRequest("malformed form data"))
		return
	}

	form := CreateForm{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Author:      r.PostForm.Get("author"),
		Options:     r.PostForm["option"],
		Exclusive:   r.PostForm.Get("exclusive") != "",
	}

	out, err := ops.Create(r.Context(), h.st, h.cfg, ops.CreateInput{
		Title:       form.Title,
		Description: form.Description,
		Author:      form.Author,
		Password:    r.PostForm.Get("password"),
		Options:     form.Options,
		Exclusive:   form.Exclusive,
	})
	if err != nil {
		if tErr := asError(err); tErr != nil && tErr.Code == errors.ErrInvalidRequest {
			h.renderer.renderPageStatus(w, tErr.Status, "create", CreatePageData{
				PageData: PageData{Title: "Create a poll", Version: h.renderer.version},
				Form:     form,
				Error:    tErr.Message,
			})
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	http.Redirect(w, r, "/"+out.Poll.ID, http.StatusSeeOther)
}

// HandlePoll handles GET /{id} — the poll page: vote form (or already-voted
// notice) plus the live results table.
func (h *Handlers) HandlePoll(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	out, err := ops.Fetch(r.Context(), h.st, h.cfg, ops.FetchInput{PollID: id})
	if err != nil {
		h.renderer.renderError(w, err)
		return
	}

	h.renderer.renderPage(w, "poll", h.pollPageData(r, out, ""))
}

// HandleVote handles POST /{id}/vote — record a vote, remember the voter in
// the cookie, and redirect back to the poll.
func (h *Handlers) HandleVote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, errors.NewInvalidRequest("malformed form data"))
		return
	}

	out, err := ops.Vote(r.Context(), h.st, h.cfg, ops.VoteInput{
		PollID:     id,
		Name:       r.PostForm.Get("name"),
		Selections: parseSelections(r.PostForm["votes"]),
	})
	if err != nil {
		// a bad name redisplays the poll page with the message
		if tErr := asError(err); tErr != nil && tErr.Code == errors.ErrInvalidRequest {
			fetched, ferr := ops.Fetch(r.Context(), h.st, h.cfg, ops.FetchInput{PollID: id})
			if ferr != nil {
				h.renderer.renderError(w, ferr)
				return
			}
			h.renderer.renderPageStatus(w, tErr.Status, "poll", h.pollPageData(r, fetched, tErr.Message))
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	writeUserCookie(w, h.cfg, readUserCookie(r), out.VoterName, out.PollID)
	http.Redirect(w, r, "/"+id, http.StatusSeeOther)
}

// HandleEdit handles POST /{id}/edit — verify the password and show the
// edit form prefilled with the current values.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, errors.NewInvalidRequest("malformed form data"))
		return
	}
	password := r.PostForm.Get("password")

	out, err := ops.AuthorizeEdit(r.Context(), h.st, h.cfg, ops.AuthorizeEditInput{
		PollID:   id,
		Password: password,
	})
	if err != nil {
		if tErr := asError(err); tErr != nil &&
			(tErr.Code == errors.ErrWrongPassword || tErr.Code == errors.ErrNoPassword) {
			fetched, ferr := ops.Fetch(r.Context(), h.st, h.cfg, ops.FetchInput{PollID: id})
			if ferr != nil {
				h.renderer.renderError(w, ferr)
				return
			}
			// one generic message for both causes
			h.renderer.renderPageStatus(w, tErr.Status, "poll",
				h.pollPageData(r, fetched, "This poll cannot be edited with that password."))
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	p := out.Poll
	h.renderer.renderPage(w, "edit", EditPageData{
		PageData: PageData{Title: "Edit poll", Version: h.renderer.version},
		PollID:   p.ID,
		Password: password,
		Form: CreateForm{
			Title:       p.Title,
			Description: p.Description,
			Author:      p.Author,
			Options:     p.Options,
			Exclusive:   p.Exclusive,
		},
	})
}

// HandleUpdate handles POST /{id}/update — apply an authorized edit and
// redirect to the poll.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, errors.NewInvalidRequest("malformed form data"))
		return
	}

	password := r.PostForm.Get("password")
	form := CreateForm{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Author:      r.PostForm.Get("author"),
		Options:     r.PostForm["option"],
	}

	_, err := ops.Edit(r.Context(), h.st, h.cfg, ops.EditInput{
		PollID:      id,
		Password:    password,
		Title:       form.Title,
		Description: form.Description,
		Author:      form.Author,
		Options:     form.Options,
		NewPassword: r.PostForm.Get("new_password"),
	})
	if err != nil {
		if tErr := asError(err); tErr != nil && tErr.Code == errors.ErrInvalidRequest {
			h.renderer.renderPageStatus(w, tErr.Status, "edit", EditPageData{
				PageData: PageData{Title: "Edit poll", Version: h.renderer.version},
				PollID:   id,
				Password: password,
				Form:     form,
				Error:    tErr.Message,
			})
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	http.Redirect(w, r, "/"+id, http.StatusSeeOther)
}

// pollPageData assembles the poll page model, folding in the remembered
// voter from the cookie.
func (h *Handlers) pollPageData(r *http.Request, out *ops.FetchOutput, errMsg string) PollPageData {
	uc := readUserCookie(r)
	hasVoted := uc.Name != "" && out.Poll.HasVoted(uc.Name)

	shareURL := "/" + out.Poll.ID
	if base := strings.TrimSuffix(h.cfg.BaseURL, "/"); base != "" {
		shareURL = base + shareURL
	}

	return PollPageData{
		PageData:        PageData{Title: out.Poll.Title, Version: h.renderer.version},
		Poll:            out.Poll,
		Tally:           out.Tally,
		DescriptionHTML: renderMarkdown(out.Poll.Description),
		ShareURL:        shareURL,
		VoterName:       uc.Name,
		HasVoted:        hasVoted,
		Error:           errMsg,
	}
}

// parseSelections converts repeated form values to option indices,
// dropping anything non-numeric.
func parseSelections(values []string) []int {
	selections := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		selections = append(selections, n)
	}
	return selections
}

// asError extracts a structured error, or nil.
func asError(err error) *errors.Error {
	var tErr *errors.Error
	if stderrors.As(err, &tErr) {
		return tErr
	}
	return nil
}
