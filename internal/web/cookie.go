package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/hpungsan/tally/internal/config"
)

// userCookieName is the remembered-voter cookie.
const userCookieName = "tally_user"

// userCookie remembers who the visitor voted as and which polls they have
// voted on. It is a convenience only; the stored votes remain the source of
// truth, so a cleared cookie just means retyping the name.
type userCookie struct {
	Name       string   `json:"name"`
	VotedPolls []string `json:"voted_polls"`
}

// readUserCookie decodes the remembered-voter cookie. A missing or garbled
// cookie yields the zero value.
func readUserCookie(r *http.Request) userCookie {
	var uc userCookie
	c, err := r.Cookie(userCookieName)
	if err != nil {
		return uc
	}
	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return uc
	}
	if err := json.Unmarshal(data, &uc); err != nil {
		return userCookie{}
	}
	return uc
}

// writeUserCookie records a vote in the remembered-voter cookie.
func writeUserCookie(w http.ResponseWriter, cfg *config.Config, prev userCookie, name, pollID string) {
	uc := prev
	uc.Name = name
	if !slices.Contains(uc.VotedPolls, pollID) {
		uc.VotedPolls = append(uc.VotedPolls, pollID)
	}

	data, err := json.Marshal(uc)
	if err != nil {
		return
	}

	maxAgeDays := cfg.CookieMaxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}

	http.SetCookie(w, &http.Cookie{
		Name:     userCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   maxAgeDays * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
