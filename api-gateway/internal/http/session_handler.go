package http

import (
	"net/http"

	"github.com/google/uuid"
)

const guestPrefix = "guest-"

type GuestSessionDTO struct {
	GuestToken string `json:"guestToken"`
	Header     string `json:"header"`
}

// POST /api/v1/session/guest
//
// The token is not stored anywhere; the client sends it back in
// X-Guest-Token and it becomes the cart key.
func NewGuestSession(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusCreated, GuestSessionDTO{
		GuestToken: guestPrefix + uuid.NewString(),
		Header:     HeaderGuestToken,
	})
}
