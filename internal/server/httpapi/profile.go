package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mediavault/mediavault/internal/server/models"
)

// UserOps is the slice of the user service the handlers need.
type UserOps interface {
	Create(ctx context.Context, userID, email, username, name string) (*models.UserProfile, error)
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
}

// ProfileResponse is the wire shape of a user profile.
type ProfileResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toProfileResponse(p *models.UserProfile) *ProfileResponse {
	return &ProfileResponse{
		UserID:    p.UserID,
		Email:     p.Email,
		Username:  p.Username,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
}

// ProfileRequest is the body for profile creation: the caller picks a
// username; the remaining fields come from the verified token.
type ProfileRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
}

// CreateProfile registers the caller's profile with their chosen username.
func CreateProfile(users UserOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		var body ProfileRequest
		if !decodeBody(w, r, &body) {
			return
		}

		p, err := users.Create(r.Context(), claims.Subject, claims.Email, body.Username, claims.Name)
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusCreated, RequestOK("Profile created", toProfileResponse(p)))
	}
}

// Me returns the caller's profile.
func Me(users UserOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		p, err := users.Get(r.Context(), claims.Subject)
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("Profile fetched", toProfileResponse(p)))
	}
}

// UsernameAvailable reports whether ?username= is still unclaimed.
func UsernameAvailable(users UserOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		available, err := users.UsernameAvailable(r.Context(), r.URL.Query().Get("username"))
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("Username checked", map[string]bool{"available": available}))
	}
}
