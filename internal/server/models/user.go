package models

import "time"

// UserProfile is the per-account profile row, separate from file records.
// The identity subject comes from the external identity provider; the
// username is chosen at profile creation and is globally unique.
type UserProfile struct {
	UserID    string
	Email     string
	Username  string
	Name      string
	CreatedAt time.Time
}
