package domain

import "time"

// User is an account that can sign in with a login code.
type User struct {
	ID       string
	Username string // unique, case-sensitive
	Email    string
	// Active accounts may request and redeem login codes.
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
