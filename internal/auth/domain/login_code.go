package domain

import "time"

// LoginCode is one outstanding login code. ID is the storage key; Code is the
// secret the user presents. Only CodeHash is persisted, Code is populated on
// the value returned at issuance so it can be delivered.
type LoginCode struct {
	ID             string
	UserID         string
	Code           string
	CodeHash       string
	RedirectTarget string
	IssuedAt       time.Time
}
