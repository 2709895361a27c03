package service

import "time"

// ExpiryPolicy decides when a login code stops being redeemable.
type ExpiryPolicy struct {
	Timeout time.Duration
}

// ExpiresAt is the first instant at which a code issued at issuedAt is expired.
func (p ExpiryPolicy) ExpiresAt(issuedAt time.Time) time.Time {
	return issuedAt.Add(p.Timeout)
}

// IsExpired reports whether now is at or past expiresAt. There is no grace period.
func (p ExpiryPolicy) IsExpired(expiresAt, now time.Time) bool {
	return !now.Before(expiresAt)
}
