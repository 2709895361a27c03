// Package session keeps the authenticated principal in a signed cookie.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/domain"
	"github.com/aussiebroadwan/nopass/pkg/jwtx"
)

// DefaultCookieName is used when Manager.CookieName is empty.
const DefaultCookieName = "nopass_session"

// ErrNoSession is returned when the request carries no valid session.
var ErrNoSession = errors.New("session: none")

// Principal is the identity stored in a session.
type Principal struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager issues and reads session cookies.
type Manager struct {
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Issuer     string
	CookieName string
	TTL        time.Duration
	Secure     bool

	// Now defaults to time.Now.
	Now func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *Manager) cookieName() string {
	if m.CookieName == "" {
		return DefaultCookieName
	}
	return m.CookieName
}

func (m *Manager) ttl() time.Duration {
	if m.TTL <= 0 {
		return jwtx.DefaultSessionTTL
	}
	return m.TTL
}

// Start signs a session for user and sets it on w.
func (m *Manager) Start(w http.ResponseWriter, user domain.User) error {
	now := m.now()
	token, err := m.Signer.Sign(jwtx.NewSessionClaims(user.ID, user.Username, m.Issuer, m.ttl(), now))
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.ttl()),
		MaxAge:   int(m.ttl().Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Current returns the principal of r's session.
func (m *Manager) Current(r *http.Request) (Principal, error) {
	c, err := r.Cookie(m.cookieName())
	if err != nil || c.Value == "" {
		return Principal{}, ErrNoSession
	}

	claims, err := m.Verifier.Verify(c.Value, m.now())
	if err != nil {
		return Principal{}, errors.Join(ErrNoSession, err)
	}

	p := Principal{UserID: claims.Subject, Username: claims.Username}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return p, nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
