package http

import (
	"net/http"

	"github.com/aussiebroadwan/nopass/internal/auth/session"
	"github.com/aussiebroadwan/nopass/pkg/httpx"
)

// SessionHandler reports the principal behind the session cookie.
type SessionHandler struct {
	Sessions *session.Manager
}

// ServeHTTP godoc
//
//	@Summary		Current session
//	@Description	Returns the authenticated principal for the session cookie set by a successful login.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	session.Principal
//	@Failure		401	{object}	httpx.ErrorResponse	"no valid session"
//	@Router			/v1/session [get]
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := h.Sessions.Current(r)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "no valid session")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}
