package http

import (
	"net/http"

	"github.com/aussiebroadwan/nopass/internal/auth/session"
)

// LogoutHandler clears the session cookie.
type LogoutHandler struct {
	Sessions *session.Manager
	Options  Options
}

// ServeHTTP godoc
//
//	@Summary		Log out
//	@Description	Clears the session cookie and redirects to next, or to the configured logout page.
//	@Tags			Accounts
//	@Param			next	query		string	false	"Local path to redirect to"
//	@Success		302		{string}	string	"Redirect"
//	@Failure		403		{object}	httpx.ErrorResponse	"Cross-origin POST"
//	@Router			/accounts/logout/ [get]
//	@Router			/accounts/logout/ [post]
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)

	next := r.URL.Query().Get("next")
	if next == "" && r.Method == http.MethodPost {
		next = r.PostFormValue("next")
	}
	http.Redirect(w, r, safeRedirect(next, safeRedirect(h.Options.LogoutRedirectURL, "/")), http.StatusFound)
}
