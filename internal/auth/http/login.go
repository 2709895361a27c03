package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/nopass/internal/auth/delivery"
	"github.com/aussiebroadwan/nopass/internal/auth/service"
	"github.com/aussiebroadwan/nopass/pkg/httpx"
	"github.com/aussiebroadwan/nopass/pkg/slogx"
)

// LoginHandler serves the login code request form.
type LoginHandler struct {
	Gate    *service.AuthenticationGate
	Options Options
}

// HandleGet renders the login code request form.
//
//	@Summary		Login code request form
//	@Description	Renders the form used to request a login code. The optional next parameter is carried through
//	@Description	to the issued code and used as the redirect target after redemption.
//	@Tags			Accounts
//	@Produce		html
//	@Param			next	query		string	false	"Local path to redirect to after login"
//	@Success		200		{string}	string	"HTML form"
//	@Router			/accounts/login/ [get]
func (h *LoginHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	f := newForm(r.URL.Query(), false)
	h.render(w, r, f)
}

// HandlePost issues a login code and sends it to the account's email.
//
//	@Summary		Request a login code
//	@Description	Issues a login code for an active account and delivers it by email.
//	@Description
//	@Description	**Response:**
//	@Description	- Success: 302 redirect to /accounts/login/code/
//	@Description	- Missing, unknown or inactive username: 200 with the form and an error on the username field
//	@Description	- Host not allowed and no base URL configured: 400
//	@Tags			Accounts
//	@Accept			x-www-form-urlencoded
//	@Produce		html
//	@Param			username	formData	string	true	"Case-sensitive username"
//	@Param			next		formData	string	false	"Local path to redirect to after login"
//	@Success		302			{string}	string	"Redirect to /accounts/login/code/"
//	@Success		200			{string}	string	"HTML form with errors"
//	@Failure		400			{object}	httpx.ErrorResponse	"Host header not in the allowed hosts"
//	@Failure		403			{object}	httpx.ErrorResponse	"Cross-origin request"
//	@Failure		429			{object}	httpx.ErrorResponse
//	@Router			/accounts/login/ [post]
func (h *LoginHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	f := newForm(r.PostForm, true)
	if !f.Required("username") {
		h.render(w, r, f)
		return
	}

	ctx := r.Context()
	switch {
	case h.Options.BaseURL != "":
		ctx = delivery.WithBaseURL(ctx, h.Options.BaseURL)
	case hostAllowed(r, h.Options.AllowedHosts):
		ctx = delivery.WithBaseURL(ctx, requestBaseURL(r))
	default:
		slogx.FromContext(ctx).Warn("refusing to build login link for disallowed host",
			slog.String("host", r.Host),
		)
		httpx.WriteError(w, http.StatusBadRequest, "disallowed_host", "invalid Host header")
		return
	}

	username := strings.TrimSpace(f.Get("username"))
	next := safeRedirect(f.Get("next"), "")

	_, err := h.Gate.RequestCode(ctx, username, next)
	switch {
	case err == nil:
		http.Redirect(w, r, delivery.LoginCodePath, http.StatusFound)
	case errors.Is(err, service.ErrUnknownAccount):
		f.AddError("username", msgUnknownAccount)
		h.render(w, r, f)
	case errors.Is(err, service.ErrAccountInactive):
		f.AddError("username", msgInactive)
		h.render(w, r, f)
	default:
		slogx.FromContext(ctx).Error("login code request failed",
			slog.String("username", username),
			"error", err,
		)
		writeServerError(w)
	}
}

func (h *LoginHandler) render(w http.ResponseWriter, r *http.Request, f *form) {
	err := render(w, "login", pageData{
		Title:    "Log in",
		SiteName: h.Options.SiteName,
		Form:     f,
	})
	if err != nil {
		slogx.FromContext(r.Context()).Error("render login page", "error", err)
	}
}
