package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/service"
	"github.com/aussiebroadwan/nopass/internal/auth/session"
	"github.com/aussiebroadwan/nopass/pkg/slogx"
)

// LoginCodeHandler redeems login codes for sessions.
type LoginCodeHandler struct {
	Gate     *service.AuthenticationGate
	Sessions *session.Manager
	Options  Options

	// Now defaults to time.Now.
	Now func() time.Time
}

func (h *LoginCodeHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// HandleGet serves the login code form. Links from login emails land here.
//
//	@Summary		Login code form
//	@Description	Without parameters renders an empty form. With user and code it either redeems the code
//	@Description	(when login on GET is enabled) or renders the form pre-filled and pre-validated without
//	@Description	consuming the code.
//	@Tags			Accounts
//	@Produce		html
//	@Param			user	query		string	false	"User id"
//	@Param			code	query		string	false	"Login code"
//	@Success		200		{string}	string	"HTML form"
//	@Success		302		{string}	string	"Redirect after a successful login (login on GET only)"
//	@Failure		429		{object}	httpx.ErrorResponse
//	@Router			/accounts/login/code/ [get]
func (h *LoginCodeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("user") && !query.Has("code") {
		h.render(w, r, newForm(nil, false))
		return
	}

	if h.Options.LoginOnGet {
		h.redeem(w, r, query)
		return
	}

	f := newForm(query, true)
	if !f.Required("user", "code") {
		f.AddNonFieldError(msgInvalidCode)
		h.render(w, r, f)
		return
	}

	ok, err := h.Gate.Check(r.Context(), f.Get("user"), f.Get("code"), h.now())
	if err != nil {
		slogx.FromContext(r.Context()).Error("login code check failed", "error", err)
		writeServerError(w)
		return
	}
	if !ok {
		f.AddNonFieldError(msgInvalidCode)
	}
	h.render(w, r, f)
}

// HandlePost redeems a login code.
//
//	@Summary		Redeem a login code
//	@Description	Consumes the code and starts a session. A code can be redeemed once, before it expires,
//	@Description	and only while its account is active. Every failure renders the same message.
//	@Tags			Accounts
//	@Accept			x-www-form-urlencoded
//	@Produce		html
//	@Param			user	formData	string	true	"User id"
//	@Param			code	formData	string	true	"Login code"
//	@Success		302		{string}	string	"Redirect to the requested page with a session cookie"
//	@Success		200		{string}	string	"HTML form with errors"
//	@Failure		403		{object}	httpx.ErrorResponse	"Cross-origin request"
//	@Failure		429		{object}	httpx.ErrorResponse
//	@Router			/accounts/login/code/ [post]
func (h *LoginCodeHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	h.redeem(w, r, r.PostForm)
}

func (h *LoginCodeHandler) redeem(w http.ResponseWriter, r *http.Request, values url.Values) {
	ctx := r.Context()
	f := newForm(values, true)
	if !f.Required("user", "code") {
		f.AddNonFieldError(msgInvalidCode)
		h.render(w, r, f)
		return
	}

	redemption, ok, err := h.Gate.Verify(ctx, f.Get("user"), f.Get("code"), h.now())
	if err != nil {
		slogx.FromContext(ctx).Error("login code redemption failed", "error", err)
		writeServerError(w)
		return
	}
	if !ok {
		f.AddNonFieldError(msgInvalidCode)
		h.render(w, r, f)
		return
	}

	if err := h.Sessions.Start(w, redemption.User); err != nil {
		slogx.FromContext(ctx).Error("start session failed",
			slog.String("user_id", redemption.User.ID),
			"error", err,
		)
		writeServerError(w)
		return
	}

	target := safeRedirect(redemption.RedirectTarget, safeRedirect(h.Options.LoginRedirectURL, "/"))
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *LoginCodeHandler) render(w http.ResponseWriter, r *http.Request, f *form) {
	err := render(w, "login_code", pageData{
		Title:    "Enter login code",
		SiteName: h.Options.SiteName,
		Form:     f,
	})
	if err != nil {
		slogx.FromContext(r.Context()).Error("render login code page", "error", err)
	}
}
