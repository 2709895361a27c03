package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/nopass/internal/auth/service"
	"github.com/aussiebroadwan/nopass/internal/auth/session"
	"github.com/aussiebroadwan/nopass/internal/auth/store"
	"github.com/aussiebroadwan/nopass/pkg/httpx"
	"github.com/aussiebroadwan/nopass/pkg/slogx"

	_ "github.com/aussiebroadwan/nopass/api/nopass" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options controls the account pages.
type Options struct {
	SiteName string

	// BaseURL is the public origin used in emailed links. When empty it is
	// derived from the incoming request, provided the Host matches
	// AllowedHosts.
	BaseURL string

	// AllowedHosts lists the Host values a login link may be built from.
	// A leading "." matches subdomains, "*" matches anything.
	AllowedHosts []string

	// LoginOnGet redeems codes on GET. When false a GET only pre-fills and
	// pre-validates the form.
	LoginOnGet bool

	LoginRedirectURL  string
	LogoutRedirectURL string
}

// DefaultOptions returns the reference defaults.
func DefaultOptions() Options {
	return Options{
		SiteName:          "nopass",
		LoginRedirectURL:  "/",
		LogoutRedirectURL: "/accounts/login/",
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	options      Options
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	gate     *service.AuthenticationGate
	sessions *session.Manager
}

func NewRouter(
	gate *service.AuthenticationGate,
	sessions *session.Manager,
	st store.Store,
	options Options,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slogx.Discard()
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		options:      options,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		gate:         gate,
		sessions:     sessions,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerSession()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			nopass Login Code Service API
//	@version		0.1.0
//	@description	Passwordless authentication with single-use, time-limited login codes.
//	@description
//	@description	Codes are requested with a username, delivered by email and redeemed once
//	@description	for a signed session cookie.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/nopass
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	login := &LoginHandler{
		Gate:    r.gate,
		Options: r.options,
	}
	code := &LoginCodeHandler{
		Gate:     r.gate,
		Sessions: r.sessions,
		Options:  r.options,
		Now:      r.gate.Now,
	}
	logout := &LogoutHandler{
		Sessions: r.sessions,
		Options:  r.options,
	}
	sameOrigin := r.crossOriginProtection()

	// Form pages - lenient rate limit
	r.Mux.Handle("GET /accounts/login/",
		httpx.Chain(http.HandlerFunc(login.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /accounts/login/ - strict rate limit by IP + username (each request sends an email)
	r.Mux.Handle("POST /accounts/login/",
		httpx.Chain(http.HandlerFunc(login.HandlePost),
			sameOrigin,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	// GET may redeem when LoginOnGet is set, so it shares the redemption limit.
	r.Mux.Handle("GET /accounts/login/code/",
		httpx.Chain(http.HandlerFunc(code.HandleGet),
			httpx.RateLimitByIPAndFormField(httpx.ModerateLimit, "user"),
		),
	)
	r.Mux.Handle("POST /accounts/login/code/",
		httpx.Chain(http.HandlerFunc(code.HandlePost),
			sameOrigin,
			httpx.RateLimitByIPAndFormField(httpx.ModerateLimit, "user"),
		),
	)

	r.Mux.Handle("GET /accounts/logout/",
		httpx.Chain(logout,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /accounts/logout/",
		httpx.Chain(logout,
			sameOrigin,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

// crossOriginProtection trusts the configured public origin in addition to
// the request's own Host, so a proxy that rewrites Host does not break posts.
func (r *Router) crossOriginProtection() httpx.Middleware {
	var trusted []string
	if u, err := url.Parse(r.options.BaseURL); err == nil && u.Scheme != "" && u.Host != "" {
		trusted = append(trusted, u.Scheme+"://"+u.Host)
	}

	mw, err := httpx.CrossOriginProtection(trusted...)
	if err != nil {
		r.logger.Warn("ignoring base url as trusted origin", "error", err)
		mw, _ = httpx.CrossOriginProtection()
	}
	return mw
}

func (r *Router) registerSession() {
	h := &SessionHandler{Sessions: r.sessions}

	r.Mux.Handle("GET /v1/session",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
