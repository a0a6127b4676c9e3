package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aegis-id/aegis/internal/auth/service"
	"github.com/aegis-id/aegis/internal/auth/store"
	"github.com/aegis-id/aegis/pkg/httpx"
	"github.com/aegis-id/aegis/pkg/jwtx"
	"github.com/aegis-id/aegis/pkg/slogx"

	_ "github.com/aegis-id/aegis/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	LoginService     *service.LoginService
	MFAService       *service.MFAService
	BootstrapService *service.BootstrapService
	AccessTTL        time.Duration
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerMFA()
	r.registerBootstrap()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Aegis Authentication Service API
//	@version		0.1.0
//	@description	Credential verification service with TOTP-based multi-factor
//	@description	authentication. Logins against MFA-enabled accounts return a
//	@description	challenge that must be answered with a TOTP code before an
//	@description	access token is issued.
//
//	@contact.name				Aegis Team
//	@contact.url				https://github.com/aegis-id/aegis
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{
		LoginService: r.LoginService,
		AccessTTL:    r.AccessTTL,
	}

	// POST /login - strict rate limit by IP (password guessing)
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login/mfa - strict rate limit by IP (6-digit codes brute force quickly)
	r.Mux.Handle("POST /v1/login/mfa",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyMFA),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	// POST /mfa/totp/enroll - moderate rate limit by user
	securedEnroll := httpx.Chain(http.HandlerFunc(h.HandleEnroll),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// POST /mfa/totp/confirm - strict rate limit by user (prevent brute force of TOTP codes)
	securedConfirm := httpx.Chain(http.HandlerFunc(h.HandleConfirm),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.StrictLimit),
	)

	// GET /mfa/totp - lenient rate limit by user
	securedStatus := httpx.Chain(http.HandlerFunc(h.HandleStatus),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	// DELETE /mfa/totp - moderate rate limit by user
	securedRevoke := httpx.Chain(http.HandlerFunc(h.HandleRevoke),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/mfa/totp/enroll", securedEnroll)
	r.Mux.Handle("POST /v1/mfa/totp/confirm", securedConfirm)
	r.Mux.Handle("GET /v1/mfa/totp", securedStatus)
	r.Mux.Handle("DELETE /v1/mfa/totp", securedRevoke)
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - very strict rate limit by IP (one-time setup endpoint)
	bootstrapHandler := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(bootstrapHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
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
