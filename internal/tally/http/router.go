package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/internal/tally/store"
	"github.com/morninghq/tally/pkg/httpx"
	"github.com/morninghq/tally/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AccountService      *service.AccountService
	SessionService      *service.SessionService
	AdminSessionService *service.AdminSessionService
	VerificationService *service.VerificationService
	LedgerService       *service.LedgerService
	ReportingService    *service.ReportingService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
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
	r.registerPublic()
	r.registerAccount()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPublic() {
	// POST /api/send-code - strict limit by IP; every hit can send mail
	sendCode := &SendCodeHandler{VerificationService: r.VerificationService}
	r.Mux.Handle("POST /api/send-code",
		httpx.Chain(sendCode,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /api/register - strict limit by IP (account creation)
	register := &RegisterHandler{AccountService: r.AccountService}
	r.Mux.Handle("POST /api/register",
		httpx.Chain(register,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Captcha issue endpoints - lenient, they only mint a challenge row
	captcha := &CaptchaHandler{VerificationService: r.VerificationService}
	r.Mux.Handle("GET /api/login-captcha",
		httpx.Chain(http.HandlerFunc(captcha.HandleJSON),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /api/login-captcha.svg",
		httpx.Chain(http.HandlerFunc(captcha.HandleSVG),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /api/login - strict limit by IP (brute force prevention)
	login := &LoginHandler{AccountService: r.AccountService}
	r.Mux.Handle("POST /api/login",
		httpx.Chain(login,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAccount() {
	auth := SessionAuthMiddleware(r.SessionService)

	logout := &LogoutHandler{AccountService: r.AccountService}
	r.Mux.Handle("POST /api/logout",
		httpx.Chain(logout,
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	me := &MeHandler{}
	r.Mux.Handle("GET /api/me",
		httpx.Chain(me,
			auth,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	transactions := &TransactionsHandler{LedgerService: r.LedgerService}
	r.Mux.Handle("GET /api/transactions",
		httpx.Chain(transactions,
			auth,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	ledger := &LedgerHandler{LedgerService: r.LedgerService}
	r.Mux.Handle("POST /api/recharge",
		httpx.Chain(http.HandlerFunc(ledger.HandleRecharge),
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/consume",
		httpx.Chain(http.HandlerFunc(ledger.HandleConsume),
			auth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		AdminSessionService: r.AdminSessionService,
		ReportingService:    r.ReportingService,
	}

	// POST /api/admin/login - strict limit by IP (shared credential)
	r.Mux.Handle("POST /api/admin/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	adminAuth := AdminAuthMiddleware(r.AdminSessionService)

	r.Mux.Handle("POST /api/admin/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			adminAuth,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/admin/users",
		httpx.Chain(http.HandlerFunc(h.HandleListUsers),
			adminAuth,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/admin/transactions",
		httpx.Chain(http.HandlerFunc(h.HandleListTransactions),
			adminAuth,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/admin/export",
		httpx.Chain(http.HandlerFunc(h.HandleExport),
			adminAuth,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
