package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stakeline/stakeline-backend/api/controllers"
	"github.com/stakeline/stakeline-backend/api/middleware"
	"github.com/stakeline/stakeline-backend/internal/notifications"
	"github.com/stakeline/stakeline-backend/internal/tip"
	"github.com/stakeline/stakeline-backend/internal/vault"
	"github.com/stakeline/stakeline-backend/internal/wallet"
	"github.com/stakeline/stakeline-backend/pkg/auth"
	"github.com/stakeline/stakeline-backend/pkg/config"
	"github.com/stakeline/stakeline-backend/pkg/logger"
	"github.com/stakeline/stakeline-backend/pkg/redis"
)

// Services bundles the domain surfaces the router exposes.
type Services struct {
	Wallet        wallet.Service
	Vault         vault.Service
	Tip           tip.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	tipPolicy := middleware.NewRateLimitPolicy(
		"tip",
		cfg.RateLimit.TipWindow,
		cfg.RateLimit.TipIPLimit,
		cfg.RateLimit.TipUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": dbPinger,
			"redis":    redisClient,
		}))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/balance", func(r chi.Router) {
			r.Get("/", controllers.ListWallets(svcs.Wallet, logg))
			r.Post("/deposit", controllers.Deposit(svcs.Wallet, logg))
			r.Post("/withdraw", controllers.Withdraw(svcs.Wallet, logg))
			r.Post("/primary", controllers.SwitchPrimary(svcs.Wallet, logg))

			// Game servers settle bets here; corrections additionally
			// require the admin role inside the controller.
			r.Route("/operations", func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, string(auth.RoleService), string(auth.RoleAdmin)))
				r.Post("/", controllers.PerformOperation(svcs.Wallet, logg))
				r.Post("/batch", controllers.PerformBatch(svcs.Wallet, logg))
			})

			r.Get("/{asset}", controllers.GetBalance(svcs.Wallet, logg))
			r.Get("/{asset}/history", controllers.ListBalanceHistory(svcs.Wallet, logg))
		})

		r.Route("/vault", func(r chi.Router) {
			r.Post("/deposit", controllers.VaultDeposit(svcs.Vault, logg))
			r.Post("/withdraw", controllers.VaultWithdraw(svcs.Vault, logg))
			r.Get("/{asset}", controllers.GetVaultBalance(svcs.Vault, logg))
			r.Get("/{asset}/history", controllers.ListVaultHistory(svcs.Vault, logg))
		})

		r.With(middleware.RateLimit(tipPolicy, redisClient, logg)).
			Post("/tips", controllers.SendTip(svcs.Tip, logg))

		r.Get("/statistics", controllers.GetStatistics(svcs.Wallet, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{id}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	return r
}
