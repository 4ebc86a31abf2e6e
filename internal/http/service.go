package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	apicontract "github.com/tuanvumaihuynh/orderdesk/api-contract"
	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/http/apierr"
	"github.com/tuanvumaihuynh/orderdesk/internal/http/metric"
	"github.com/tuanvumaihuynh/orderdesk/internal/http/middleware"
	"github.com/tuanvumaihuynh/orderdesk/internal/http/swagger"
	"github.com/tuanvumaihuynh/orderdesk/internal/service"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
	"github.com/tuanvumaihuynh/orderdesk/pkg/validator"
)

var tracer = otel.Tracer("internal/http")

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth            service.AuthService
	Users           service.UserService
	Locations       service.LocationService
	Delivery        service.DeliveryService
	Products        service.ProductService
	Orders          service.OrderService
	ShippingAccount service.ShippingAccountService
	Imports         service.ImportService
	Reports         service.ReportService
}

// Service represents the HTTP service.
type Service struct {
	cfg       config.HTTP
	logger    *slog.Logger
	metrics   *metric.Metrics
	gatherer  prometheus.Gatherer
	validator validator.Validator
	health    db.HealthChecker

	authSvc            service.AuthService
	userSvc            service.UserService
	locationSvc        service.LocationService
	deliverySvc        service.DeliveryService
	productSvc         service.ProductService
	orderSvc           service.OrderService
	shippingAccountSvc service.ShippingAccountService
	importSvc          service.ImportService
	reportSvc          service.ReportService
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	log *slog.Logger,
	reg *prometheus.Registry,
	health db.HealthChecker,
	svcs Services,
) *Service {
	return &Service{
		cfg:       cfg,
		logger:    log.With(slog.String("service", "http")),
		metrics:   metric.New(reg),
		gatherer:  reg,
		validator: validator.MustNewDefaultValidator(),
		health:    health,

		authSvc:            svcs.Auth,
		userSvc:            svcs.Users,
		locationSvc:        svcs.Locations,
		deliverySvc:        svcs.Delivery,
		productSvc:         svcs.Products,
		orderSvc:           svcs.Orders,
		shippingAccountSvc: svcs.ShippingAccount,
		importSvc:          svcs.Imports,
		reportSvc:          svcs.Reports,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	handler, err := s.Handler()
	if err != nil {
		return nil, err
	}

	return s.RunWithServer(ctx, handler)
}

// Handler builds the router with every middleware and route registered.
func (s *Service) Handler() (http.Handler, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		swagger.Register(r)
	}

	if err := s.RegisterHandlers(r); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	s.logger.InfoContext(ctx, "http server listening", slog.String("addr", srv.Addr))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		chimiddleware.RealIP,
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(s.cfg.AllowedOrigins),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) error {
	r.Get("/healthz", s.wrap(s.healthz))
	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))

	var contract func(http.Handler) http.Handler
	if s.cfg.ValidateRequests {
		v, err := middleware.OpenAPIValidator(apicontract.GetSpecBytes(), s.handleRequestError)
		if err != nil {
			return fmt.Errorf("openapi validator: %w", err)
		}
		contract = v
	}

	r.Group(func(r chi.Router) {
		if contract != nil {
			r.Use(contract)
		}

		r.Post("/auth/login", s.wrap(s.login))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.authSvc, s.handleResponseError))
			s.registerAPI(r)
		})
	})

	return nil
}

// registerAPI mounts every authenticated route with its permission.
func (s *Service) registerAPI(r chi.Router) {
	can := func(p auth.Permission) func(http.Handler) http.Handler {
		return middleware.RequirePermission(p, s.handleResponseError)
	}

	r.Post("/auth/logout", s.wrap(s.logout))
	r.Post("/auth/heartbeat", s.wrap(s.heartbeat))
	r.Get("/auth/me", s.wrap(s.me))
	r.Get("/presence", s.wrap(s.onlineUsers))
	r.Get("/permissions", s.wrap(s.listPermissions))

	r.Get("/wilayas", s.wrap(s.listWilayas))
	r.Get("/wilayas/{id}", s.wrap(s.getWilaya))
	r.Get("/wilayas/{id}/baladias", s.wrap(s.listBaladias))
	r.With(can(auth.PermLocationsWrite)).Put("/wilayas/{id}/baladias", s.wrap(s.upsertBaladias))
	r.Get("/locations/resolve", s.wrap(s.resolveLocation))

	r.Route("/delivery", func(r chi.Router) {
		r.With(can(auth.PermOrdersRead)).Get("/quote", s.wrap(s.quoteDelivery))
		r.With(can(auth.PermOrdersRead)).Get("/prices", s.wrap(s.listDeliveryPrices))
		r.With(can(auth.PermDeliveryWrite)).Put("/prices", s.wrap(s.setDeliveryPrice))
		r.With(can(auth.PermDeliveryWrite)).Delete("/prices", s.wrap(s.deleteDeliveryPrice))
	})

	r.Route("/products", func(r chi.Router) {
		r.With(can(auth.PermProductsRead)).Get("/", s.wrap(s.listProducts))
		r.With(can(auth.PermProductsWrite)).Post("/", s.wrap(s.createProduct))
		r.With(can(auth.PermProductsRead)).Get("/low-stock", s.wrap(s.listLowStock))
		r.With(can(auth.PermProductsRead)).Get("/{id}", s.wrap(s.getProduct))
		r.With(can(auth.PermProductsWrite)).Patch("/{id}", s.wrap(s.updateProduct))
		r.With(can(auth.PermStockWrite)).Post("/{id}/stock", s.wrap(s.adjustStock))
		r.With(can(auth.PermProductsRead)).Get("/{id}/movements", s.wrap(s.listMovements))
	})

	r.Route("/orders", func(r chi.Router) {
		r.With(can(auth.PermOrdersRead)).Get("/", s.wrap(s.listOrders))
		r.With(can(auth.PermOrdersWrite)).Post("/", s.wrap(s.createOrder))
		r.With(can(auth.PermOrdersRead)).Get("/{id}", s.wrap(s.getOrder))
		r.With(can(auth.PermOrdersWrite)).Patch("/{id}", s.wrap(s.updateOrder))
		r.With(can(auth.PermOrdersStatus)).Post("/{id}/status", s.wrap(s.changeOrderStatus))
		r.With(can(auth.PermOrdersShip)).Post("/{id}/ship", s.wrap(s.shipOrder))
		r.With(can(auth.PermOrdersShip)).Post("/{id}/dispatch", s.wrap(s.markDispatched))
		r.With(can(auth.PermOrdersShip)).Post("/{id}/tracking/refresh", s.wrap(s.refreshTracking))
	})

	r.Route("/shipping/accounts", func(r chi.Router) {
		r.Use(can(auth.PermShippingAdmin))
		r.Get("/", s.wrap(s.listShippingAccounts))
		r.Post("/", s.wrap(s.createShippingAccount))
		r.Get("/{id}", s.wrap(s.getShippingAccount))
		r.Patch("/{id}", s.wrap(s.updateShippingAccount))
		r.Delete("/{id}", s.wrap(s.deleteShippingAccount))
	})

	r.With(can(auth.PermImportsRun)).Post("/imports/sheets", s.wrap(s.importSheet))
	r.With(can(auth.PermReportsRead)).Get("/reports/summary", s.wrap(s.reportSummary))

	r.Group(func(r chi.Router) {
		r.Use(can(auth.PermUsersAdmin))
		r.Get("/users", s.wrap(s.listUsers))
		r.Post("/users", s.wrap(s.createUser))
		r.Get("/users/{id}", s.wrap(s.getUser))
		r.Put("/users/{id}/role", s.wrap(s.setUserRole))
		r.Put("/users/{id}/active", s.wrap(s.setUserActive))
		r.Get("/roles", s.wrap(s.listRoles))
		r.Post("/roles", s.wrap(s.createRole))
		r.Get("/roles/{id}", s.wrap(s.getRole))
		r.Put("/roles/{id}/permissions", s.wrap(s.setRolePermissions))
	})
}

func (s *Service) handleRequestError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)
	if res.StatusCode >= 500 {
		res = apierr.New(apperr.ValidationErr.WithMsg("%s", err.Error()).WrapParent(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.WarnContext(r.Context(), "error encoding error request",
			slog.Any("error", err))
	}
}

func (s *Service) handleResponseError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}
