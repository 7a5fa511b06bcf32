package router

import (
	"net/http"

	_ "pet-adoption/docs"
	"pet-adoption/internal/adapters/settlement/stub"
	mem "pet-adoption/internal/adapters/storage/memory"
	"pet-adoption/internal/domain/applog"
	"pet-adoption/internal/domain/lifecycle"
	"pet-adoption/internal/middleware"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"
	"pet-adoption/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si no viene, arma un coordinador in-memory con el proveedor stub.
	Coordinator *lifecycle.Coordinator

	Logger  logger.Logger
	Metrics *metrics.Metrics
	// AppLogs recibe una entrada por request (opcional).
	AppLogs *applog.Recorder
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	coord := opts.Coordinator
	rec := opts.AppLogs
	if coord == nil {
		store := mem.New()
		coord = lifecycle.New(lifecycle.Options{
			Store:    store,
			Provider: stub.New(),
			Logger:   log,
			Metrics:  m,
		})
		if rec == nil {
			rec = applog.NewRecorder(store.AppLogs(), log, m.AppLogFailures)
		}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Trace)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	r.Use(middleware.RequestLog(log, rec, m, "/health", "/metrics"))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	lifecycle.RegisterRoutes(r, coord)

	return r
}
