package router

import (
	"database/sql"
	"net/http"
	"time"

	mem "elearning-access/internal/adapters/storage/memory"
	pg "elearning-access/internal/adapters/storage/postgres"
	"elearning-access/internal/domain/access"
	"elearning-access/internal/domain/enrollments"
	"elearning-access/internal/middleware"
	"elearning-access/internal/platform/logger"
	"elearning-access/internal/platform/ratelimit"
	ratemem "elearning-access/internal/platform/ratelimit/memory"
	"elearning-access/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Bucket del rate limit de las mutaciones admin sobre el acceso.
const AdminAccessBucket = "admin_access"

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: default limiter in-memory (30/min por admin).
	Limiter ratelimit.Limiter

	// Opcional: default reloj del sistema. Los tests inyectan uno fijo.
	Clock access.Clock

	Logger logger.Logger
}

// NewRouter arma el handler HTTP y devuelve también el servicio de enrollments
// para que main pueda colgarle jobs (recordatorios).
func NewRouter(opts Options) (http.Handler, *enrollments.Service) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	r.Use(middleware.RequestLog(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var enrollRepo enrollments.Repository
	if opts.DB != nil {
		enrollRepo = pg.NewEnrollmentsRepo(opts.DB)
	} else {
		enrollRepo = mem.NewEnrollmentsRepo()
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratemem.New(map[string]ratelimit.Limit{
			AdminAccessBucket: {Limit: 30, Window: time.Minute},
		})
	}

	enrollSvc := enrollments.NewService(enrollRepo, opts.Clock, log.With(map[string]any{"module": "enrollments"}))

	enrollments.RegisterRoutes(r, enrollSvc, enrollments.RouteOptions{
		AdminMiddlewares: []func(http.Handler) http.Handler{
			middleware.RateLimit(limiter, AdminAccessBucket, log),
		},
	})

	return r, enrollSvc
}
