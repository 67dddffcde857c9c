package router

import (
	"database/sql"
	"net/http"

	mem "vet-cardio-screening/internal/adapters/storage/memory"
	pg "vet-cardio-screening/internal/adapters/storage/postgres"
	"vet-cardio-screening/internal/domain/dogs"
	"vet-cardio-screening/internal/domain/evaluations"
	"vet-cardio-screening/internal/domain/owners"
	"vet-cardio-screening/internal/middleware"
	"vet-cardio-screening/internal/platform/config"
	"vet-cardio-screening/internal/platform/logger"
	"vet-cardio-screening/internal/ports/auth"
	"vet-cardio-screening/internal/ports/inference"

	_ "vet-cardio-screening/docs" // spec generado por swag

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Cfg config.Config
	Log logger.Logger

	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Cliente de inferencia; obligatorio para el workflow de evaluación.
	Inference inference.Client

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
}

func NewRouter(opts Options) http.Handler {
	cfg := opts.Cfg
	log := opts.Log
	if log == nil {
		log = logger.Nop{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		ownerRepo owners.Repository
		dogRepo   dogs.Repository
		evalRepo  evaluations.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil && cfg.DBDSN != "" {
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("postgres no disponible, usando memoria", map[string]any{"error": err.Error()})
		} else {
			db = opened
		}
	}

	if db != nil {
		ownerRepo = pg.NewOwnersRepo(db)
		dogRepo = pg.NewDogsRepo(db)
		evalRepo = pg.NewEvaluationsRepo(db)
	} else {
		ownerRepo = mem.NewOwnerRepo()
		dogRepo = mem.NewDogRepo()
		evalRepo = mem.NewEvaluationRepo()
	}

	// Services por módulo
	ownersSvc := owners.NewService(ownerRepo, cfg.DefaultPageSize, cfg.MaxPageSize)
	dogsSvc := dogs.NewService(dogRepo, ownersSvc, cfg.DefaultPageSize, cfg.MaxPageSize)
	ownersSvc.SetDogCounter(dogsSvc)

	evalsSvc := evaluations.NewService(evalRepo, dogsSvc, cfg.DefaultPageSize, cfg.MaxPageSize)
	workflow := evaluations.NewWorkflow(opts.Inference, evalsSvc, dogsSvc, evaluations.WorkflowConfig{
		MaxAttempts:    cfg.InferenceMaxAttempts,
		AttemptTimeout: cfg.InferenceTimeout,
		BackoffBase:    cfg.BackoffBase,
		BackoffMax:     cfg.BackoffMax,
		GradeThreshold: cfg.MurmurGradeThreshold,
	}, log)

	// Rutas por módulo
	owners.RegisterRoutes(r, ownersSvc)
	dogs.RegisterRoutes(r, dogsSvc)
	evaluations.RegisterRoutes(r, evalsSvc, workflow)

	return r
}
