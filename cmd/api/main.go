package main

import (
	"net/http"
	"os"
	"time"

	"vet-cardio-screening/internal/adapters/auth/iam"
	"vet-cardio-screening/internal/adapters/inference/acvim"
	"vet-cardio-screening/internal/platform/config"
	"vet-cardio-screening/internal/platform/logger"
	"vet-cardio-screening/internal/ports/auth"
	"vet-cardio-screening/internal/router"
)

// @title Vet Cardio Screening API
// @version 1.0
// @description Catálogo de propietarios y pacientes con tamizaje cardiaco por audio.
// @BasePath /
func main() {
	cfg := config.FromEnv()
	log := logger.NewFromEnv()

	// Verifier real solo si hay IAM configurado; sin él corre en modo dev
	// (headers X-Debug-User-ID / X-Debug-Role).
	var verifier auth.AuthVerifier
	if cfg.IAMBaseURL != "" {
		client, err := iam.NewClient(iam.Config{
			BaseURL: cfg.IAMBaseURL,
			APIKey:  cfg.IAMAPIKey,
		})
		if err != nil {
			log.Error("iam client", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		verifier = iam.NewVerifier(client)
	}

	infer, err := acvim.NewClient(acvim.Config{
		BaseURL: cfg.InferenceBaseURL,
		Timeout: cfg.InferenceTimeout,
	})
	if err != nil {
		log.Error("inference client", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	r := router.NewRouter(router.Options{
		Cfg:          cfg,
		Log:          log,
		AuthVerifier: verifier,
		Inference:    infer,
	})

	addr := ":" + cfg.Port

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second, // los uploads de audio pueden demorar
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
