package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config concentra todo lo que antes estaba repartido en lecturas sueltas de env.
// Los umbrales clínicos y los límites de paginación son configurables a propósito:
// no se decidió todavía el corte definitivo Moderado/Alto con cardiología.
type Config struct {
	Port  string
	DBDSN string

	DefaultPageSize int
	MaxPageSize     int

	// Grado de soplo (I..VI) a partir del cual un paciente de riesgo
	// se clasifica como "Alto Riesgo".
	MurmurGradeThreshold int

	InferenceBaseURL     string
	InferenceTimeout     time.Duration
	InferenceMaxAttempts int
	BackoffBase          time.Duration
	BackoffMax           time.Duration

	IAMBaseURL string
	IAMAPIKey  string
}

func FromEnv() Config {
	return Config{
		Port:  envStr("PORT", "8080"),
		DBDSN: os.Getenv("DB_DSN"),

		DefaultPageSize: envInt("DEFAULT_PAGE_SIZE", 10),
		MaxPageSize:     envInt("MAX_PAGE_SIZE", 100),

		MurmurGradeThreshold: envInt("MURMUR_GRADE_THRESHOLD", 4),

		InferenceBaseURL:     envStr("INFERENCE_BASE_URL", "http://localhost:5000"),
		InferenceTimeout:     envDur("INFERENCE_TIMEOUT", 15*time.Second),
		InferenceMaxAttempts: envInt("INFERENCE_MAX_ATTEMPTS", 3),
		BackoffBase:          envDur("INFERENCE_BACKOFF_BASE", 500*time.Millisecond),
		BackoffMax:           envDur("INFERENCE_BACKOFF_MAX", 5*time.Second),

		IAMBaseURL: os.Getenv("IAM_BASE_URL"),
		IAMAPIKey:  os.Getenv("IAM_API_KEY"),
	}
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
