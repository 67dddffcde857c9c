package evaluations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/domain/page"
	"vet-cardio-screening/internal/ports/auth"

	"github.com/google/uuid"
)

// DogDirectory valida que el paciente exista antes de escribir historia.
type DogDirectory interface {
	DogExists(ctx context.Context, dogID string) (bool, error)
}

type Service struct {
	repo Repository
	dogs DogDirectory
	now  func() time.Time

	defaultPageSize int
	maxPageSize     int
}

func NewService(repo Repository, dogs DogDirectory, defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &Service{
		repo:            repo,
		dogs:            dogs,
		now:             time.Now,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Append asigna identidad y timestamp y escribe el registro. La idemKey la
// genera quien confirma (una por intento de confirmación del workflow);
// reintentar con la misma clave no duplica la evaluación.
func (s *Service) Append(ctx context.Context, dogID string, resultado Resultado, comentarios, idemKey string) (Evaluation, error) {
	dogID = strings.TrimSpace(dogID)
	if dogID == "" {
		return Evaluation{}, fmt.Errorf("%w: dog id required", apperr.ErrInvalid)
	}
	idemKey = strings.TrimSpace(idemKey)
	if idemKey == "" {
		return Evaluation{}, fmt.Errorf("%w: idempotency key required", apperr.ErrInvalid)
	}
	switch resultado {
	case ResultadoNormal, ResultadoModerado, ResultadoAlto:
	default:
		return Evaluation{}, fmt.Errorf("%w: resultado desconocido %q", apperr.ErrInvalid, resultado)
	}

	if s.dogs != nil {
		ok, err := s.dogs.DogExists(ctx, dogID)
		if err != nil {
			return Evaluation{}, err
		}
		if !ok {
			return Evaluation{}, fmt.Errorf("%w: dog %s no existe", apperr.ErrInvalid, dogID)
		}
	}

	return s.repo.Append(ctx, Evaluation{
		ID:          uuid.NewString(),
		DogID:       dogID,
		Fecha:       s.now(),
		Resultado:   resultado,
		Comentarios: strings.TrimSpace(comentarios),
		IdemKey:     idemKey,
	})
}

func (s *Service) ListByDog(ctx context.Context, role auth.Role, dogID string, p page.Params) ([]Evaluation, int, error) {
	if _, ok := auth.ParseRole(string(role)); !ok {
		return nil, 0, fmt.Errorf("%w: unresolved role", apperr.ErrUnauthorized)
	}
	dogID = strings.TrimSpace(dogID)
	if dogID == "" {
		return nil, 0, fmt.Errorf("%w: dog id required", apperr.ErrInvalid)
	}
	if s.dogs != nil {
		ok, err := s.dogs.DogExists(ctx, dogID)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, fmt.Errorf("%w: dog %s", apperr.ErrNotFound, dogID)
		}
	}
	p = page.Normalize(p, s.defaultPageSize, s.maxPageSize)
	return s.repo.ListByDog(ctx, dogID, p)
}

// NormalizePage expone la normalización para que el handler devuelva
// los valores efectivos de paginación.
func (s *Service) NormalizePage(p page.Params) page.Params {
	return page.Normalize(p, s.defaultPageSize, s.maxPageSize)
}
