package dogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/domain/page"
	"vet-cardio-screening/internal/ports/auth"

	"github.com/google/uuid"
)

// OwnerDirectory valida que el propietario exista antes de colgarle un perro.
type OwnerDirectory interface {
	OwnerExists(ctx context.Context, ownerID string) (bool, error)
}

type Service struct {
	repo   Repository
	owners OwnerDirectory
	now    func() time.Time

	defaultPageSize int
	maxPageSize     int
}

func NewService(repo Repository, owners OwnerDirectory, defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &Service{
		repo:            repo,
		owners:          owners,
		now:             time.Now,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

type CreateInput struct {
	Nombre          string
	Especie         string
	Raza            string
	Sexo            string
	Estado          string
	FechaNacimiento *time.Time
}

type UpdateInput struct {
	// Punteros: nil = no tocar. OwnerID no se puede cambiar nunca.
	Nombre          *string
	Especie         *string
	Raza            *string
	Sexo            *string
	Estado          *string
	FechaNacimiento *time.Time
}

func (s *Service) ListByOwner(ctx context.Context, role auth.Role, ownerID, search string, p page.Params) ([]Dog, int, error) {
	if _, ok := auth.ParseRole(string(role)); !ok {
		return nil, 0, fmt.Errorf("%w: unresolved role", apperr.ErrUnauthorized)
	}
	ownerID = strings.TrimSpace(ownerID)
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return nil, 0, err
	}
	p = page.Normalize(p, s.defaultPageSize, s.maxPageSize)
	return s.repo.ListByOwner(ctx, ownerID, strings.TrimSpace(search), p)
}

func (s *Service) GetByID(ctx context.Context, role auth.Role, id string) (Dog, error) {
	if _, ok := auth.ParseRole(string(role)); !ok {
		return Dog{}, fmt.Errorf("%w: unresolved role", apperr.ErrUnauthorized)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Dog{}, fmt.Errorf("%w: dog id required", apperr.ErrInvalid)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, role auth.Role, ownerID string, in CreateInput) (Dog, error) {
	if err := requireAssistant(role); err != nil {
		return Dog{}, err
	}

	ownerID = strings.TrimSpace(ownerID)
	in.Nombre = strings.TrimSpace(in.Nombre)
	if in.Nombre == "" {
		return Dog{}, fmt.Errorf("%w: nombre requerido", apperr.ErrInvalid)
	}
	if err := s.requireOwner(ctx, ownerID); err != nil {
		return Dog{}, err
	}

	estado := Estado(strings.TrimSpace(in.Estado))
	if estado == "" {
		estado = EstadoVivo
	}

	now := s.now()
	d := Dog{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Nombre:          in.Nombre,
		Especie:         strings.TrimSpace(in.Especie),
		Raza:            strings.TrimSpace(in.Raza),
		Sexo:            Sexo(strings.TrimSpace(in.Sexo)),
		Estado:          estado,
		FechaNacimiento: in.FechaNacimiento,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return Dog{}, err
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, role auth.Role, ownerID, id string, in UpdateInput) (Dog, error) {
	if err := requireAssistant(role); err != nil {
		return Dog{}, err
	}

	current, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Dog{}, err
	}
	if current.OwnerID != strings.TrimSpace(ownerID) {
		return Dog{}, fmt.Errorf("%w: dog does not belong to owner", apperr.ErrNotFound)
	}

	if in.Nombre != nil {
		current.Nombre = strings.TrimSpace(*in.Nombre)
	}
	if in.Especie != nil {
		current.Especie = strings.TrimSpace(*in.Especie)
	}
	if in.Raza != nil {
		current.Raza = strings.TrimSpace(*in.Raza)
	}
	if in.Sexo != nil {
		current.Sexo = Sexo(strings.TrimSpace(*in.Sexo))
	}
	if in.Estado != nil {
		current.Estado = Estado(strings.TrimSpace(*in.Estado))
	}
	if in.FechaNacimiento != nil {
		current.FechaNacimiento = in.FechaNacimiento
	}

	if current.Nombre == "" {
		return Dog{}, fmt.Errorf("%w: nombre no puede quedar vacío", apperr.ErrInvalid)
	}

	current.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, current); err != nil {
		return Dog{}, err
	}
	return current, nil
}

func (s *Service) Delete(ctx context.Context, role auth.Role, ownerID, id string) error {
	if err := requireAssistant(role); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if current.OwnerID != strings.TrimSpace(ownerID) {
		return fmt.Errorf("%w: dog does not belong to owner", apperr.ErrNotFound)
	}
	return s.repo.Delete(ctx, current.ID)
}

// CountByOwner implementa owners.DogCounter.
func (s *Service) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return s.repo.CountByOwner(ctx, strings.TrimSpace(ownerID))
}

// DogExists implementa evaluations.DogDirectory.
func (s *Service) DogExists(ctx context.Context, dogID string) (bool, error) {
	_, err := s.repo.GetByID(ctx, strings.TrimSpace(dogID))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) requireOwner(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("%w: owner id required", apperr.ErrInvalid)
	}
	if s.owners == nil {
		return nil
	}
	ok, err := s.owners.OwnerExists(ctx, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: owner %s", apperr.ErrNotFound, ownerID)
	}
	return nil
}

func requireAssistant(role auth.Role) error {
	if _, ok := auth.ParseRole(string(role)); !ok {
		return fmt.Errorf("%w: unresolved role", apperr.ErrUnauthorized)
	}
	if role != auth.RoleAssistant {
		return fmt.Errorf("%w: solo el rol asistente gestiona el catálogo", apperr.ErrForbidden)
	}
	return nil
}

// NormalizePage expone la normalización para que el handler devuelva
// los valores efectivos de paginación.
func (s *Service) NormalizePage(p page.Params) page.Params {
	return page.Normalize(p, s.defaultPageSize, s.maxPageSize)
}
