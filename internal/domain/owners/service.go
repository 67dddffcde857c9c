package owners

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

// DogCounter expone cuántos perros tiene un propietario.
// Interfaz chica para no importar el módulo dogs (ciclo owners <-> dogs).
type DogCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

type Service struct {
	repo Repository
	dogs DogCounter
	now  func() time.Time

	defaultPageSize int
	maxPageSize     int
}

func NewService(repo Repository, defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &Service{
		repo:            repo,
		now:             time.Now,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// SetDogCounter se inyecta después de construir ambos servicios
// (dogs necesita owners para validar y owners necesita dogs para borrar).
func (s *Service) SetDogCounter(dc DogCounter) { s.dogs = dc }

type CreateInput struct {
	Nombres         string
	Apellidos       string
	DNI             string
	Celular         string
	Correo          string
	Direccion       string
	Sexo            string
	FechaNacimiento *time.Time
}

type UpdateInput struct {
	// Punteros: nil = no tocar.
	Nombres         *string
	Apellidos       *string
	DNI             *string
	Celular         *string
	Correo          *string
	Direccion       *string
	Sexo            *string
	FechaNacimiento *time.Time
}

func (s *Service) List(ctx context.Context, role auth.Role, search string, p page.Params) ([]Owner, int, error) {
	if _, ok := auth.ParseRole(string(role)); !ok {
		return nil, 0, fmt.Errorf("%w: unresolved role", apperr.ErrUnauthorized)
	}
	p = page.Normalize(p, s.defaultPageSize, s.maxPageSize)
	return s.repo.List(ctx, strings.TrimSpace(search), p)
}

func (s *Service) GetByID(ctx context.Context, role auth.Role, id string) (Owner, error) {
	if _, ok := auth.ParseRole(string(role)); !ok {
		return Owner{}, fmt.Errorf("%w: unresolved role", apperr.ErrUnauthorized)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Owner{}, fmt.Errorf("%w: owner id required", apperr.ErrInvalid)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, role auth.Role, in CreateInput) (Owner, error) {
	if err := requireAssistant(role); err != nil {
		return Owner{}, err
	}

	in.Nombres = strings.TrimSpace(in.Nombres)
	in.Apellidos = strings.TrimSpace(in.Apellidos)
	in.DNI = strings.TrimSpace(in.DNI)
	in.Correo = strings.TrimSpace(in.Correo)
	if in.Nombres == "" || in.Apellidos == "" || in.DNI == "" || in.Correo == "" {
		return Owner{}, fmt.Errorf("%w: nombres, apellidos, dni y correo son requeridos", apperr.ErrInvalid)
	}

	now := s.now()
	o := Owner{
		ID:              uuid.NewString(),
		Nombres:         in.Nombres,
		Apellidos:       in.Apellidos,
		DNI:             in.DNI,
		Celular:         strings.TrimSpace(in.Celular),
		Correo:          in.Correo,
		Direccion:       strings.TrimSpace(in.Direccion),
		Sexo:            Sexo(strings.TrimSpace(in.Sexo)),
		FechaNacimiento: in.FechaNacimiento,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

func (s *Service) Update(ctx context.Context, role auth.Role, id string, in UpdateInput) (Owner, error) {
	if err := requireAssistant(role); err != nil {
		return Owner{}, err
	}

	current, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Owner{}, err
	}

	if in.Nombres != nil {
		current.Nombres = strings.TrimSpace(*in.Nombres)
	}
	if in.Apellidos != nil {
		current.Apellidos = strings.TrimSpace(*in.Apellidos)
	}
	if in.DNI != nil {
		current.DNI = strings.TrimSpace(*in.DNI)
	}
	if in.Celular != nil {
		current.Celular = strings.TrimSpace(*in.Celular)
	}
	if in.Correo != nil {
		current.Correo = strings.TrimSpace(*in.Correo)
	}
	if in.Direccion != nil {
		current.Direccion = strings.TrimSpace(*in.Direccion)
	}
	if in.Sexo != nil {
		current.Sexo = Sexo(strings.TrimSpace(*in.Sexo))
	}
	if in.FechaNacimiento != nil {
		current.FechaNacimiento = in.FechaNacimiento
	}

	if current.Nombres == "" || current.Apellidos == "" || current.DNI == "" || current.Correo == "" {
		return Owner{}, fmt.Errorf("%w: nombres, apellidos, dni y correo no pueden quedar vacíos", apperr.ErrInvalid)
	}

	current.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, current); err != nil {
		return Owner{}, err
	}
	return current, nil
}

// Delete rechaza con conflicto mientras el propietario tenga perros:
// borrar en cascada destruiría historia clínica en silencio.
func (s *Service) Delete(ctx context.Context, role auth.Role, id string) error {
	if err := requireAssistant(role); err != nil {
		return err
	}

	id = strings.TrimSpace(id)
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if s.dogs != nil {
		n, err := s.dogs.CountByOwner(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: el propietario tiene %d perro(s) registrados", apperr.ErrConflict, n)
		}
	}

	return s.repo.Delete(ctx, id)
}

// OwnerExists implementa dogs.OwnerDirectory.
func (s *Service) OwnerExists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
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
