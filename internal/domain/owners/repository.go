package owners

import (
	"context"

	"vet-cardio-screening/internal/domain/page"
)

// Repository persiste propietarios. El orden de listado es el de inserción
// y debe ser estable entre llamadas sobre el mismo dataset.
type Repository interface {
	Create(ctx context.Context, o Owner) error // apperr.ErrConflict si el DNI ya existe
	Update(ctx context.Context, o Owner) error // apperr.ErrNotFound / ErrConflict
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Owner, error)

	// List filtra por substring case-insensitive (OR sobre nombres,
	// apellidos, dni y celular) y devuelve la página más el total.
	List(ctx context.Context, search string, p page.Params) ([]Owner, int, error)
}
