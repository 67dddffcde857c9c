package dogs

import (
	"context"

	"vet-cardio-screening/internal/domain/page"
)

type Repository interface {
	Create(ctx context.Context, d Dog) error
	Update(ctx context.Context, d Dog) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Dog, error)

	// ListByOwner filtra por substring case-insensitive sobre nombre y raza,
	// en orden de inserción estable.
	ListByOwner(ctx context.Context, ownerID, search string, p page.Params) ([]Dog, int, error)

	CountByOwner(ctx context.Context, ownerID string) (int, error)
}
