package evaluations

import (
	"context"

	"vet-cardio-screening/internal/domain/page"
)

// Repository es historia clínica append-only: no expone update ni delete.
type Repository interface {
	// Append persiste la evaluación. Es idempotente sobre (DogID, IdemKey):
	// si ya existe un registro con esa clave devuelve el registro original
	// sin crear un duplicado.
	Append(ctx context.Context, e Evaluation) (Evaluation, error)

	// ListByDog devuelve la página pedida en orden por Fecha descendente
	// (lo más reciente primero), estable entre llamadas.
	ListByDog(ctx context.Context, dogID string, p page.Params) ([]Evaluation, int, error)
}
