package postgres

import (
	"context"
	"database/sql"

	"vet-cardio-screening/internal/domain/evaluations"
	"vet-cardio-screening/internal/domain/page"
)

type EvaluationsRepo struct {
	db *sql.DB
}

func NewEvaluationsRepo(db *sql.DB) *EvaluationsRepo {
	return &EvaluationsRepo{db: db}
}

// Append inserta la evaluación con ON CONFLICT DO NOTHING sobre la clave
// (dog_id, idem_key). En replay se relee el registro original, así el
// llamador siempre recibe la misma evaluación para la misma clave.
func (r *EvaluationsRepo) Append(ctx context.Context, e evaluations.Evaluation) (evaluations.Evaluation, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO evaluations (
			id, dog_id, fecha, resultado, comentarios, idem_key
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (dog_id, idem_key) DO NOTHING
	`,
		e.ID,
		e.DogID,
		e.Fecha,
		string(e.Resultado),
		e.Comentarios,
		e.IdemKey,
	)
	if err != nil {
		return evaluations.Evaluation{}, err
	}

	if n, _ := res.RowsAffected(); n > 0 {
		return e, nil
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, dog_id, fecha, resultado, comentarios, idem_key
		FROM evaluations
		WHERE dog_id = $1 AND idem_key = $2
	`, e.DogID, e.IdemKey)

	return scanEvaluation(row)
}

func (r *EvaluationsRepo) ListByDog(ctx context.Context, dogID string, p page.Params) ([]evaluations.Evaluation, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evaluations WHERE dog_id = $1`, dogID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, dog_id, fecha, resultado, comentarios, idem_key
		FROM evaluations
		WHERE dog_id = $1
		ORDER BY fecha DESC, id DESC
		LIMIT $2 OFFSET $3
	`, dogID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]evaluations.Evaluation, 0)
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}

	return out, total, rows.Err()
}

func scanEvaluation(row rowScanner) (evaluations.Evaluation, error) {
	var e evaluations.Evaluation
	var resultado string
	if err := row.Scan(
		&e.ID,
		&e.DogID,
		&e.Fecha,
		&resultado,
		&e.Comentarios,
		&e.IdemKey,
	); err != nil {
		return evaluations.Evaluation{}, err
	}
	e.Resultado = evaluations.Resultado(resultado)
	return e, nil
}
