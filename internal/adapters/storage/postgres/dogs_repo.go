package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/domain/dogs"
	"vet-cardio-screening/internal/domain/page"
)

type DogsRepo struct {
	db *sql.DB
}

func NewDogsRepo(db *sql.DB) *DogsRepo {
	return &DogsRepo{db: db}
}

func (r *DogsRepo) Create(ctx context.Context, d dogs.Dog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dogs (
			id, owner_id,
			nombre, especie, raza, sexo, estado,
			fecha_nacimiento,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		d.ID,
		d.OwnerID,
		d.Nombre,
		d.Especie,
		d.Raza,
		string(d.Sexo),
		string(d.Estado),
		toNullDate(d.FechaNacimiento),
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: dog ya existe", apperr.ErrConflict)
		}
		return err
	}
	return nil
}

// Update nunca toca owner_id: la pertenencia es inmutable.
func (r *DogsRepo) Update(ctx context.Context, d dogs.Dog) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dogs
		SET
			nombre = $2,
			especie = $3,
			raza = $4,
			sexo = $5,
			estado = $6,
			fecha_nacimiento = $7,
			updated_at = $8
		WHERE id = $1
	`,
		d.ID,
		d.Nombre,
		d.Especie,
		d.Raza,
		string(d.Sexo),
		string(d.Estado),
		toNullDate(d.FechaNacimiento),
		d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: dog", apperr.ErrNotFound)
	}
	return nil
}

func (r *DogsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dogs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: dog", apperr.ErrNotFound)
	}
	return nil
}

func (r *DogsRepo) GetByID(ctx context.Context, id string) (dogs.Dog, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dogs.Dog{}, fmt.Errorf("%w: dog", apperr.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, owner_id,
			nombre, especie, raza, sexo, estado,
			fecha_nacimiento,
			created_at, updated_at
		FROM dogs
		WHERE id = $1
	`, id)

	d, err := scanDog(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return dogs.Dog{}, fmt.Errorf("%w: dog", apperr.ErrNotFound)
		}
		return dogs.Dog{}, err
	}
	return d, nil
}

func (r *DogsRepo) ListByOwner(ctx context.Context, ownerID, search string, p page.Params) ([]dogs.Dog, int, error) {
	term := strings.TrimSpace(search)
	pattern := "%" + term + "%"

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM dogs
		WHERE owner_id = $1
		  AND ($2 = '' OR nombre ILIKE $3 OR raza ILIKE $3)
	`, ownerID, term, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, owner_id,
			nombre, especie, raza, sexo, estado,
			fecha_nacimiento,
			created_at, updated_at
		FROM dogs
		WHERE owner_id = $1
		  AND ($2 = '' OR nombre ILIKE $3 OR raza ILIKE $3)
		ORDER BY created_at ASC, id ASC
		LIMIT $4 OFFSET $5
	`, ownerID, term, pattern, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]dogs.Dog, 0)
	for rows.Next() {
		d, err := scanDog(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}

	return out, total, rows.Err()
}

func (r *DogsRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dogs WHERE owner_id = $1`, ownerID,
	).Scan(&n)
	return n, err
}

func scanDog(row rowScanner) (dogs.Dog, error) {
	var d dogs.Dog
	var sexo, estado string
	var fn sql.NullTime
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Nombre,
		&d.Especie,
		&d.Raza,
		&sexo,
		&estado,
		&fn,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return dogs.Dog{}, err
	}
	d.Sexo = dogs.Sexo(sexo)
	d.Estado = dogs.Estado(estado)
	d.FechaNacimiento = fromNullDate(fn)
	return d, nil
}
