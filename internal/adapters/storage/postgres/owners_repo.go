package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/domain/owners"
	"vet-cardio-screening/internal/domain/page"
)

type OwnersRepo struct {
	db *sql.DB
}

func NewOwnersRepo(db *sql.DB) *OwnersRepo {
	return &OwnersRepo{db: db}
}

func (r *OwnersRepo) Create(ctx context.Context, o owners.Owner) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO owners (
			id,
			nombres, apellidos, dni, celular, correo, direccion, sexo,
			fecha_nacimiento,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		o.ID,
		o.Nombres,
		o.Apellidos,
		o.DNI,
		o.Celular,
		o.Correo,
		o.Direccion,
		string(o.Sexo),
		toNullDate(o.FechaNacimiento),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: dni ya registrado", apperr.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *OwnersRepo) Update(ctx context.Context, o owners.Owner) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE owners
		SET
			nombres = $2,
			apellidos = $3,
			dni = $4,
			celular = $5,
			correo = $6,
			direccion = $7,
			sexo = $8,
			fecha_nacimiento = $9,
			updated_at = $10
		WHERE id = $1
	`,
		o.ID,
		o.Nombres,
		o.Apellidos,
		o.DNI,
		o.Celular,
		o.Correo,
		o.Direccion,
		string(o.Sexo),
		toNullDate(o.FechaNacimiento),
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: dni ya registrado", apperr.ErrConflict)
		}
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: owner", apperr.ErrNotFound)
	}
	return nil
}

func (r *OwnersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: owner", apperr.ErrNotFound)
	}
	return nil
}

func (r *OwnersRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return owners.Owner{}, fmt.Errorf("%w: owner", apperr.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id,
			nombres, apellidos, dni, celular, correo, direccion, sexo,
			fecha_nacimiento,
			created_at, updated_at
		FROM owners
		WHERE id = $1
	`, id)

	o, err := scanOwner(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return owners.Owner{}, fmt.Errorf("%w: owner", apperr.ErrNotFound)
		}
		return owners.Owner{}, err
	}
	return o, nil
}

func (r *OwnersRepo) List(ctx context.Context, search string, p page.Params) ([]owners.Owner, int, error) {
	term := strings.TrimSpace(search)
	pattern := "%" + term + "%"

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM owners
		WHERE $1 = ''
		   OR nombres ILIKE $2
		   OR apellidos ILIKE $2
		   OR dni ILIKE $2
		   OR celular ILIKE $2
	`, term, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id,
			nombres, apellidos, dni, celular, correo, direccion, sexo,
			fecha_nacimiento,
			created_at, updated_at
		FROM owners
		WHERE $1 = ''
		   OR nombres ILIKE $2
		   OR apellidos ILIKE $2
		   OR dni ILIKE $2
		   OR celular ILIKE $2
		ORDER BY created_at ASC, id ASC
		LIMIT $3 OFFSET $4
	`, term, pattern, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]owners.Owner, 0)
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}

	return out, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOwner(row rowScanner) (owners.Owner, error) {
	var o owners.Owner
	var sexo string
	var fn sql.NullTime
	if err := row.Scan(
		&o.ID,
		&o.Nombres,
		&o.Apellidos,
		&o.DNI,
		&o.Celular,
		&o.Correo,
		&o.Direccion,
		&sexo,
		&fn,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return owners.Owner{}, err
	}
	o.Sexo = owners.Sexo(sexo)
	o.FechaNacimiento = fromNullDate(fn)
	return o, nil
}
