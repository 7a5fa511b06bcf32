package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/pets"
)

const petColumns = `id, current_owner_id, name, species, breed, sex, birth_date, notes, created_at, updated_at`

type petRepo struct {
	t txView
}

// rowScanner lo cumplen *sql.Row y *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r petRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.t.exec(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CurrentOwnerID, p.Name, string(p.Species), p.Breed, string(p.Sex),
		nullMillis(p.BirthDate), p.Notes, toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	return mapWriteErr(err, "insert pet "+p.ID)
}

func (r petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	row := r.t.queryRow(ctx, r.t.forUpdate(`SELECT `+petColumns+` FROM pets WHERE id = ?`), id)
	p, err := scanPet(row)
	if err != nil {
		return pets.Pet{}, mapReadErr(err, "pet %s", id)
	}
	return p, nil
}

func (r petRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	rows, err := r.t.query(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE current_owner_id = ?
		ORDER BY created_at ASC, id ASC`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r petRepo) UpdateOwner(ctx context.Context, id, ownerUserID string, at time.Time) error {
	res, err := r.t.exec(ctx,
		`UPDATE pets SET current_owner_id = ?, updated_at = ? WHERE id = ?`,
		ownerUserID, toMillis(at), id,
	)
	if err != nil {
		return mapWriteErr(err, "update pet owner")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return err
	}
	if !ok {
		return domainerr.NotFound("pet %s", id)
	}
	return nil
}

func scanPet(s rowScanner) (pets.Pet, error) {
	var (
		p                    pets.Pet
		species, sex         string
		birth                sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := s.Scan(
		&p.ID, &p.CurrentOwnerID, &p.Name, &species, &p.Breed, &sex,
		&birth, &p.Notes, &createdAt, &updatedAt,
	); err != nil {
		return pets.Pet{}, err
	}
	p.Species = pets.Species(species)
	p.Sex = pets.Sex(sex)
	if birth.Valid {
		b := fromMillis(birth.Int64)
		p.BirthDate = &b
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}
