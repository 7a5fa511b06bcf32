package sqlstore

import (
	"context"
	"time"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/users"
)

type userRepo struct {
	t txView
}

func (r userRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.t.exec(ctx, `
		INSERT INTO users (id, email, role, trust_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, string(u.Role), u.TrustScore, toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	return mapWriteErr(err, "insert user "+u.ID)
}

func (r userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	var (
		u                    users.User
		role                 string
		createdAt, updatedAt int64
	)
	err := r.t.queryRow(ctx, r.getByIDQuery(), id).Scan(&u.ID, &u.Email, &role, &u.TrustScore, &createdAt, &updatedAt)
	if err != nil {
		return users.User{}, mapReadErr(err, "user %s", id)
	}
	u.Role = users.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

// getByIDQuery bloquea la fila dentro de una tx; el trust score se escribe como valor absoluto.
func (r userRepo) getByIDQuery() string {
	return r.t.forUpdate(`
		SELECT id, email, role, trust_score, created_at, updated_at
		FROM users WHERE id = ?`)
}

func (r userRepo) UpdateTrustScore(ctx context.Context, id string, score int, at time.Time) error {
	res, err := r.t.exec(ctx,
		`UPDATE users SET trust_score = ?, updated_at = ? WHERE id = ?`,
		score, toMillis(at), id,
	)
	if err != nil {
		return mapWriteErr(err, "update trust score")
	}
	ok, err := affectedOne(res)
	if err != nil {
		return err
	}
	if !ok {
		return domainerr.NotFound("user %s", id)
	}
	return nil
}
