package users

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	UpdateTrustScore(ctx context.Context, id string, score int, at time.Time) error
}
