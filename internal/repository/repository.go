package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/room-catalog/internal/store"
)

// Repository aggregates the Postgres-backed repositories.
type Repository struct {
	Designs *DesignsRepository
	Users   *UsersRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Designs: &DesignsRepository{pool: pool},
		Users:   &UsersRepository{pool: pool},
	}
}
