package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/room-catalog/internal/catalog"
	"github.com/Clark-Hu/room-catalog/internal/domain"
)

// UsersRepository resolves user profiles referenced by designs and ratings.
type UsersRepository struct {
	pool *pgxpool.Pool
}

var _ catalog.UserDirectory = (*UsersRepository)(nil)

// ProfilesByID returns the profiles that exist for ids. Unknown ids are absent
// from the result.
func (r *UsersRepository) ProfilesByID(ctx context.Context, ids []string) (map[string]domain.UserProfile, error) {
	profiles := make(map[string]domain.UserProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	const query = `
        SELECT id, email, first_name, last_name
        FROM users
        WHERE id = ANY($1)
    `
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.UserProfile
		if err := rows.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName); err != nil {
			return nil, err
		}
		profiles[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Upsert inserts or refreshes a user profile.
func (r *UsersRepository) Upsert(ctx context.Context, p domain.UserProfile) error {
	const query = `
        INSERT INTO users (id, email, first_name, last_name)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (id) DO UPDATE
        SET email = EXCLUDED.email, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name
    `
	if _, err := r.pool.Exec(ctx, query, p.ID, p.Email, p.FirstName, p.LastName); err != nil {
		return fmt.Errorf("upsert user %s: %w", p.ID, err)
	}
	return nil
}
