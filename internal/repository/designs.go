package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/room-catalog/internal/catalog"
	"github.com/Clark-Hu/room-catalog/internal/domain"
)

// DesignsRepository provides persistence helpers for design entities.
type DesignsRepository struct {
	pool *pgxpool.Pool
}

var _ catalog.DesignStore = (*DesignsRepository)(nil)

const designColumns = `
    id,
    created_by,
    name,
    description,
    is_public,
    shape,
    room,
    placements,
    average_rating,
    rating_count,
    created_at,
    updated_at
`

// DesignCreateParams bundles the fields required to create a design. A nil
// CreatedAt lets the database assign the creation time.
type DesignCreateParams struct {
	CreatedBy   string
	Name        string
	Description string
	IsPublic    bool
	Shape       domain.Shape
	Room        domain.RoomDimensions
	Placements  []domain.Placement
	CreatedAt   *time.Time
}

// Create inserts a new design row and returns the stored entity.
func (r *DesignsRepository) Create(ctx context.Context, params DesignCreateParams) (domain.Design, error) {
	roomJSON, err := json.Marshal(params.Room)
	if err != nil {
		return domain.Design{}, fmt.Errorf("encode room: %w", err)
	}
	placements := params.Placements
	if placements == nil {
		placements = []domain.Placement{}
	}
	placementsJSON, err := json.Marshal(placements)
	if err != nil {
		return domain.Design{}, fmt.Errorf("encode placements: %w", err)
	}

	query := fmt.Sprintf(`
        INSERT INTO designs (created_by, name, description, is_public, shape, room, placements, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,COALESCE($8, now()))
        RETURNING %s
    `, designColumns)

	row := r.pool.QueryRow(ctx, query, params.CreatedBy, params.Name, params.Description, params.IsPublic,
		string(params.Shape), roomJSON, placementsJSON, params.CreatedAt)
	return scanDesign(row)
}

// GetByID fetches a design and its rating set by identifier. Both reads share
// one snapshot so the stored aggregate always matches the returned ratings.
func (r *DesignsRepository) GetByID(ctx context.Context, id string) (domain.Design, error) {
	query := fmt.Sprintf(`SELECT %s FROM designs WHERE id = $1`, designColumns)

	var design domain.Design
	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, r.pool, txOpts, func(tx pgx.Tx) error {
		var err error
		design, err = scanDesign(tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		design.Ratings, err = loadRatings(ctx, tx, id)
		return err
	})
	if err != nil {
		return domain.Design{}, err
	}
	return design, nil
}

// ListPublic returns one page of public designs, newest first. Count and page
// are read in a single REPEATABLE READ snapshot so they agree with each other;
// they are not ordered against concurrent writers.
func (r *DesignsRepository) ListPublic(ctx context.Context, filter catalog.ListFilter) (catalog.ListResult, error) {
	where := []string{"is_public"}
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Shape != nil {
		where = append(where, fmt.Sprintf("shape = %s", arg(string(*filter.Shape))))
	}
	predicate := strings.Join(where, " AND ")

	countQuery := "SELECT COUNT(*) FROM designs WHERE " + predicate

	pageQuery := strings.Builder{}
	pageQuery.WriteString("SELECT ")
	pageQuery.WriteString(designColumns)
	pageQuery.WriteString(" FROM designs WHERE ")
	pageQuery.WriteString(predicate)
	pageQuery.WriteString(" ORDER BY created_at DESC, id DESC")
	pageQuery.WriteString(fmt.Sprintf(" LIMIT %s OFFSET %s", arg(filter.Limit), arg(filter.Offset)))

	result := catalog.ListResult{Designs: make([]domain.Design, 0)}
	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, r.pool, txOpts, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&result.Total); err != nil {
			return fmt.Errorf("count designs: %w", err)
		}
		if result.Total == 0 || filter.Offset >= result.Total {
			return nil
		}
		designs, err := queryDesigns(ctx, tx, pageQuery.String(), args...)
		if err != nil {
			return err
		}
		result.Designs = designs
		return nil
	})
	if err != nil {
		return catalog.ListResult{}, err
	}
	return result, nil
}

// ListPopular returns the top public designs by average rating, then rating count.
func (r *DesignsRepository) ListPopular(ctx context.Context, limit int) ([]domain.Design, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM designs
        WHERE is_public
        ORDER BY average_rating DESC, rating_count DESC, created_at DESC, id DESC
        LIMIT $1
    `, designColumns)
	return queryDesigns(ctx, r.pool, query, limit)
}

// UpsertRating locks the design row, applies the upsert to its rating set and
// writes the entry together with the recomputed aggregate in one transaction.
func (r *DesignsRepository) UpsertRating(ctx context.Context, id string, entry domain.RatingEntry, check func(domain.Design) error) (domain.RatingSummary, error) {
	var summary domain.RatingSummary
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`SELECT %s FROM designs WHERE id = $1 FOR UPDATE`, designColumns)
		design, err := scanDesign(tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if check != nil {
			if err := check(design); err != nil {
				return err
			}
		}

		ratings, err := loadRatings(ctx, tx, id)
		if err != nil {
			return err
		}
		ratings, _ = ratings.Upsert(entry)
		summary = ratings.Summary()

		const upsert = `
            INSERT INTO design_ratings (design_id, user_id, value, comment, rated_at)
            VALUES ($1,$2,$3,$4,$5)
            ON CONFLICT (design_id, user_id)
            DO UPDATE SET value = EXCLUDED.value, comment = EXCLUDED.comment, rated_at = EXCLUDED.rated_at
        `
		if _, err := tx.Exec(ctx, upsert, id, entry.UserID, entry.Value, entry.Comment, entry.Date); err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		const aggregate = `
            UPDATE designs
            SET average_rating = $2, rating_count = $3, updated_at = now()
            WHERE id = $1
        `
		if _, err := tx.Exec(ctx, aggregate, id, summary.Average, summary.Count); err != nil {
			return fmt.Errorf("update rating aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.RatingSummary{}, err
	}
	return summary, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func queryDesigns(ctx context.Context, q querier, query string, args ...interface{}) ([]domain.Design, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	designs := make([]domain.Design, 0)
	for rows.Next() {
		design, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		designs = append(designs, design)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return designs, nil
}

func loadRatings(ctx context.Context, q querier, designID string) (domain.RatingSet, error) {
	const query = `
        SELECT user_id, value, comment, rated_at
        FROM design_ratings
        WHERE design_id = $1
        ORDER BY seq
    `
	rows, err := q.Query(ctx, query, designID)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	defer rows.Close()

	var set domain.RatingSet
	for rows.Next() {
		var entry domain.RatingEntry
		if err := rows.Scan(&entry.UserID, &entry.Value, &entry.Comment, &entry.Date); err != nil {
			return nil, err
		}
		entry.Date = entry.Date.UTC()
		set = append(set, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func scanDesign(row pgx.Row) (domain.Design, error) {
	var (
		design         domain.Design
		shape          string
		roomJSON       []byte
		placementsJSON []byte
	)

	err := row.Scan(
		&design.ID,
		&design.CreatedBy,
		&design.Name,
		&design.Description,
		&design.IsPublic,
		&shape,
		&roomJSON,
		&placementsJSON,
		&design.AverageRating,
		&design.RatingCount,
		&design.CreatedAt,
		&design.UpdatedAt,
	)
	if err != nil {
		return domain.Design{}, err
	}

	design.Shape = domain.Shape(shape)
	if len(roomJSON) > 0 {
		if err := json.Unmarshal(roomJSON, &design.Room); err != nil {
			return domain.Design{}, fmt.Errorf("decode room: %w", err)
		}
	}
	if len(placementsJSON) > 0 {
		if err := json.Unmarshal(placementsJSON, &design.Placements); err != nil {
			return domain.Design{}, fmt.Errorf("decode placements: %w", err)
		}
	}
	return design, nil
}
