package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Clark-Hu/room-catalog/internal/catalog"
	"github.com/Clark-Hu/room-catalog/internal/domain"
)

var _ catalog.DesignStore = (*Store)(nil)

type designDocument struct {
	ID            string                `bson:"_id"`
	CreatedBy     string                `bson:"createdBy"`
	Name          string                `bson:"name"`
	Description   string                `bson:"description"`
	IsPublic      bool                  `bson:"isPublic"`
	Shape         string                `bson:"shape"`
	Room          domain.RoomDimensions `bson:"room"`
	Placements    []domain.Placement    `bson:"furniturePlacements"`
	Ratings       []domain.RatingEntry  `bson:"ratings"`
	AverageRating float64               `bson:"averageRating"`
	RatingCount   int                   `bson:"ratingCount"`
	Version       int64                 `bson:"version"`
	CreatedAt     time.Time             `bson:"createdAt"`
	UpdatedAt     time.Time             `bson:"updatedAt"`
}

func (d designDocument) toDomain() domain.Design {
	ratings := make(domain.RatingSet, 0, len(d.Ratings))
	for _, r := range d.Ratings {
		r.Date = r.Date.UTC()
		ratings = append(ratings, r)
	}
	return domain.Design{
		ID:            d.ID,
		CreatedBy:     d.CreatedBy,
		Name:          d.Name,
		Description:   d.Description,
		IsPublic:      d.IsPublic,
		Shape:         domain.Shape(d.Shape),
		Room:          d.Room,
		Placements:    d.Placements,
		Ratings:       ratings,
		AverageRating: d.AverageRating,
		RatingCount:   d.RatingCount,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

// listProjection drops embedded ratings from list reads.
var listProjection = bson.M{"ratings": 0}

// Create inserts design. An empty ID is replaced by a random UUID and zero
// timestamps by the current time. Stored ratings are summarised on insert.
func (s *Store) Create(ctx context.Context, design domain.Design) (domain.Design, error) {
	if design.ID == "" {
		design.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if design.CreatedAt.IsZero() {
		design.CreatedAt = now
	}
	if design.UpdatedAt.IsZero() {
		design.UpdatedAt = design.CreatedAt
	}
	if design.Placements == nil {
		design.Placements = []domain.Placement{}
	}
	if design.Ratings == nil {
		design.Ratings = domain.RatingSet{}
	}
	summary := design.Ratings.Summary()
	design.AverageRating, design.RatingCount = summary.Average, summary.Count

	doc := designDocument{
		ID:            design.ID,
		CreatedBy:     design.CreatedBy,
		Name:          design.Name,
		Description:   design.Description,
		IsPublic:      design.IsPublic,
		Shape:         string(design.Shape),
		Room:          design.Room,
		Placements:    design.Placements,
		Ratings:       design.Ratings,
		AverageRating: design.AverageRating,
		RatingCount:   design.RatingCount,
		CreatedAt:     design.CreatedAt,
		UpdatedAt:     design.UpdatedAt,
	}
	if _, err := s.designs.InsertOne(ctx, doc); err != nil {
		return domain.Design{}, fmt.Errorf("insert design: %w", err)
	}
	return design, nil
}

// GetByID fetches a design with its embedded ratings.
func (s *Store) GetByID(ctx context.Context, id string) (domain.Design, error) {
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return domain.Design{}, err
	}
	return doc.toDomain(), nil
}

func (s *Store) findDocument(ctx context.Context, id string) (designDocument, error) {
	var doc designDocument
	if err := s.designs.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return designDocument{}, domain.ErrNotFound
		}
		return designDocument{}, fmt.Errorf("failed to fetch design %s: %w", id, err)
	}
	return doc, nil
}

// ListPublic counts and pages the public designs, newest first.
func (s *Store) ListPublic(ctx context.Context, filter catalog.ListFilter) (catalog.ListResult, error) {
	query := bson.M{"isPublic": true}
	if filter.Shape != nil {
		query["shape"] = string(*filter.Shape)
	}

	total, err := s.designs.CountDocuments(ctx, query)
	if err != nil {
		return catalog.ListResult{}, fmt.Errorf("count designs: %w", err)
	}
	result := catalog.ListResult{Designs: make([]domain.Design, 0), Total: total}
	if total == 0 || filter.Offset >= total {
		return result, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(filter.Offset).
		SetLimit(int64(filter.Limit)).
		SetProjection(listProjection)
	designs, err := s.findDesigns(ctx, query, opts)
	if err != nil {
		return catalog.ListResult{}, err
	}
	result.Designs = designs
	return result, nil
}

// ListPopular returns public designs by average rating then rating count.
func (s *Store) ListPopular(ctx context.Context, limit int) ([]domain.Design, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "averageRating", Value: -1},
			{Key: "ratingCount", Value: -1},
			{Key: "createdAt", Value: -1},
			{Key: "_id", Value: -1},
		}).
		SetLimit(int64(limit)).
		SetProjection(listProjection)
	return s.findDesigns(ctx, bson.M{"isPublic": true}, opts)
}

func (s *Store) findDesigns(ctx context.Context, query bson.M, opts *options.FindOptions) ([]domain.Design, error) {
	cursor, err := s.designs.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find designs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []designDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode designs: %w", err)
	}
	designs := make([]domain.Design, 0, len(docs))
	for _, doc := range docs {
		designs = append(designs, doc.toDomain())
	}
	return designs, nil
}

// UpsertRating reads the design, applies the upsert and writes it back only if
// no other writer bumped the version in between. Lost races are retried up to
// the configured limit, after which ErrConflict is returned.
func (s *Store) UpsertRating(ctx context.Context, id string, entry domain.RatingEntry, check func(domain.Design) error) (domain.RatingSummary, error) {
	entry.Date = entry.Date.Truncate(time.Millisecond)
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		doc, err := s.findDocument(ctx, id)
		if err != nil {
			return domain.RatingSummary{}, err
		}
		design := doc.toDomain()
		if check != nil {
			if err := check(design); err != nil {
				return domain.RatingSummary{}, err
			}
		}

		ratings, _ := design.Ratings.Upsert(entry)
		summary := ratings.Summary()

		update := bson.M{
			"$set": bson.M{
				"ratings":       []domain.RatingEntry(ratings),
				"averageRating": summary.Average,
				"ratingCount":   summary.Count,
				"updatedAt":     time.Now().UTC(),
			},
			"$inc": bson.M{"version": 1},
		}
		res, err := s.designs.UpdateOne(ctx, versionFilter(id, doc.Version), update)
		if err != nil {
			return domain.RatingSummary{}, fmt.Errorf("update design %s: %w", id, err)
		}
		if res.MatchedCount == 1 {
			return summary, nil
		}
		s.logger.Debug("mongostore: rating write lost version race",
			zap.String("design_id", id),
			zap.Int("attempt", attempt))
	}
	return domain.RatingSummary{}, ErrConflict
}

// versionFilter matches the document at the version that was read. Documents
// written by other tools may lack the field, which decodes as 0.
func versionFilter(id string, version int64) bson.M {
	if version == 0 {
		return bson.M{"_id": id, "version": bson.M{"$in": bson.A{int64(0), nil}}}
	}
	return bson.M{"_id": id, "version": version}
}
