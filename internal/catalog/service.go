package catalog

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/room-catalog/internal/domain"
	"github.com/Clark-Hu/room-catalog/internal/furniture"
)

const (
	tracerID = "catalog-service"

	DefaultPage         = 1
	DefaultPageLimit    = 10
	DefaultPopularLimit = 4
	MaxCommentLength    = 2000

	furnitureConcurrency = 8
)

// Options tunes limits and timeouts for the Service.
type Options struct {
	StoreTimeout     time.Duration
	FurnitureTimeout time.Duration
	MaxPageLimit     int
	Now              func() time.Time
}

// Service implements the public design catalog operations.
type Service struct {
	designs   DesignStore
	users     UserDirectory
	furniture FurnitureCatalog
	logger    *zap.Logger
	opts      Options
}

// New constructs a Service. A nil logger disables logging.
func New(designs DesignStore, users UserDirectory, furnitureCatalog FurnitureCatalog, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.FurnitureTimeout <= 0 {
		opts.FurnitureTimeout = 3 * time.Second
	}
	if opts.MaxPageLimit <= 0 {
		opts.MaxPageLimit = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		designs:   designs,
		users:     users,
		furniture: furnitureCatalog,
		logger:    logger,
		opts:      opts,
	}
}

// ListQuery is the caller-supplied listing request before normalisation.
type ListQuery struct {
	Shape string
	Page  int
	Limit int
}

// Pagination describes the page window returned by ListPublicDesigns.
type Pagination struct {
	Total int64
	Page  int
	Limit int
	Pages int
}

// DesignView is a design with its owner projection attached.
type DesignView struct {
	Design domain.Design
	Owner  *domain.UserProfile
}

// DesignPage is one page of the public catalog.
type DesignPage struct {
	Designs    []DesignView
	Pagination Pagination
}

// PlacementView is a placement enriched with furniture attributes. Item is nil
// when the reference could not be resolved.
type PlacementView struct {
	Placement domain.Placement
	Item      *domain.FurnitureItem
}

// DesignDetail is the denormalised single-design view.
type DesignDetail struct {
	DesignView
	Placements []PlacementView
}

// RatingView is a rating entry with its author projection.
type RatingView struct {
	Entry domain.RatingEntry
	User  *domain.UserProfile
}

// DesignRatings is the full rating listing of one design.
type DesignRatings struct {
	Summary domain.RatingSummary
	Ratings []RatingView
}

// ListPublicDesigns returns the page of public designs matching q, newest first.
// Out-of-range pages produce an empty result, not an error. Total and page are
// read without a lock against concurrent design writes.
func (s *Service) ListPublicDesigns(ctx context.Context, q ListQuery) (DesignPage, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Service/ListPublicDesigns")
	defer span.End()

	page := q.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := s.clampLimit(q.Limit, DefaultPageLimit)

	filter := ListFilter{Offset: pageOffset(page, limit), Limit: limit}
	if shape := strings.TrimSpace(q.Shape); shape != "" {
		sh := domain.Shape(strings.ToLower(shape))
		filter.Shape = &sh
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	result, err := s.designs.ListPublic(storeCtx, filter)
	if err != nil {
		return DesignPage{}, s.storeError("list public designs", err)
	}

	views := s.withOwners(ctx, result.Designs)
	return DesignPage{
		Designs: views,
		Pagination: Pagination{
			Total: result.Total,
			Page:  page,
			Limit: limit,
			Pages: int((result.Total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// ListPopularDesigns returns the top public designs by average rating, then
// rating count.
func (s *Service) ListPopularDesigns(ctx context.Context, limit int) ([]DesignView, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Service/ListPopularDesigns")
	defer span.End()

	limit = s.clampLimit(limit, DefaultPopularLimit)

	storeCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	designs, err := s.designs.ListPopular(storeCtx, limit)
	if err != nil {
		return nil, s.storeError("list popular designs", err)
	}
	return s.withOwners(ctx, designs), nil
}

// GetPublicDesign fetches a visible design and resolves its furniture references.
func (s *Service) GetPublicDesign(ctx context.Context, id string) (DesignDetail, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Service/GetPublicDesign")
	defer span.End()

	design, err := s.loadVisible(ctx, id)
	if err != nil {
		return DesignDetail{}, err
	}

	views := s.withOwners(ctx, []domain.Design{design})
	return DesignDetail{
		DesignView: views[0],
		Placements: s.resolvePlacements(ctx, design.Placements),
	}, nil
}

// RateDesign records userID's rating of a visible design, replacing any
// earlier rating by the same user, and returns the new summary.
func (s *Service) RateDesign(ctx context.Context, id, userID string, rating int, comment *string) (domain.RatingSummary, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Service/RateDesign")
	defer span.End()

	if !domain.ValidRating(rating) {
		return domain.RatingSummary{}, invalidArgument("rating must be an integer between %d and %d", domain.MinRating, domain.MaxRating)
	}
	if strings.TrimSpace(userID) == "" {
		return domain.RatingSummary{}, invalidArgument("user id is required")
	}
	text := ""
	if comment != nil {
		text = *comment
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return domain.RatingSummary{}, invalidArgument("comment must be at most %d characters", MaxCommentLength)
	}

	entry := domain.RatingEntry{
		UserID:  userID,
		Value:   rating,
		Comment: text,
		Date:    s.opts.Now().UTC(),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	summary, err := s.designs.UpsertRating(storeCtx, id, entry, requireVisible)
	if err != nil {
		return domain.RatingSummary{}, s.storeError("upsert rating", err)
	}

	s.logger.Info("design rated",
		zap.String("design_id", id),
		zap.String("user_id", userID),
		zap.Int("rating", rating),
		zap.Float64("average", summary.Average),
		zap.Int("count", summary.Count))
	return summary, nil
}

// GetDesignRatings lists the ratings of a visible design in stored order.
func (s *Service) GetDesignRatings(ctx context.Context, id string) (DesignRatings, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Service/GetDesignRatings")
	defer span.End()

	design, err := s.loadVisible(ctx, id)
	if err != nil {
		return DesignRatings{}, err
	}

	profiles := s.lookupUsers(ctx, design.Ratings.UserIDs())
	views := make([]RatingView, 0, len(design.Ratings))
	for _, entry := range design.Ratings {
		view := RatingView{Entry: entry}
		if p, ok := profiles[entry.UserID]; ok {
			p := p
			view.User = &p
		}
		views = append(views, view)
	}
	return DesignRatings{Summary: design.Summary(), Ratings: views}, nil
}

func (s *Service) loadVisible(ctx context.Context, id string) (domain.Design, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Design{}, &Error{Kind: KindNotFound, Message: "design not found"}
	}
	storeCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	design, err := s.designs.GetByID(storeCtx, id)
	if err != nil {
		return domain.Design{}, s.storeError("get design", err)
	}
	if err := requireVisible(design); err != nil {
		return domain.Design{}, err
	}
	return design, nil
}

func (s *Service) withOwners(ctx context.Context, designs []domain.Design) []DesignView {
	ids := make([]string, 0, len(designs))
	for _, d := range designs {
		ids = append(ids, d.CreatedBy)
	}
	profiles := s.lookupUsers(ctx, ids)

	views := make([]DesignView, 0, len(designs))
	for _, d := range designs {
		view := DesignView{Design: d}
		if p, ok := profiles[d.CreatedBy]; ok {
			p := p
			view.Owner = &p
		}
		views = append(views, view)
	}
	return views
}

// lookupUsers never fails the caller: a missing or unreachable directory
// leaves the projections empty.
func (s *Service) lookupUsers(ctx context.Context, ids []string) map[string]domain.UserProfile {
	ids = uniqueNonEmpty(ids)
	if len(ids) == 0 || s.users == nil {
		return nil
	}
	storeCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	profiles, err := s.users.ProfilesByID(storeCtx, ids)
	if err != nil {
		s.logger.Warn("user lookup failed", zap.Int("ids", len(ids)), zap.Error(err))
		return nil
	}
	return profiles
}

func (s *Service) resolvePlacements(ctx context.Context, placements []domain.Placement) []PlacementView {
	views := make([]PlacementView, len(placements))
	for i, p := range placements {
		views[i] = PlacementView{Placement: p}
	}
	if s.furniture == nil || len(placements) == 0 {
		return views
	}

	refs := make([]string, 0, len(placements))
	for _, p := range placements {
		refs = append(refs, p.ItemRef)
	}
	refs = uniqueNonEmpty(refs)

	lookupCtx, cancel := context.WithTimeout(ctx, s.opts.FurnitureTimeout)
	defer cancel()

	var mu sync.Mutex
	items := make(map[string]*domain.FurnitureItem, len(refs))
	g, gctx := errgroup.WithContext(lookupCtx)
	g.SetLimit(furnitureConcurrency)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			item, err := s.furniture.Get(gctx, ref)
			if err != nil {
				if !errors.Is(err, furniture.ErrNotFound) {
					s.logger.Warn("furniture lookup failed", zap.String("item_ref", ref), zap.Error(err))
				}
				return nil
			}
			mu.Lock()
			items[ref] = item
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i := range views {
		views[i].Item = items[views[i].Placement.ItemRef]
	}
	return views
}

func (s *Service) clampLimit(limit, fallback int) int {
	if limit < 1 {
		limit = fallback
	}
	if limit > s.opts.MaxPageLimit {
		limit = s.opts.MaxPageLimit
	}
	return limit
}

func (s *Service) storeError(op string, err error) error {
	var ce *Error
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, domain.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: "design not found", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Error("store timeout", zap.String("op", op), zap.Error(err))
		return &Error{Kind: KindTimeout, Message: "storage did not respond in time", Err: err}
	default:
		s.logger.Error("store failure", zap.String("op", op), zap.Error(err))
		return &Error{Kind: KindUnavailable, Message: "storage unavailable", Err: err}
	}
}

// pageOffset saturates instead of overflowing for absurd page numbers.
func pageOffset(page, limit int) int64 {
	p := int64(page - 1)
	l := int64(limit)
	if p > 0 && p > math.MaxInt64/l {
		return math.MaxInt64
	}
	return p * l
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
