package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/room-catalog/internal/catalog"
	"github.com/Clark-Hu/room-catalog/internal/domain"
)

const maxRequestBody = 1 << 20 // 1 MiB

const rateSuccessMessage = "Rating submitted successfully"

// Catalog is the set of operations the HTTP layer serves.
type Catalog interface {
	ListPublicDesigns(ctx context.Context, q catalog.ListQuery) (catalog.DesignPage, error)
	ListPopularDesigns(ctx context.Context, limit int) ([]catalog.DesignView, error)
	GetPublicDesign(ctx context.Context, id string) (catalog.DesignDetail, error)
	RateDesign(ctx context.Context, id, userID string, rating int, comment *string) (domain.RatingSummary, error)
	GetDesignRatings(ctx context.Context, id string) (catalog.DesignRatings, error)
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ownerResponse struct {
	Email string `json:"email"`
}

type designResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Shape         string                `json:"shape"`
	IsPublic      bool                  `json:"isPublic"`
	Room          domain.RoomDimensions `json:"room"`
	CreatedBy     string                `json:"createdBy"`
	Owner         *ownerResponse        `json:"owner"`
	AverageRating float64               `json:"averageRating"`
	TotalRatings  int                   `json:"totalRatings"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

type designSummaryResponse struct {
	designResponse
	Placements []domain.Placement `json:"furniturePlacements"`
}

type placementResponse struct {
	domain.Placement
	Item *domain.FurnitureItem `json:"item"`
}

type designDetailResponse struct {
	designResponse
	Placements []placementResponse `json:"furniturePlacements"`
}

type paginationResponse struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

type designListResponse struct {
	Designs    []designSummaryResponse `json:"designs"`
	Pagination paginationResponse      `json:"pagination"`
}

type popularResponse struct {
	Count   int                     `json:"count"`
	Designs []designSummaryResponse `json:"designs"`
}

type rateRequest struct {
	Rating  json.RawMessage `json:"rating"`
	Comment *string         `json:"comment"`
}

type rateResponse struct {
	Message       string  `json:"message"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}

type raterResponse struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type ratingResponse struct {
	UserID  string         `json:"userId"`
	Rating  int            `json:"rating"`
	Comment string         `json:"comment"`
	Date    time.Time      `json:"date"`
	User    *raterResponse `json:"user"`
}

type ratingsResponse struct {
	AverageRating float64          `json:"averageRating"`
	TotalRatings  int              `json:"totalRatings"`
	Ratings       []ratingResponse `json:"ratings"`
}

func (s *Server) handleListDesigns(w http.ResponseWriter, r *http.Request) {
	page, err := s.catalog.ListPublicDesigns(r.Context(), parseListQuery(r.URL.Query()))
	if err != nil {
		s.respondCatalogError(w, err)
		return
	}

	resp := designListResponse{
		Designs: toSummaryResponses(page.Designs),
		Pagination: paginationResponse{
			Total: page.Pagination.Total,
			Page:  page.Pagination.Page,
			Limit: page.Pagination.Limit,
			Pages: page.Pagination.Pages,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPopular(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveInt(r.URL.Query().Get("limit"))
	views, err := s.catalog.ListPopularDesigns(r.Context(), limit)
	if err != nil {
		s.respondCatalogError(w, err)
		return
	}
	designs := toSummaryResponses(views)
	s.respondJSON(w, http.StatusOK, popularResponse{Count: len(designs), Designs: designs})
}

func (s *Server) handleGetDesign(w http.ResponseWriter, r *http.Request) {
	detail, err := s.catalog.GetPublicDesign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondCatalogError(w, err)
		return
	}

	placements := make([]placementResponse, 0, len(detail.Placements))
	for _, p := range detail.Placements {
		placements = append(placements, placementResponse{Placement: p.Placement, Item: p.Item})
	}
	s.respondJSON(w, http.StatusOK, designDetailResponse{
		designResponse: toDesignResponse(detail.DesignView),
		Placements:     placements,
	})
}

func (s *Server) handleRateDesign(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	rating, err := parseRating(req.Rating)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, string(catalog.KindInvalidArgument), err.Error())
		return
	}

	summary, err := s.catalog.RateDesign(r.Context(), chi.URLParam(r, "id"), userIDFrom(r.Context()), rating, req.Comment)
	if err != nil {
		s.respondCatalogError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rateResponse{
		Message:       rateSuccessMessage,
		AverageRating: roundAverage(summary.Average),
		TotalRatings:  summary.Count,
	})
}

func (s *Server) handleGetRatings(w http.ResponseWriter, r *http.Request) {
	result, err := s.catalog.GetDesignRatings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondCatalogError(w, err)
		return
	}

	ratings := make([]ratingResponse, 0, len(result.Ratings))
	for _, view := range result.Ratings {
		entry := ratingResponse{
			UserID:  view.Entry.UserID,
			Rating:  view.Entry.Value,
			Comment: view.Entry.Comment,
			Date:    view.Entry.Date,
		}
		if view.User != nil {
			entry.User = &raterResponse{
				FirstName: view.User.FirstName,
				LastName:  view.User.LastName,
				Email:     view.User.Email,
			}
		}
		ratings = append(ratings, entry)
	}
	s.respondJSON(w, http.StatusOK, ratingsResponse{
		AverageRating: roundAverage(result.Summary.Average),
		TotalRatings:  result.Summary.Count,
		Ratings:       ratings,
	})
}

// parseListQuery never rejects: malformed page or limit values fall back to
// the catalog defaults.
func parseListQuery(query url.Values) catalog.ListQuery {
	return catalog.ListQuery{
		Shape: strings.TrimSpace(query.Get("shape")),
		Page:  parsePositiveInt(query.Get("page")),
		Limit: parsePositiveInt(query.Get("limit")),
	}
}

// parsePositiveInt returns 0 for anything that is not a positive integer.
func parsePositiveInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// parseRating accepts only an unquoted integer literal. Range checks are left
// to the catalog.
func parseRating(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("rating is required")
	}
	invalid := fmt.Errorf("rating must be an integer between %d and %d", domain.MinRating, domain.MaxRating)
	if raw[0] == '"' {
		return 0, invalid
	}
	n, err := json.Number(raw).Int64()
	if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, invalid
	}
	return int(n), nil
}

func toDesignResponse(view catalog.DesignView) designResponse {
	d := view.Design
	resp := designResponse{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Shape:         string(d.Shape),
		IsPublic:      d.IsPublic,
		Room:          d.Room,
		CreatedBy:     d.CreatedBy,
		AverageRating: roundAverage(d.AverageRating),
		TotalRatings:  d.RatingCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if view.Owner != nil {
		resp.Owner = &ownerResponse{Email: view.Owner.Email}
	}
	return resp
}

func toSummaryResponses(views []catalog.DesignView) []designSummaryResponse {
	out := make([]designSummaryResponse, 0, len(views))
	for _, v := range views {
		placements := v.Design.Placements
		if placements == nil {
			placements = []domain.Placement{}
		}
		out = append(out, designSummaryResponse{
			designResponse: toDesignResponse(v),
			Placements:     placements,
		})
	}
	return out
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("failed to encode response", zap.Error(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	code := string(catalog.KindInvalidArgument)
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusBadRequest, code, "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, code, fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, code, "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, code, "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, code, "Unable to parse request body")
	}
}

// respondCatalogError maps a catalog failure onto a status code. Internal
// faults are logged and never detailed to the caller.
func (s *Server) respondCatalogError(w http.ResponseWriter, err error) {
	kind := catalog.KindOf(err)
	status := statusForKind(kind)
	message := http.StatusText(status)

	var ce *catalog.Error
	if errors.As(err, &ce) && kind != catalog.KindInternal {
		message = ce.Message
	} else {
		s.logger.Error("unexpected catalog error", zap.Error(err))
	}
	s.respondError(w, status, string(kind), message)
}

func statusForKind(kind catalog.Kind) int {
	switch kind {
	case catalog.KindNotFound:
		return http.StatusNotFound
	case catalog.KindForbidden:
		return http.StatusForbidden
	case catalog.KindInvalidArgument:
		return http.StatusBadRequest
	case catalog.KindTimeout:
		return http.StatusGatewayTimeout
	case catalog.KindUnavailable, catalog.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// roundAverage trims float noise for display; stored values are untouched.
func roundAverage(value float64) float64 {
	return math.Round(value*100) / 100
}
