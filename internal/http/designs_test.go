package httpserver

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Clark-Hu/room-catalog/internal/catalog"
	"github.com/Clark-Hu/room-catalog/internal/config"
	"github.com/Clark-Hu/room-catalog/internal/domain"
)

func TestParseListQuery(t *testing.T) {
	values, _ := url.ParseQuery("shape= Rectangular &page=2&limit=5")
	q := parseListQuery(values)
	if q.Shape != "Rectangular" {
		t.Fatalf("shape not trimmed: %q", q.Shape)
	}
	if q.Page != 2 || q.Limit != 5 {
		t.Fatalf("page/limit = %d/%d, want 2/5", q.Page, q.Limit)
	}
}

func TestParseListQuery_CoercesMalformed(t *testing.T) {
	values, _ := url.ParseQuery("page=abc&limit=-3")
	q := parseListQuery(values)
	if q.Page != 0 || q.Limit != 0 {
		t.Fatalf("malformed values should fall back to zero, got %d/%d", q.Page, q.Limit)
	}
}

func TestParsePositiveInt(t *testing.T) {
	cases := map[string]int{
		"":       0,
		"0":      0,
		"-1":     0,
		"1.5":    0,
		"x":      0,
		" 7 ":    7,
		"100000": 100000,
	}
	for raw, want := range cases {
		if got := parsePositiveInt(raw); got != want {
			t.Fatalf("parsePositiveInt(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		raw     json.RawMessage
		want    int
		wantErr bool
	}{
		{json.RawMessage("4"), 4, false},
		{json.RawMessage(" 3 "), 3, false},
		{json.RawMessage(`"4"`), 0, true},
		{json.RawMessage("null"), 0, true},
		{json.RawMessage("true"), 0, true},
		{nil, 0, true},
		{json.RawMessage("0"), 0, false},
		{json.RawMessage("6"), 6, false},
		{json.RawMessage("4.5"), 0, true},
		{json.RawMessage("4.0"), 0, true},
		{json.RawMessage(""), 0, true},
		{json.RawMessage("99999999999"), 0, true},
	}
	for _, tt := range tests {
		got, err := parseRating(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseRating(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("parseRating(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestStatusForKind(t *testing.T) {
	cases := []struct {
		kind catalog.Kind
		want int
	}{
		{catalog.KindNotFound, http.StatusNotFound},
		{catalog.KindForbidden, http.StatusForbidden},
		{catalog.KindInvalidArgument, http.StatusBadRequest},
		{catalog.KindTimeout, http.StatusGatewayTimeout},
		{catalog.KindUnavailable, http.StatusInternalServerError},
		{catalog.KindInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusForKind(c.kind); got != c.want {
			t.Fatalf("statusForKind(%s) = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestRoundAverage(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"zero", 0, 0},
		{"exact", 3.5, 3.5},
		{"thirds", 10.0 / 3.0, 3.33},
		{"round-up", 4.666666, 4.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundAverage(tt.value); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("roundAverage(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

// recordingCatalog records ratings; its other methods are unimplemented.
type recordingCatalog struct {
	Catalog
	rated []int
}

func (c *recordingCatalog) RateDesign(ctx context.Context, id, userID string, rating int, comment *string) (domain.RatingSummary, error) {
	c.rated = append(c.rated, rating)
	return domain.RatingSummary{Average: float64(rating), Count: 1}, nil
}

func TestHandleRateDesign_RejectsQuotedRating(t *testing.T) {
	cat := &recordingCatalog{}
	srv := New(config.Config{Port: "0"}, cat, nil, zap.NewNop())

	for _, tc := range []struct {
		body string
		want int
	}{
		{`{"rating":"4"}`, http.StatusBadRequest},
		{`{"rating":" 4"}`, http.StatusBadRequest},
		{`{"rating":4}`, http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodPost, "/designs/d1/rate", strings.NewReader(tc.body))
		req.Header.Set(UserIDHeader, "user-a")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d (body %s)", tc.body, rec.Code, tc.want, rec.Body.String())
		}
	}
	if len(cat.rated) != 1 || cat.rated[0] != 4 {
		t.Fatalf("catalog saw ratings %v, want [4]", cat.rated)
	}
}
