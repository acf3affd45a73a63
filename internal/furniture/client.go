package furniture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/room-catalog/internal/domain"
)

// ErrNotFound is returned when the furniture catalog has no item for a reference.
var ErrNotFound = errors.New("furniture: not found")

// Client defines the contract for querying the furniture catalog.
type Client interface {
	Get(ctx context.Context, ref string) (*domain.FurnitureItem, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient constructs a new HTTP-backed furniture client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse furniture url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
				MaxIdleConnsPerHost:   16,
			},
		},
		logger: logger,
	}, nil
}

// Get retrieves a furniture item by its catalog reference.
func (c *HTTPClient) Get(ctx context.Context, ref string) (*domain.FurnitureItem, error) {
	// The reference must stay a single path segment under /furniture.
	if ref == "" || ref == "." || ref == ".." {
		return nil, ErrNotFound
	}
	endpoint := c.baseURL.JoinPath("furniture", url.PathEscape(ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode furniture response: %w", err)
		}
		return convertToItem(ref, payload), nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Warn("furniture: unexpected status", zap.Int("status", resp.StatusCode), zap.String("item_ref", ref))
		return nil, fmt.Errorf("furniture: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	ID          string             `json:"_id"`
	Title       string             `json:"title"`
	ProductType *string            `json:"productType"`
	Price       *float64           `json:"price"`
	Image       *string            `json:"image"`
	Images      []string           `json:"images"`
	Dimensions  *dimensionsPayload `json:"dimensions"`
}

type dimensionsPayload struct {
	Width  *float64 `json:"width"`
	Depth  *float64 `json:"depth"`
	Height *float64 `json:"height"`
}

func convertToItem(ref string, payload apiResponse) *domain.FurnitureItem {
	item := &domain.FurnitureItem{
		ID:    ref,
		Title: payload.Title,
		Price: derefFloat(payload.Price),
	}
	if payload.ID != "" {
		item.ID = payload.ID
	}
	if payload.ProductType != nil {
		item.ProductType = *payload.ProductType
	}

	switch {
	case payload.Image != nil && *payload.Image != "":
		item.Image = *payload.Image
	case len(payload.Images) > 0:
		item.Image = payload.Images[0]
	}

	if payload.Dimensions != nil {
		item.Dimensions = domain.Dimensions{
			Width:  derefFloat(payload.Dimensions.Width),
			Depth:  derefFloat(payload.Dimensions.Depth),
			Height: derefFloat(payload.Dimensions.Height),
		}
	}
	if item.Price < 0 {
		item.Price = 0
	}
	return item
}

func derefFloat(ptr *float64) float64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}
