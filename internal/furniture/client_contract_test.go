package furniture

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

// TestHTTPClientSmoke checks that the HTTP client can parse at least one
// record from a running furniture catalog.
func TestHTTPClientSmoke(t *testing.T) {
	baseURL := os.Getenv("FURNITURE_URL")
	if baseURL == "" {
		t.Skip("FURNITURE_URL not provided")
	}
	ref := os.Getenv("FURNITURE_SMOKE_REF")
	if ref == "" {
		ref = "sofa-001"
	}
	client, err := NewHTTPClient(baseURL, os.Getenv("FURNITURE_API_KEY"), 3*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	item, err := client.Get(ctx, ref)
	if err != nil {
		t.Fatalf("fetch furniture %q: %v", ref, err)
	}
	if item.Title == "" {
		t.Fatalf("unexpected furniture payload: %+v", item)
	}
}
