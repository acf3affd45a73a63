package furniture

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Clark-Hu/room-catalog/internal/domain"
)

func TestHTTPClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/furniture/sofa-1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"_id":"sofa-1","title":"Sofa","productType":"seating","price":499.5,"images":["a.png","b.png"],"dimensions":{"width":200,"depth":90,"height":80}}`))
		case "/api/furniture/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL+"/api/", "key", time.Second, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	item, err := client.Get(ctx, "sofa-1")
	require.NoError(t, err)
	assert.Equal(t, &domain.FurnitureItem{
		ID:          "sofa-1",
		Title:       "Sofa",
		ProductType: "seating",
		Price:       499.5,
		Image:       "a.png",
		Dimensions:  domain.Dimensions{Width: 200, Depth: 90, Height: 80},
	}, item)

	_, err = client.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Get(ctx, "broken")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

type countingClient struct {
	calls atomic.Int32
	item  *domain.FurnitureItem
}

func (c *countingClient) Get(ctx context.Context, ref string) (*domain.FurnitureItem, error) {
	c.calls.Add(1)
	if c.item == nil {
		return nil, ErrNotFound
	}
	return c.item, nil
}

func TestCachedClientReadThrough(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not provided")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())

	ref := "test-" + uuid.NewString()
	defer rdb.Del(ctx, cacheKeyPrefix+ref)

	next := &countingClient{item: &domain.FurnitureItem{ID: ref, Title: "Lamp", Price: 20}}
	cached := NewCachedClient(next, rdb, time.Minute, zap.NewNop())

	first, err := cached.Get(ctx, ref)
	require.NoError(t, err)
	second, err := cached.Get(ctx, ref)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), next.calls.Load())

	missing := &countingClient{}
	_, err = NewCachedClient(missing, rdb, time.Minute, zap.NewNop()).Get(ctx, "absent-"+uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedClientFallsBackWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	next := &countingClient{item: &domain.FurnitureItem{ID: "chair", Title: "Chair"}}
	cached := NewCachedClient(next, rdb, time.Minute, zap.NewNop())

	item, err := cached.Get(context.Background(), "chair")
	require.NoError(t, err)
	assert.Equal(t, "Chair", item.Title)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestHTTPClientGetKeepsRefInsideFurniturePath(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL+"/api", "", time.Second, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	for _, ref := range []string{"../admin", "a/b", "50%off", "..", "."} {
		_, err := client.Get(ctx, ref)
		assert.ErrorIs(t, err, ErrNotFound, ref)
	}
	assert.Equal(t, []string{
		"/api/furniture/..%2Fadmin",
		"/api/furniture/a%2Fb",
		"/api/furniture/50%25off",
	}, paths)
}
