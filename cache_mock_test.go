package hammock_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/codeinpeace/hammock"
	"github.com/codeinpeace/hammock/internal/mocks"
	"github.com/codeinpeace/hammock/internal/testserver"
)

// TestCacheStoresWithClientOptions ensures a miss is followed by a Set under
// the key function's key with the configured options.
func TestCacheStoresWithClientOptions(t *testing.T) {
	t.Parallel()

	server := testserver.New()
	defer server.Close()

	c := gomock.NewController(t)
	defer c.Finish()

	cache := mocks.NewMockCache(c)
	opts := hammock.CacheOptions{Duration: 10 * time.Minute, Mode: hammock.SlidingExpiration}

	client := hammock.New(
		hammock.WithAuthority(server.URL),
		hammock.WithCache(cache),
		hammock.WithCacheKeyFunc(func() string { return "hammock" }),
		hammock.WithCacheOptions(opts),
	)

	gomock.InOrder(
		cache.EXPECT().Get("hammock").Return(nil, false),
		cache.EXPECT().Set("hammock", gomock.Any(), opts).Do(func(_ string, entry *hammock.CacheEntry, _ hammock.CacheOptions) {
			require.Equal(t, http.StatusOK, entry.StatusCode)
			require.Equal(t, "GET /echo", string(entry.Body))
		}),
	)

	resp, err := client.Request(testContext(t), hammock.NewRequest("echo"))
	require.NoError(t, err)
	require.False(t, resp.IsFromCache)
}

// TestCacheHitSkipsNetwork ensures a cached entry is served without a call.
func TestCacheHitSkipsNetwork(t *testing.T) {
	t.Parallel()

	server := testserver.New()
	defer server.Close()

	c := gomock.NewController(t)
	defer c.Finish()

	cache := mocks.NewMockCache(c)
	entry := &hammock.CacheEntry{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       []byte("cached"),
	}

	client := hammock.New(
		hammock.WithAuthority(server.URL),
		hammock.WithCache(cache),
		hammock.WithCacheKeyFunc(func() string { return "hammock" }),
	)

	cache.EXPECT().Get("hammock").Return(entry, true)

	resp, err := client.Request(testContext(t), hammock.NewRequest("echo"))
	require.NoError(t, err)
	require.True(t, resp.IsFromCache)
	require.Equal(t, "cached", resp.ContentString())
	require.Equal(t, "text/plain", resp.ContentType())
	require.Empty(t, server.Requests())
}

// TestCacheNotTouchedWithoutKeyFunc ensures misconfiguration fails before
// the cache is consulted.
func TestCacheNotTouchedWithoutKeyFunc(t *testing.T) {
	t.Parallel()

	c := gomock.NewController(t)
	defer c.Finish()

	cache := mocks.NewMockCache(c)

	client := hammock.New(
		hammock.WithAuthority("http://example.com"),
		hammock.WithCache(cache),
	)

	_, err := client.Request(testContext(t), hammock.NewRequest("echo"))
	require.Error(t, err)
	require.True(t, hammock.IsConfigurationError(err))
	require.ErrorIs(t, err, hammock.ErrMissingCacheKeyFunc)
}
