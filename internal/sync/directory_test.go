package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncapps/chanbridge/internal/domain"
	"github.com/syncapps/chanbridge/internal/slack"
)

func TestDirectoryCache(t *testing.T) {
	listing := []slack.Channel{{ID: "C1", Name: "general"}, {ID: "C2", Name: "random"}}
	want := []domain.ChannelInfo{{ID: "C1", Name: "general"}, {ID: "C2", Name: "random"}}

	t.Run("cold cache lists from the api once", func(t *testing.T) {
		store := &memDirectory{dirs: map[string]*domain.TeamDirectory{}}
		cache := NewDirectoryCache(store)
		api := newFakeSlackAPI()
		api.channelList = listing

		channels, err := cache.Channels(context.Background(), "T1", api)
		require.NoError(t, err)
		assert.Equal(t, want, channels)
		assert.Equal(t, 1, api.listCalls)

		channels, err = cache.Channels(context.Background(), "T1", api)
		require.NoError(t, err)
		assert.Equal(t, want, channels)
		assert.Equal(t, 1, api.listCalls, "second lookup should be served from memory")
	})

	t.Run("persistent snapshot survives a fresh cache", func(t *testing.T) {
		store := &memDirectory{dirs: map[string]*domain.TeamDirectory{}}
		api := newFakeSlackAPI()
		api.channelList = listing

		_, err := NewDirectoryCache(store).Channels(context.Background(), "T1", api)
		require.NoError(t, err)

		channels, err := NewDirectoryCache(store).Channels(context.Background(), "T1", api)
		require.NoError(t, err)
		assert.Equal(t, want, channels)
		assert.Equal(t, 1, api.listCalls, "restart should reuse the stored snapshot")
	})

	t.Run("invalidation drops one team only", func(t *testing.T) {
		store := &memDirectory{dirs: map[string]*domain.TeamDirectory{}}
		cache := NewDirectoryCache(store)
		api := newFakeSlackAPI()
		api.channelList = listing

		_, err := cache.Channels(context.Background(), "T1", api)
		require.NoError(t, err)
		_, err = cache.Channels(context.Background(), "T2", api)
		require.NoError(t, err)
		require.Equal(t, 2, api.listCalls)

		require.NoError(t, cache.Invalidate(context.Background(), "T1"))
		assert.NotContains(t, store.dirs, "T1")
		assert.Contains(t, store.dirs, "T2")

		_, err = cache.Channels(context.Background(), "T1", api)
		require.NoError(t, err)
		assert.Equal(t, 3, api.listCalls, "invalidated team refetches")

		_, err = cache.Channels(context.Background(), "T2", api)
		require.NoError(t, err)
		assert.Equal(t, 3, api.listCalls, "untouched team stays cached")
	})

	t.Run("invalidate all purges both layers", func(t *testing.T) {
		store := &memDirectory{dirs: map[string]*domain.TeamDirectory{}}
		cache := NewDirectoryCache(store)
		api := newFakeSlackAPI()
		api.channelList = listing

		_, err := cache.Channels(context.Background(), "T1", api)
		require.NoError(t, err)

		require.NoError(t, cache.InvalidateAll(context.Background()))
		assert.Empty(t, store.dirs)

		_, err = cache.Channels(context.Background(), "T1", api)
		require.NoError(t, err)
		assert.Equal(t, 2, api.listCalls)
	})
}
