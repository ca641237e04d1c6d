package sync

import (
	"context"
	"fmt"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/syncapps/chanbridge/internal/domain"
	"github.com/syncapps/chanbridge/internal/metrics"
	"github.com/syncapps/chanbridge/internal/repository"
)

// DirectoryCache serves per-team channel listings for the admin API
// without walking conversations.list on every request. Two layers: an
// in-process LRU with TTL, backed by a persistent snapshot that
// survives restarts. Channel lifecycle events invalidate one team.
type DirectoryCache struct {
	store repository.ChannelDirectory
	mem   *expirable.LRU[string, []domain.ChannelInfo]
}

func NewDirectoryCache(store repository.ChannelDirectory) *DirectoryCache {
	return &DirectoryCache{
		store: store,
		mem:   expirable.NewLRU[string, []domain.ChannelInfo](DirectoryCacheSize, nil, DirectoryCacheTTL),
	}
}

// Channels returns the team's channel list, refreshing from the Slack
// API on a cold cache.
func (c *DirectoryCache) Channels(ctx context.Context, teamID string, api SlackAPI) ([]domain.ChannelInfo, error) {
	if channels, ok := c.mem.Get(teamID); ok {
		metrics.DirectoryLookups.WithLabelValues(metrics.ResultCacheHit).Inc()
		return channels, nil
	}

	if dir, err := c.store.Get(ctx, teamID); err == nil && dir != nil {
		metrics.DirectoryLookups.WithLabelValues(metrics.ResultCacheHit).Inc()
		c.mem.Add(teamID, dir.Channels)
		return dir.Channels, nil
	}

	metrics.DirectoryLookups.WithLabelValues(metrics.ResultCacheMiss).Inc()

	listed, err := api.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	channels := make([]domain.ChannelInfo, 0, len(listed))
	for _, ch := range listed {
		channels = append(channels, domain.ChannelInfo{ID: ch.ID, Name: ch.Name})
	}

	if err := c.store.Store(ctx, domain.TeamDirectory{TeamID: teamID, Channels: channels}); err != nil {
		return nil, fmt.Errorf("failed to store channel directory: %w", err)
	}
	c.mem.Add(teamID, channels)
	return channels, nil
}

// Invalidate drops one team's cached listing in both layers.
func (c *DirectoryCache) Invalidate(ctx context.Context, teamID string) error {
	c.mem.Remove(teamID)
	return c.store.ClearTeam(ctx, teamID)
}

// InvalidateAll drops every cached listing.
func (c *DirectoryCache) InvalidateAll(ctx context.Context) error {
	c.mem.Purge()
	return c.store.ClearAll(ctx)
}
