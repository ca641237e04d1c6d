package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/syncapps/chanbridge/internal/database/migrations"
	"github.com/syncapps/chanbridge/internal/domain"
)

// setupTestDB starts a throwaway Postgres container, applies migrations and
// returns a connected pool. Skips the test when Docker is unavailable.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	var pgContainer *postgres.PostgresContainer
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("Skipping integration test due to panic (likely Docker issue): %v", r)
			}
		}()
		pgContainer, err = postgres.Run(ctx,
			"postgres:15-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("testuser"),
			postgres.WithPassword("testpass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(5*time.Second)),
		)
	}()
	if err != nil {
		t.Skipf("Skipping integration test: failed to start postgres container: %v", err)
	}
	if pgContainer == nil {
		t.Skip("Skipping integration test: container unavailable")
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, migrations.Up(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func TestChannelLinkRepository_Integration(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewChannelLinkRepository(pool)
	ctx := context.Background()

	link := domain.ChannelLink{
		SlackTeamID:    "T123",
		SlackChannelID: "C100",
		SpaceClientID:  "app-1",
		SpaceChannelID: "ch-100",
	}

	t.Run("AddIfAbsent creates once", func(t *testing.T) {
		created, err := repo.AddIfAbsent(ctx, link)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.AddIfAbsent(ctx, link)
		require.NoError(t, err)
		assert.False(t, created, "Duplicate pairing must not create a second row")
	})

	t.Run("GetBySlackChannel", func(t *testing.T) {
		got, err := repo.GetBySlackChannel(ctx, "T123", "C100")
		require.NoError(t, err)
		assert.Equal(t, "ch-100", got.SpaceChannelID)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("GetBySpaceChannel", func(t *testing.T) {
		got, err := repo.GetBySpaceChannel(ctx, "app-1", "ch-100")
		require.NoError(t, err)
		assert.Equal(t, "C100", got.SlackChannelID)
	})

	t.Run("Missing link returns sentinel", func(t *testing.T) {
		_, err := repo.GetBySlackChannel(ctx, "T123", "C999")
		assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	})

	t.Run("ListBySlackTeam", func(t *testing.T) {
		second := link
		second.SlackChannelID = "C101"
		second.SpaceChannelID = "ch-101"
		_, err := repo.AddIfAbsent(ctx, second)
		require.NoError(t, err)

		links, err := repo.ListBySlackTeam(ctx, "T123")
		require.NoError(t, err)
		assert.Len(t, links, 2)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, repo.Remove(ctx, link))
		err := repo.Remove(ctx, link)
		assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	})

	t.Run("RemoveBySlackTeam", func(t *testing.T) {
		require.NoError(t, repo.RemoveBySlackTeam(ctx, "T123"))
		links, err := repo.ListBySlackTeam(ctx, "T123")
		require.NoError(t, err)
		assert.Empty(t, links)
	})
}

func TestMessageRefRepository_Integration(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewMessageRefRepository(pool)
	ctx := context.Background()

	t.Run("SetIfAbsent is idempotent", func(t *testing.T) {
		require.NoError(t, repo.SetIfAbsent(ctx, "T123", "1700000000.000100", "space-msg-1"))
		require.NoError(t, repo.SetIfAbsent(ctx, "T123", "1700000000.000100", "space-msg-other"))

		ref, err := repo.GetBySlackMessage(ctx, "T123", "1700000000.000100")
		require.NoError(t, err)
		assert.Equal(t, "space-msg-1", ref.SpaceMessageID, "First insert wins")
	})

	t.Run("GetBySpaceMessage", func(t *testing.T) {
		ref, err := repo.GetBySpaceMessage(ctx, "T123", "space-msg-1")
		require.NoError(t, err)
		assert.Equal(t, "1700000000.000100", ref.SlackMessageID)
	})

	t.Run("Missing ref returns sentinel", func(t *testing.T) {
		_, err := repo.GetBySlackMessage(ctx, "T123", "nope")
		assert.ErrorIs(t, err, domain.ErrRefNotFound)
	})

	t.Run("MarkDeleted is idempotent", func(t *testing.T) {
		require.NoError(t, repo.MarkDeletedBySlackMessage(ctx, "T123", "1700000000.000100"))
		require.NoError(t, repo.MarkDeletedBySlackMessage(ctx, "T123", "1700000000.000100"))

		ref, err := repo.GetBySlackMessage(ctx, "T123", "1700000000.000100")
		require.NoError(t, err)
		assert.True(t, ref.Deleted)
	})

	t.Run("MarkDeletedBySpaceMessage", func(t *testing.T) {
		require.NoError(t, repo.SetIfAbsent(ctx, "T123", "1700000001.000200", "space-msg-2"))
		require.NoError(t, repo.MarkDeletedBySpaceMessage(ctx, "T123", "space-msg-2"))

		ref, err := repo.GetBySpaceMessage(ctx, "T123", "space-msg-2")
		require.NoError(t, err)
		assert.True(t, ref.Deleted)
	})
}

func TestSlackTeamRepository_Integration(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSlackTeamRepository(pool)
	ctx := context.Background()

	team := domain.SlackTeam{
		ID:                   "T777",
		Domain:               "acme",
		SpaceClientID:        "app-7",
		AccessToken:          []byte("sealed-access"),
		RefreshToken:         []byte("sealed-refresh"),
		AccessTokenExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}

	t.Run("CreateOrUpdate and GetByID", func(t *testing.T) {
		require.NoError(t, repo.CreateOrUpdate(ctx, team))

		got, err := repo.GetByID(ctx, "T777")
		require.NoError(t, err)
		assert.Equal(t, "acme", got.Domain)
		assert.Equal(t, []byte("sealed-access"), got.AccessToken)
		assert.False(t, got.TokenInvalid)
	})

	t.Run("Missing team returns sentinel", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "T000")
		assert.ErrorIs(t, err, domain.ErrTeamNotFound)
	})

	t.Run("UpdateDomain", func(t *testing.T) {
		require.NoError(t, repo.UpdateDomain(ctx, "T777", "acme-renamed"))
		got, err := repo.GetByID(ctx, "T777")
		require.NoError(t, err)
		assert.Equal(t, "acme-renamed", got.Domain)
	})

	t.Run("MarkTokenInvalid then UpdateTokens clears flag", func(t *testing.T) {
		require.NoError(t, repo.MarkTokenInvalid(ctx, "T777"))
		got, err := repo.GetByID(ctx, "T777")
		require.NoError(t, err)
		assert.True(t, got.TokenInvalid)

		newExpiry := time.Now().Add(12 * time.Hour).UTC().Truncate(time.Second)
		require.NoError(t, repo.UpdateTokens(ctx, "T777", []byte("new-access"), []byte("new-refresh"), newExpiry))

		got, err = repo.GetByID(ctx, "T777")
		require.NoError(t, err)
		assert.False(t, got.TokenInvalid)
		assert.Equal(t, []byte("new-access"), got.AccessToken)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "T777"))
		_, err := repo.GetByID(ctx, "T777")
		assert.ErrorIs(t, err, domain.ErrTeamNotFound)
	})
}

func TestSpaceOrgAndDirectory_Integration(t *testing.T) {
	pool := setupTestDB(t)
	orgs := NewSpaceOrgRepository(pool)
	dirs := NewChannelDirectoryRepository(pool)
	ctx := context.Background()

	t.Run("SpaceOrg save and get", func(t *testing.T) {
		org := domain.SpaceOrg{
			ClientID:     "app-9",
			ClientSecret: []byte("sealed-secret"),
			ServerURL:    "https://acme.jetbrains.space",
		}
		require.NoError(t, orgs.Save(ctx, org))

		got, err := orgs.GetByClientID(ctx, "app-9")
		require.NoError(t, err)
		assert.Equal(t, "https://acme.jetbrains.space", got.ServerURL)

		_, err = orgs.GetByClientID(ctx, "missing")
		assert.True(t, errors.Is(err, domain.ErrOrgNotFound))

		require.NoError(t, orgs.Delete(ctx, "app-9"))
	})

	t.Run("Directory store, get, clear", func(t *testing.T) {
		dir := domain.TeamDirectory{
			TeamID: "T555",
			Channels: []domain.ChannelInfo{
				{ID: "C1", Name: "general"},
				{ID: "C2", Name: "random"},
			},
		}
		require.NoError(t, dirs.Store(ctx, dir))

		got, err := dirs.Get(ctx, "T555")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Len(t, got.Channels, 2)

		require.NoError(t, dirs.ClearTeam(ctx, "T555"))
		got, err = dirs.Get(ctx, "T555")
		require.NoError(t, err)
		assert.Nil(t, got, "Cleared team has no snapshot")
	})
}
