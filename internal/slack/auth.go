package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/syncapps/chanbridge/internal/concurrency"
	"github.com/syncapps/chanbridge/internal/domain"
	"github.com/syncapps/chanbridge/internal/logger"
	"github.com/syncapps/chanbridge/internal/metrics"
	"github.com/syncapps/chanbridge/internal/repository"
	"github.com/syncapps/chanbridge/internal/secrets"
)

// OAuthRefresher performs the refresh_token grant against the OAuth
// endpoint. Implemented by Client; faked in tests.
type OAuthRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*OAuthAccessResponse, error)
}

// slackErrorsToResetToken are terminal: they indicate a revoked grant,
// not an expired token. No refresh is attempted for these.
var slackErrorsToResetToken = map[string]bool{
	errInvalidAuth:       true,
	errAccountInactive:   true,
	errNoPermission:      true,
	errMissingScope:      true,
	errNotAllowedToken:   true,
	errCannotFindService: true,
}

// retryableAuthErrors get exactly one refresh-and-retry.
var retryableAuthErrors = map[string]bool{
	errTokenExpired:   true,
	errCannotAuthUser: true,
	errInvalidAuth:    true,
}

// noLogActionToError suppresses warnings for expected-miss responses.
var noLogActionToError = map[[2]string]bool{
	{methodLookupByEmail, errUsersNotFound}: true,
}

type tokens struct {
	access    string
	refresh   string
	expiresAt time.Time
}

// TokenSource manages one workspace's rotating credentials: proactive
// refresh inside the expiry lookahead, one-shot refresh-and-retry on
// auth errors, reload-from-store before conceding a refresh race, and
// terminal invalidation. Safe for concurrent use; at most one refresh is
// in flight per team.
type TokenSource struct {
	teamID    string
	store     repository.SlackTeams
	sealer    *secrets.Sealer
	locks     *concurrency.LockManager
	refresher OAuthRefresher

	// guarded by the team's lock
	tokens  *tokens
	invalid bool

	now func() time.Time
}

// NewTokenSource unseals the team's persisted credentials. Teams already
// flagged invalid fail fast on every call until re-auth replaces the row.
func NewTokenSource(team *domain.SlackTeam, store repository.SlackTeams, sealer *secrets.Sealer, locks *concurrency.LockManager, refresher OAuthRefresher) (*TokenSource, error) {
	ts := &TokenSource{
		teamID:    team.ID,
		store:     store,
		sealer:    sealer,
		locks:     locks,
		refresher: refresher,
		invalid:   team.TokenInvalid,
		now:       time.Now,
	}
	if team.TokenInvalid {
		return ts, nil
	}

	unsealed, err := ts.unseal(team)
	if err != nil {
		return nil, err
	}
	ts.tokens = unsealed
	return ts, nil
}

func (ts *TokenSource) unseal(team *domain.SlackTeam) (*tokens, error) {
	access, err := ts.sealer.OpenString(team.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal access token: %w", err)
	}
	refresh, err := ts.sealer.OpenString(team.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal refresh token: %w", err)
	}
	return &tokens{access: access, refresh: refresh, expiresAt: team.AccessTokenExpiresAt}, nil
}

// Do runs an API call under the token lifecycle: it supplies a current
// access token, inspects the Slack error code the call reports, and
// retries exactly once after a refresh when the code says the token
// expired. Terminal codes mark the team invalid and surface the error.
func (ts *TokenSource) Do(ctx context.Context, action string, call func(accessToken string) (APIResponse, error)) error {
	token, err := ts.AccessToken(ctx)
	if err != nil {
		return err
	}

	status, err := call(token)
	if err != nil {
		return err
	}
	if status.OK {
		return nil
	}

	return ts.handleAPIError(ctx, action, status.Error, call)
}

func (ts *TokenSource) handleAPIError(ctx context.Context, action, apiError string, call func(string) (APIResponse, error)) error {
	log := logger.FromContext(ctx)

	if retryableAuthErrors[apiError] && call != nil {
		if err := ts.refresh(ctx, false); err != nil {
			return err
		}
		token, err := ts.AccessToken(ctx)
		if err != nil {
			return err
		}
		status, err := call(token)
		if err != nil {
			return err
		}
		if status.OK {
			return nil
		}
		// second failure is final for this call
		return ts.handleAPIError(ctx, action, status.Error, nil)
	}

	if !noLogActionToError[[2]string{action, apiError}] {
		log.Warn(LogMsgAPIError, "action", action, "error", apiError)
	}

	if slackErrorsToResetToken[apiError] {
		ts.markInvalid(ctx)
	}
	return fmt.Errorf("slack api %s: %s", action, apiError)
}

// AccessToken returns a token valid for at least the lookahead window,
// refreshing first when the cached one is about to expire.
func (ts *TokenSource) AccessToken(ctx context.Context) (string, error) {
	mu := ts.locks.GetLock(ts.teamID)
	mu.Lock()
	if ts.invalid || ts.tokens == nil {
		mu.Unlock()
		return "", fmt.Errorf("team %s: %w", ts.teamID, domain.ErrTokenInvalid)
	}
	needsRefresh := ts.tokens.expiresAt.Before(ts.now().Add(TokenExpiryLookahead))
	token := ts.tokens.access
	mu.Unlock()

	if !needsRefresh {
		return token, nil
	}

	if err := ts.refresh(ctx, true); err != nil {
		return "", err
	}

	mu.Lock()
	defer mu.Unlock()
	if ts.invalid || ts.tokens == nil {
		return "", fmt.Errorf("team %s: %w", ts.teamID, domain.ErrTokenInvalid)
	}
	return ts.tokens.access, nil
}

// refresh rotates the credential pair. Holding the team lock for the
// duration gives single-flight semantics: a caller that waited finds the
// fresh token already in place and returns without a second network call.
func (ts *TokenSource) refresh(ctx context.Context, recheckExpiry bool) error {
	log := logger.FromContext(ctx)

	mu := ts.locks.GetLock(ts.teamID)
	mu.Lock()
	defer mu.Unlock()

	if ts.invalid || ts.tokens == nil {
		return fmt.Errorf("team %s: %w", ts.teamID, domain.ErrTokenInvalid)
	}
	if recheckExpiry && ts.tokens.expiresAt.After(ts.now().Add(TokenExpiryLookahead)) {
		// someone else refreshed while we waited on the lock
		return nil
	}

	log.Info(LogMsgRefreshingToken, "team_id", ts.teamID)
	oldRefresh := ts.tokens.refresh

	resp, err := ts.refresher.RefreshAccessToken(ctx, oldRefresh)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues(metrics.RefreshOutcomeFailure).Inc()
		return fmt.Errorf("%w: %v", domain.ErrRefreshFailed, err)
	}
	if !resp.OK {
		metrics.TokenRefreshes.WithLabelValues(metrics.RefreshOutcomeFailure).Inc()
		return ts.handleRefreshError(ctx, resp.Error, oldRefresh)
	}

	newAccess := resp.AccessToken
	expiresIn := resp.ExpiresIn
	newRefresh := resp.RefreshToken
	if newAccess == "" && resp.AuthedUser != nil {
		newAccess = resp.AuthedUser.AccessToken
		expiresIn = resp.AuthedUser.ExpiresIn
		newRefresh = resp.AuthedUser.RefreshToken
	}
	if newAccess == "" {
		metrics.TokenRefreshes.WithLabelValues(metrics.RefreshOutcomeFailure).Inc()
		return fmt.Errorf("%w: response carried no access token", domain.ErrRefreshFailed)
	}
	if newRefresh == "" {
		newRefresh = oldRefresh
	}

	expiresAt := ts.now().Add(time.Duration(expiresIn) * time.Second)
	ts.tokens = &tokens{access: newAccess, refresh: newRefresh, expiresAt: expiresAt}

	if err := ts.persist(ctx, ts.tokens); err != nil {
		return err
	}

	metrics.TokenRefreshes.WithLabelValues(metrics.RefreshOutcomeSuccess).Inc()
	log.Info(LogMsgTokenRefreshed, "team_id", ts.teamID, "rotated_refresh_token", newRefresh != oldRefresh)
	return nil
}

// handleRefreshError deals with a rejected refresh. invalid_refresh_token
// may just mean another process rotated the pair first, so the store is
// consulted before the team is written off.
func (ts *TokenSource) handleRefreshError(ctx context.Context, apiError, failedRefresh string) error {
	log := logger.FromContext(ctx)
	log.Warn("Slack token refresh rejected", "team_id", ts.teamID, "error", apiError)

	switch apiError {
	case errInvalidRefreshTok:
		team, err := ts.store.GetByID(ctx, ts.teamID)
		if err != nil {
			return fmt.Errorf("%w: reload after %s: %v", domain.ErrRefreshFailed, apiError, err)
		}
		reloaded, err := ts.unseal(team)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrRefreshFailed, err)
		}
		if reloaded.refresh != failedRefresh {
			ts.tokens = reloaded
			return nil
		}
		ts.markInvalidLocked(ctx)
		return fmt.Errorf("team %s: %w", ts.teamID, domain.ErrTokenInvalid)

	case errInvalidClientID, errBadClientSecret:
		// app-level credentials are broken; every team is affected, so
		// do not invalidate this one in the store
		return fmt.Errorf("%w: app credentials rejected: %s", domain.ErrRefreshFailed, apiError)

	default:
		return fmt.Errorf("%w: %s", domain.ErrRefreshFailed, apiError)
	}
}

func (ts *TokenSource) persist(ctx context.Context, t *tokens) error {
	sealedAccess, err := ts.sealer.SealString(t.access)
	if err != nil {
		return fmt.Errorf("failed to seal access token: %w", err)
	}
	sealedRefresh, err := ts.sealer.SealString(t.refresh)
	if err != nil {
		return fmt.Errorf("failed to seal refresh token: %w", err)
	}
	if err := ts.store.UpdateTokens(ctx, ts.teamID, sealedAccess, sealedRefresh, t.expiresAt); err != nil {
		return fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}
	return nil
}

func (ts *TokenSource) markInvalid(ctx context.Context) {
	mu := ts.locks.GetLock(ts.teamID)
	mu.Lock()
	defer mu.Unlock()
	ts.markInvalidLocked(ctx)
}

func (ts *TokenSource) markInvalidLocked(ctx context.Context) {
	if ts.invalid {
		return
	}
	ts.invalid = true
	ts.tokens = nil
	metrics.TokensInvalidated.Inc()
	if err := ts.store.MarkTokenInvalid(ctx, ts.teamID); err != nil {
		logger.FromContext(ctx).Error("Failed to persist token invalidation", "team_id", ts.teamID, "error", err)
	}
	logger.FromContext(ctx).Warn(LogMsgTokenMarkedInvalid, "team_id", ts.teamID)
}
