package sync

import (
	"context"
	"strings"

	"github.com/syncapps/chanbridge/internal/logger"
	"github.com/syncapps/chanbridge/internal/slack"
	"github.com/syncapps/chanbridge/internal/space"
	"github.com/syncapps/chanbridge/internal/translate"
)

// Identity matching is email-based in both directions: a Slack member
// and a Space member are the same person when they share a verified
// email. Misses are expected (guests, bots, unlinked accounts) and fall
// back to name rendering, never to errors.

// spaceProfileForSlackUser resolves a Slack user to a Space profile.
// Either return value may be nil without error.
func (sc *syncContext) spaceProfileForSlackUser(ctx context.Context, userID string) (*slack.User, *space.ProfileRecord, error) {
	if userID == "" {
		return nil, nil, nil
	}
	user, err := sc.slackAPI.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		return nil, nil, err
	}
	if user.Profile.Email == "" {
		return user, nil, nil
	}
	profile, err := sc.spaceAPI.GetProfileByEmail(ctx, user.Profile.Email)
	if err != nil {
		logger.FromContext(ctx).Debug("space profile lookup failed", "user_id", userID, "error", err)
		return user, nil, nil
	}
	return user, profile, nil
}

// resolveMentions maps every mentioned Slack user to its destination
// rendering in one pass over the directory.
func (sc *syncContext) resolveMentions(ctx context.Context, userIDs []string) map[string]translate.UserMention {
	mentions := make(map[string]translate.UserMention, len(userIDs))
	for _, userID := range userIDs {
		user, profile, err := sc.spaceProfileForSlackUser(ctx, userID)
		if err != nil || user == nil {
			continue
		}
		mention := translate.UserMention{DisplayName: user.NameToUse()}
		if profile != nil {
			mention.SpaceUsername = profile.Username
		}
		mentions[userID] = mention
	}
	return mentions
}

// slackUserForSpaceProfile resolves a Space profile to a Slack member by
// trying each of its non-blocked emails.
func (sc *syncContext) slackUserForSpaceProfile(ctx context.Context, profile *space.ProfileRecord) (*slack.User, error) {
	if profile == nil {
		return nil, nil
	}
	for _, email := range profile.Emails {
		if email.Blocked || email.Email == "" {
			continue
		}
		user, err := sc.slackAPI.LookupUserByEmail(ctx, strings.ToLower(email.Email))
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, nil
}

// resolveProfileNames maps mentioned Space profile IDs to Slack handles
// for mention substitution in the rendered text.
func (sc *syncContext) resolveProfileNames(ctx context.Context, profileIDs []string) map[string]string {
	names := make(map[string]string, len(profileIDs))
	for _, profileID := range profileIDs {
		profile, err := sc.spaceAPI.GetProfile(ctx, profileID)
		if err != nil || profile == nil {
			continue
		}
		user, err := sc.slackUserForSpaceProfile(ctx, profile)
		if err != nil || user == nil {
			continue
		}
		names[profileID] = user.Name
	}
	return names
}
