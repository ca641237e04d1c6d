package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client is a thin wrapper over the Slack Web API for one workspace.
// Every call goes through the TokenSource so token rotation and terminal
// invalidation stay transparent to callers.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	tokenSource  *TokenSource
}

// NewClient builds a workspace-bound client. The token source is attached
// afterwards with SetTokenSource because the source itself needs the
// client for the refresh grant.
func NewClient(httpClient *http.Client, baseURL, clientID, clientSecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (c *Client) SetTokenSource(ts *TokenSource) {
	c.tokenSource = ts
}

// RefreshAccessToken implements OAuthRefresher with the refresh_token
// grant. This call authenticates with the app credentials, not a token,
// so it bypasses the token source.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*OAuthAccessResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+methodOAuthAccess, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build oauth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp OAuthAccessResponse
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PostMessage posts a message and returns its timestamp ID.
func (c *Client) PostMessage(ctx context.Context, msg PostMessageRequest) (*PostMessageResponse, error) {
	var resp PostMessageResponse
	err := c.callJSON(ctx, methodPostMessage, msg, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateMessage edits a message in place.
func (c *Client) UpdateMessage(ctx context.Context, msg UpdateMessageRequest) error {
	var resp PostMessageResponse
	return c.callJSON(ctx, methodUpdateMessage, msg, &resp)
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, channelID, ts string) error {
	var resp APIResponse
	return c.callJSON(ctx, methodDeleteMessage, DeleteMessageRequest{Channel: channelID, TS: ts}, &resp)
}

// GetChannelInfo fetches one channel record.
func (c *Client) GetChannelInfo(ctx context.Context, channelID string) (*Channel, error) {
	var resp ConversationsInfoResponse
	params := url.Values{"channel": {channelID}}
	if err := c.callGet(ctx, methodConversationsInfo, params, &resp); err != nil {
		return nil, err
	}
	return resp.Channel, nil
}

// ListChannels walks conversations.list with cursor pagination, bounded
// by MaxChannelPages so a hostile cursor can never loop forever.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	cursor := ""
	for page := 0; page < MaxChannelPages; page++ {
		var resp ConversationsListResponse
		params := url.Values{
			"limit":            {strconv.Itoa(ChannelPageSize)},
			"exclude_archived": {"true"},
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		if err := c.callGet(ctx, methodConversationsList, params, &resp); err != nil {
			return nil, err
		}
		channels = append(channels, resp.Channels...)

		if resp.ResponseMetadata == nil || resp.ResponseMetadata.NextCursor == "" {
			return channels, nil
		}
		cursor = resp.ResponseMetadata.NextCursor
	}
	return channels, nil
}

// GetUserByID fetches one member record.
func (c *Client) GetUserByID(ctx context.Context, userID string) (*User, error) {
	var resp UsersInfoResponse
	params := url.Values{"user": {userID}}
	if err := c.callGet(ctx, methodUsersInfo, params, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// LookupUserByEmail resolves a member by verified email. A users_not_found
// miss returns (nil, nil); that is the expected answer for most lookups.
func (c *Client) LookupUserByEmail(ctx context.Context, email string) (*User, error) {
	var resp UsersLookupByEmailResponse
	params := url.Values{"email": {email}}
	err := c.callGet(ctx, methodLookupByEmail, params, &resp)
	if err != nil {
		if strings.Contains(err.Error(), errUsersNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.User, nil
}

// GetTeamInfo fetches the workspace record for a team.
func (c *Client) GetTeamInfo(ctx context.Context, teamID string) (*Team, error) {
	var resp TeamInfoResponse
	params := url.Values{"team": {teamID}}
	if err := c.callGet(ctx, methodTeamInfo, params, &resp); err != nil {
		return nil, err
	}
	return resp.Team, nil
}

// ListUsergroups lists the workspace's user groups.
func (c *Client) ListUsergroups(ctx context.Context) ([]Usergroup, error) {
	var resp UsergroupsListResponse
	if err := c.callGet(ctx, methodUsergroupsList, url.Values{}, &resp); err != nil {
		return nil, err
	}
	return resp.Usergroups, nil
}

// AddRemoteFile registers an externally hosted file so it renders as an
// attachment in Slack.
func (c *Client) AddRemoteFile(ctx context.Context, req FilesRemoteAddRequest) error {
	var resp APIResponse
	return c.callJSON(ctx, methodFilesRemoteAdd, req, &resp)
}

// DownloadFile fetches a private attachment using the workspace token.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	var body []byte
	err := c.tokenSource.Do(ctx, "download_file", func(token string) (APIResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
		if err != nil {
			return APIResponse{}, fmt.Errorf("failed to build download request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return APIResponse{}, fmt.Errorf("failed to download file: %w", err)
		}
		defer httpResp.Body.Close()

		if httpResp.StatusCode != http.StatusOK {
			return APIResponse{}, fmt.Errorf("file download returned status %d", httpResp.StatusCode)
		}
		body, err = io.ReadAll(httpResp.Body)
		if err != nil {
			return APIResponse{}, fmt.Errorf("failed to read file body: %w", err)
		}
		return APIResponse{OK: true}, nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// callJSON POSTs a JSON body to a Web API method under the token
// lifecycle.
func (c *Client) callJSON(ctx context.Context, method string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	return c.tokenSource.Do(ctx, method, func(token string) (APIResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(payload))
		if err != nil {
			return APIResponse{}, fmt.Errorf("failed to build %s request: %w", method, err)
		}
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		req.Header.Set("Authorization", "Bearer "+token)

		if err := c.send(req, out); err != nil {
			return APIResponse{}, err
		}
		return statusOf(out), nil
	})
}

// callGet issues a form-encoded GET under the token lifecycle.
func (c *Client) callGet(ctx context.Context, method string, params url.Values, out any) error {
	return c.tokenSource.Do(ctx, method, func(token string) (APIResponse, error) {
		endpoint := c.baseURL + "/" + method
		if len(params) > 0 {
			endpoint += "?" + params.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return APIResponse{}, fmt.Errorf("failed to build %s request: %w", method, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		if err := c.send(req, out); err != nil {
			return APIResponse{}, err
		}
		return statusOf(out), nil
	})
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode slack response: %w", err)
	}
	return nil
}

// statusOf extracts the shared ok/error envelope from a typed response.
func statusOf(out any) APIResponse {
	switch v := out.(type) {
	case *APIResponse:
		return *v
	case *OAuthAccessResponse:
		return v.APIResponse
	case *TeamInfoResponse:
		return v.APIResponse
	case *ConversationsInfoResponse:
		return v.APIResponse
	case *ConversationsListResponse:
		return v.APIResponse
	case *UsersInfoResponse:
		return v.APIResponse
	case *UsersLookupByEmailResponse:
		return v.APIResponse
	case *UsergroupsListResponse:
		return v.APIResponse
	case *PostMessageResponse:
		return v.APIResponse
	default:
		return APIResponse{OK: true}
	}
}
