package space

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client talks to one Space organization using the client-credentials
// flow. Bearer tokens are short-lived and cached in memory only; the
// persisted secret is all that survives a restart.
type Client struct {
	httpClient   *http.Client
	serverURL    string
	clientID     string
	clientSecret string

	mu          sync.Mutex
	bearer      string
	bearerUntil time.Time

	now func() time.Time
}

// NewClient builds an organization-bound client. serverURL is the org's
// base URL, clientSecret the unsealed application secret.
func NewClient(httpClient *http.Client, serverURL, clientID, clientSecret string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{
		httpClient:   httpClient,
		serverURL:    strings.TrimSuffix(serverURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

// token returns a cached bearer token, fetching a new one when the
// cached one is close to expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bearer != "" && c.now().Before(c.bearerUntil) {
		return c.bearer, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+pathOAuthToken, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("space token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("space token request returned status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.bearer = tok.AccessToken
	c.bearerUntil = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - bearerExpirySlack)
	return c.bearer, nil
}

// ImportMessages creates, updates or deletes bridged messages in a
// channel or thread, keyed by their external (source platform) IDs.
func (c *Client) ImportMessages(ctx context.Context, channel ChannelIdentifier, messages []ImportMessage, suppressNotifications bool) error {
	req := importRequest{
		Channel:               channel,
		Messages:              messages,
		SuppressNotifications: suppressNotifications,
	}
	return c.call(ctx, http.MethodPost, pathImportMessages, req, nil)
}

// GetMessage fetches a full message record by its internal ID.
func (c *Client) GetMessage(ctx context.Context, channelID, messageID string) (*ChannelItemRecord, error) {
	body := map[string]string{"channelId": channelID, "messageId": messageID}
	var record ChannelItemRecord
	if err := c.call(ctx, http.MethodPost, pathGetMessage, body, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetMessageByExternalID fetches a message by the source platform's ID.
// Used to recover thread roots synced before this process started.
func (c *Client) GetMessageByExternalID(ctx context.Context, channelID, externalID string) (*ChannelItemRecord, error) {
	body := map[string]string{"channelId": channelID, "externalId": externalID}
	var record ChannelItemRecord
	if err := c.call(ctx, http.MethodPost, pathGetMessage, body, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetThreadRoot fetches the root message of a thread. Threads are
// channels of their own; the root is the channel content record.
func (c *Client) GetThreadRoot(ctx context.Context, threadID string) (*ChannelItemRecord, error) {
	body := map[string]string{"channelId": threadID}
	var channel struct {
		Content struct {
			Record *ChannelItemRecord `json:"record"`
		} `json:"content"`
	}
	if err := c.call(ctx, http.MethodPost, pathGetChannel, body, &channel); err != nil {
		return nil, err
	}
	return channel.Content.Record, nil
}

// GetPublicAttachmentURL returns a short-lived public URL for a chat
// attachment, suitable for handing to the other platform.
func (c *Client) GetPublicAttachmentURL(ctx context.Context, channelID, messageID, attachmentID string) (string, error) {
	body := map[string]string{
		"channelId":    channelID,
		"messageId":    messageID,
		"attachmentId": attachmentID,
	}
	var publicURL string
	if err := c.call(ctx, http.MethodPost, pathAttachmentURL, body, &publicURL); err != nil {
		return "", err
	}
	return publicURL, nil
}

// ParseMarkdown converts markdown text into the rich text tree the
// translator walks.
func (c *Client) ParseMarkdown(ctx context.Context, text string) (*RtDocument, error) {
	body := map[string]string{"text": text}
	var doc RtDocument
	if err := c.call(ctx, http.MethodPost, pathParseMarkdown, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetProfileByEmail resolves a member by verified email. A 404 returns
// (nil, nil); most lookups are expected misses.
func (c *Client) GetProfileByEmail(ctx context.Context, email string) (*ProfileRecord, error) {
	path := pathProfiles + "/email:" + url.PathEscape(email)
	var profile ProfileRecord
	err := c.call(ctx, http.MethodGet, path, nil, &profile)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfile fetches a member profile by ID.
func (c *Client) GetProfile(ctx context.Context, profileID string) (*ProfileRecord, error) {
	path := pathProfiles + "/id:" + url.PathEscape(profileID)
	var profile ProfileRecord
	if err := c.call(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateUpload opens an upload slot and returns its server path.
func (c *Client) CreateUpload(ctx context.Context) (string, error) {
	body := map[string]string{"storagePrefix": UploadStorageKey}
	var uploadPath string
	if err := c.call(ctx, http.MethodPost, pathCreateUpload, body, &uploadPath); err != nil {
		return "", err
	}
	return uploadPath, nil
}

// Upload PUTs attachment bytes into an upload slot and returns the
// attachment ID to reference from a message.
func (c *Client) Upload(ctx context.Context, uploadPath, name string, data []byte) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	endpoint := c.serverURL + uploadPath + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("space upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("space upload returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	var attachmentID string
	if err := json.Unmarshal(raw, &attachmentID); err != nil {
		// some server versions return the bare id
		attachmentID = strings.TrimSpace(string(raw))
	}
	return attachmentID, nil
}

// RegisterUIExtension points the application homepage iframe at this
// service. Called on install.
func (c *Client) RegisterUIExtension(ctx context.Context) error {
	body := map[string]any{
		"contextIdentifier": "global",
		"extensions": []map[string]any{
			{"className": "ApplicationHomepageUiExtensionIn", "iframeUrl": HomepageUIExtensionPath},
		},
	}
	return c.call(ctx, http.MethodPatch, pathSetUIExtensions, body, nil)
}

// RequestRights asks the organization to grant the permissions the
// bridge needs. Called on install.
func (c *Client) RequestRights(ctx context.Context, rightCodes ...string) error {
	if len(rightCodes) == 0 {
		rightCodes = []string{RightViewMemberProfiles}
	}
	body := map[string]any{
		"application":       "me",
		"contextIdentifier": "global",
		"rightCodes":        rightCodes,
	}
	return c.call(ctx, http.MethodPost, pathRequestRights, body, nil)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("space api returned status %d: %s", e.code, e.body)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request for %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("space request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}
