package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"friendtrack/pkg/config"
	errs "friendtrack/pkg/errors"
	"friendtrack/pkg/logger"
	"friendtrack/pkg/retry"
)

// Client handles HTTP communication with the Roblox web API
type Client struct {
	httpClient     *http.Client
	headers        map[string]string
	usersBaseURL   string
	friendsBaseURL string
	retryConfig    *retry.Config
	logger         logger.Logger
}

// NewClient creates a new Roblox API client. The rate-limit config drives the
// retry policy applied to every call; rlConfig may be nil for defaults.
func NewClient(timeout time.Duration, rlConfig *config.RateLimitConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	maxRetries := 3
	retryDelay := 5 * time.Second
	if rlConfig != nil {
		if rlConfig.MaxRetries > 0 {
			maxRetries = rlConfig.MaxRetries
		}
		if rlConfig.RetryDelay > 0 {
			retryDelay = rlConfig.RetryDelay
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":   "Roblox/WinInet",
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
		usersBaseURL:   UsersBaseURL,
		friendsBaseURL: FriendsBaseURL,
		retryConfig: &retry.Config{
			// max_retries counts retries, not attempts: the first try is free
			MaxAttempts: maxRetries + 1,
			Backoff:     retry.RateLimitBackoff(retryDelay),
			RetryIf:     retry.DefaultRetryIf,
			Context:     context.Background(),
			Logger:      log,
		},
		logger: log,
	}
}

// SetCookie installs the .ROBLOSECURITY session cookie on all requests
func (c *Client) SetCookie(cookie string) {
	c.headers["Cookie"] = ".ROBLOSECURITY=" + cookie
}

// SetHeader sets a custom header for all requests
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetBaseURLs overrides the API base URLs (used in tests)
func (c *Client) SetBaseURLs(users, friends string) {
	c.usersBaseURL = users
	c.friendsBaseURL = friends
}

// SetContext sets the context used for retry cancellation
func (c *Client) SetContext(ctx context.Context) {
	c.retryConfig.Context = ctx
}

// doRequest performs a single HTTP request and decodes the JSON response into
// target. It classifies failures into typed errors so the retry layer can
// decide what is worth retrying.
func (c *Client) doRequest(method, url string, body []byte, target interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("request failed: %v", err),
		}
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
		}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse response: %v", err),
		}
	}

	return nil
}

// checkResponseStatus converts non-2xx responses into typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &errs.Error{
			Type:    errs.ErrorTypeRateLimit,
			Message: "rate limited",
			Code:    resp.StatusCode,
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "authentication failed, the session cookie may be invalid or expired",
			Code:    resp.StatusCode,
		}
	case http.StatusNotFound:
		return &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	default:
		if resp.StatusCode >= 500 {
			return &errs.Error{
				Type:    errs.ErrorTypeServerError,
				Message: fmt.Sprintf("server error: %s", resp.Status),
				Code:    resp.StatusCode,
			}
		}
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status: %s", resp.Status),
			Code:    resp.StatusCode,
		}
	}
}

// getJSON performs a GET with retry and decodes the response into target
func (c *Client) getJSON(url string, target interface{}) error {
	return retry.Do(func() error {
		return c.doRequest(http.MethodGet, url, nil, target)
	}, c.retryConfig)
}

// postJSON performs a POST with retry and decodes the response into target
func (c *Client) postJSON(url string, payload interface{}, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to encode request body: %v", err),
		}
	}

	return retry.Do(func() error {
		return c.doRequest(http.MethodPost, url, body, target)
	}, c.retryConfig)
}

// GetAuthenticatedUser validates the session cookie and returns the account
// it belongs to
func (c *Client) GetAuthenticatedUser() (*AuthenticatedUser, error) {
	var user AuthenticatedUser
	if err := c.getJSON(c.usersBaseURL+AuthenticatedUserEndpoint, &user); err != nil {
		return nil, err
	}

	if user.ID == 0 {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "authenticated-user response carries no user id",
		}
	}

	c.logger.InfoWithFields("authenticated", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Name,
	})

	return &user, nil
}

// FetchFriendsPage fetches one page of the friend listing. An empty cursor
// requests the first page.
func (c *Client) FetchFriendsPage(userID int64, limit int, cursor string) (*FriendsPage, error) {
	var page FriendsPage
	if err := c.getJSON(friendsFindURL(c.friendsBaseURL, userID, limit, cursor), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchAllFriendIDs walks the paginated friend listing until the cursor runs
// out and returns every friend id. Records without an id are skipped with a
// warning. The onPage callback, if set, is invoked after each page (used for
// request pacing and progress reporting).
func (c *Client) FetchAllFriendIDs(userID int64, limit int, onPage func(page, fetched int)) ([]int64, error) {
	var ids []int64
	cursor := ""
	pageNum := 0

	for {
		pageNum++

		page, err := c.FetchFriendsPage(userID, limit, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch friends page %d: %w", pageNum, err)
		}

		for _, stub := range page.Items() {
			if stub.ID == 0 {
				c.logger.WarnWithFields("skipping friend record without id", map[string]interface{}{
					"page": pageNum,
				})
				continue
			}
			ids = append(ids, stub.ID)
		}

		if onPage != nil {
			onPage(pageNum, len(ids))
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	c.logger.InfoWithFields("friend listing complete", map[string]interface{}{
		"user_id": userID,
		"friends": len(ids),
		"pages":   pageNum,
	})

	return ids, nil
}

// FetchUserDetails resolves usernames and display names for the given ids via
// the batched user-details endpoint. Requests go out in batches of batchSize
// ids; the result is keyed by id. Ids the API does not return are simply
// absent from the map. The onBatch callback, if set, is invoked after each
// batch (used for request pacing).
func (c *Client) FetchUserDetails(ids []int64, batchSize int, onBatch func(batch, resolved int)) (map[int64]UserDetails, error) {
	if batchSize <= 0 {
		batchSize = DefaultPageLimit
	}

	details := make(map[int64]UserDetails, len(ids))
	batchNum := 0

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batchNum++

		var resp UserDetailsResponse
		payload := userDetailsRequest{
			UserIDs:            ids[start:end],
			ExcludeBannedUsers: false,
		}
		if err := c.postJSON(c.usersBaseURL+UserDetailsEndpoint, payload, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch user details batch %d: %w", batchNum, err)
		}

		for _, d := range resp.Data {
			if d.ID == 0 {
				c.logger.WarnWithFields("skipping user record without id", map[string]interface{}{
					"batch": batchNum,
				})
				continue
			}
			details[d.ID] = d
		}

		if onBatch != nil {
			onBatch(batchNum, len(details))
		}
	}

	return details, nil
}
