package neynar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"beamr-points-backend/internal/common/logger"
)

// Check is the outcome of a social-state lookup. External failures degrade to
// CheckUnknown instead of erroring so that engagement checks never block the
// surrounding flow; callers treat Unknown as not-yet-satisfied.
type Check int

const (
	CheckUnknown Check = iota
	CheckNotSatisfied
	CheckSatisfied
)

// Satisfied reports whether the condition is known to hold.
func (c Check) Satisfied() bool { return c == CheckSatisfied }

// User is a Farcaster user as returned by the Neynar API.
type User struct {
	FID            int64    `json:"fid"`
	Username       string   `json:"username"`
	DisplayName    string   `json:"display_name"`
	PfpURL         string   `json:"pfp_url"`
	CustodyAddress string   `json:"custody_address"`
	Verifications  []string `json:"verifications"`
	ViewerContext  struct {
		Following bool `json:"following"`
	} `json:"viewer_context"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	cache      *UserCache
}

// NewClient creates a Neynar API client. cache may be nil.
func NewClient(baseURL, apiKey string, timeout time.Duration, cache *UserCache) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		cache:      cache,
	}
}

// FetchUser returns the profile for a fid, consulting the cache first.
func (c *Client) FetchUser(ctx context.Context, fid int64) (*User, error) {
	if c.cache != nil {
		if u := c.cache.Get(ctx, fid); u != nil {
			return u, nil
		}
	}

	var result struct {
		Users []User `json:"users"`
	}
	params := url.Values{"fids": {strconv.FormatInt(fid, 10)}}
	if err := c.get(ctx, "/v2/farcaster/user/bulk", params, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch user %d: %w", fid, err)
	}
	if len(result.Users) == 0 {
		return nil, fmt.Errorf("user %d not found", fid)
	}

	user := &result.Users[0]
	if c.cache != nil {
		c.cache.Set(ctx, user)
	}
	return user, nil
}

// FetchUsersByEthAddress resolves users for a set of wallet addresses. The
// response maps each address to the users verified against it.
func (c *Client) FetchUsersByEthAddress(ctx context.Context, addresses []string) (map[string][]User, error) {
	if len(addresses) == 0 {
		return map[string][]User{}, nil
	}

	result := map[string][]User{}
	params := url.Values{"addresses": {strings.Join(addresses, ",")}}
	if err := c.get(ctx, "/v2/farcaster/user/bulk-by-address/", params, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch users by address: %w", err)
	}
	return result, nil
}

// IsFollowing reports whether viewerFID follows targetFID. The lookup is
// scoped by viewer so the API returns viewer-relative context.
func (c *Client) IsFollowing(ctx context.Context, viewerFID, targetFID int64) Check {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result struct {
		Users []User `json:"users"`
	}
	params := url.Values{
		"fids":       {strconv.FormatInt(targetFID, 10)},
		"viewer_fid": {strconv.FormatInt(viewerFID, 10)},
	}
	if err := c.get(ctx, "/v2/farcaster/user/bulk", params, &result); err != nil {
		logger.Warn().Err(err).Int64("fid", viewerFID).Msg("Follow check degraded")
		return CheckUnknown
	}
	if len(result.Users) == 0 {
		return CheckUnknown
	}
	if result.Users[0].ViewerContext.Following {
		return CheckSatisfied
	}
	return CheckNotSatisfied
}

// IsInChannel reports whether viewerFID is a member of the named channel.
func (c *Client) IsInChannel(ctx context.Context, viewerFID int64, channel string) Check {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result struct {
		Channels []struct {
			ViewerContext struct {
				Following bool `json:"following"`
			} `json:"viewer_context"`
		} `json:"channels"`
	}
	params := url.Values{
		"q":          {channel},
		"viewer_fid": {strconv.FormatInt(viewerFID, 10)},
	}
	if err := c.get(ctx, "/v2/farcaster/channel/search", params, &result); err != nil {
		logger.Warn().Err(err).Int64("fid", viewerFID).Str("channel", channel).Msg("Channel check degraded")
		return CheckUnknown
	}
	if len(result.Channels) == 0 {
		return CheckUnknown
	}
	if result.Channels[0].ViewerContext.Following {
		return CheckSatisfied
	}
	return CheckNotSatisfied
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
