package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"storypanel/internal/models"
	"storypanel/internal/providers"
	"storypanel/internal/structures"
)

const (
	defaultTimeout = 15 * time.Second
	// error bodies are only read for the message
	maxErrorBody = 64 << 10

	publicStoriesKeyPrefix = "stories:"
)

// Client talks to the story backend. Admin calls need a Session; public calls
// work anonymously.
type Client struct {
	baseURL      string
	assetBaseURL *url.URL
	httpClient   *http.Client
	session      *Session
	cache        providers.CacheProviderInterface
	logger       providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger, cache providers.CacheProviderInterface) (*Client, error) {
	if _, err := url.ParseRequestURI(conf.Api.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid api base URL: %w", err)
	}
	assets, err := url.Parse(strings.TrimRight(conf.Api.AssetBaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid asset base URL: %w", err)
	}
	if logger == nil {
		logger = providers.NewNopLogger()
	}
	if cache == nil {
		cache = providers.NewCacheProvider(&structures.Config{}, logger)
	}
	timeout := conf.Api.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:      strings.TrimRight(conf.Api.BaseURL, "/"),
		assetBaseURL: assets,
		httpClient:   &http.Client{Timeout: timeout},
		session:      NewSession(""),
		cache:        cache,
		logger:       logger,
	}, nil
}

// WithSession returns a copy of the client bound to s. The receiver is left
// untouched, so one base client can serve several sessions.
func (c *Client) WithSession(s *Session) *Client {
	cp := *c
	if s == nil {
		s = NewSession("")
	}
	cp.session = s
	return &cp
}

func (c *Client) Session() *Session {
	return c.session
}

// AssetURL resolves a stored image reference against the asset base. Absolute
// URLs are returned as they are.
func (c *Client) AssetURL(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return ref
	}
	return c.assetBaseURL.ResolveReference(&url.URL{Path: strings.TrimLeft(u.Path, "/"), RawQuery: u.RawQuery}).String()
}

// Login exchanges credentials for a token and returns the new session. The
// client's own session is updated too.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", bytes.NewReader(body), "application/json", false, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &APIError{Status: http.StatusOK, Message: "login response carries no token"}
	}
	c.session.SetToken(out.Token)
	c.logger.Infof(providers.TypeApi, "logged in as %s", email)
	return c.session, nil
}

func (c *Client) CreateSlide(ctx context.Context, groupID int, payload SlidePayload) (*models.Slide, error) {
	return c.sendSlide(ctx, http.MethodPost, "/admin/story-groups/"+strconv.Itoa(groupID)+"/stories", payload)
}

func (c *Client) UpdateSlide(ctx context.Context, slideID int, payload SlidePayload) (*models.Slide, error) {
	return c.sendSlide(ctx, http.MethodPut, "/admin/stories/"+strconv.Itoa(slideID), payload)
}

func (c *Client) sendSlide(ctx context.Context, method, path string, payload SlidePayload) (*models.Slide, error) {
	body, contentType, err := payload.encode()
	if err != nil {
		return nil, err
	}
	var slide models.Slide
	if err := c.do(ctx, method, path, body, contentType, true, &slide); err != nil {
		return nil, err
	}
	return &slide, nil
}

func (c *Client) DeleteSlide(ctx context.Context, slideID int) error {
	return c.do(ctx, http.MethodDelete, "/admin/stories/"+strconv.Itoa(slideID), nil, "", true, nil)
}

// FetchGroup loads one group with its slides ordered for playback.
func (c *Client) FetchGroup(ctx context.Context, idOrSlug string) (*models.StoryGroup, error) {
	var group models.StoryGroup
	if err := c.do(ctx, http.MethodGet, "/admin/story-groups/"+url.PathEscape(idOrSlug), nil, "", true, &group); err != nil {
		return nil, err
	}
	models.SortSlides(group.Slides)
	return &group, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]models.StoryGroup, error) {
	var groups []models.StoryGroup
	if err := c.do(ctx, http.MethodGet, "/admin/story-groups", nil, "", true, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *Client) CreateGroup(ctx context.Context, input models.GroupInput) (*models.StoryGroup, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var group models.StoryGroup
	if err := c.do(ctx, http.MethodPost, "/admin/story-groups", bytes.NewReader(body), "application/json", true, &group); err != nil {
		return nil, err
	}
	c.cache.Del(publicStoriesKeyPrefix + input.CitySlug)
	return &group, nil
}

func (c *Client) SetGroupActive(ctx context.Context, groupID int, active bool) error {
	body, err := json.Marshal(map[string]bool{"active": active})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, "/admin/story-groups/"+strconv.Itoa(groupID)+"/status", bytes.NewReader(body), "application/json", true, nil)
}

func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, "", true, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// FetchPublicStoriesForCity returns the active groups of a city. Responses are
// kept in the cache provider for its TTL.
func (c *Client) FetchPublicStoriesForCity(ctx context.Context, citySlug string) ([]models.StoryGroup, error) {
	key := publicStoriesKeyPrefix + citySlug
	raw, ok := c.cache.Get(key)
	if !ok {
		var buf json.RawMessage
		if err := c.do(ctx, http.MethodGet, "/public/stories/"+url.PathEscape(citySlug), nil, "", false, &buf); err != nil {
			return nil, err
		}
		raw = buf
	}

	var groups []models.StoryGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		c.cache.Del(key)
		return nil, fmt.Errorf("decoding stories for %s: %w", citySlug, err)
	}
	if !ok {
		c.cache.Set(key, raw)
	}
	for i := range groups {
		models.SortSlides(groups[i].Slides)
	}
	return groups, nil
}

// InvalidateCity drops the cached public list of a city.
func (c *Client) InvalidateCity(citySlug string) {
	c.cache.Del(publicStoriesKeyPrefix + citySlug)
}

func (c *Client) TrackSlideOpen(ctx context.Context, slideID int) error {
	return c.do(ctx, http.MethodPost, "/public/stories/open/"+strconv.Itoa(slideID), nil, "", false, nil)
}

func (c *Client) TrackGroupOpen(ctx context.Context, groupID int) error {
	return c.do(ctx, http.MethodPost, "/public/groups/open/"+strconv.Itoa(groupID), nil, "", false, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, protected bool, out any) error {
	var token string
	if protected {
		token = c.session.Token()
		if token == "" {
			return ErrUnauthorized
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnf(providers.TypeApi, "%s %s [%s] failed: %v", method, path, requestID, err)
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debugf(providers.TypeApi, "%s %s [%s] -> %d in %s", method, path, requestID, resp.StatusCode, time.Since(started))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		if json.Unmarshal(data, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
	}
	return apiErr
}
