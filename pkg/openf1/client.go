package openf1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"f1replay/pkg/cache"
	"f1replay/pkg/model"
)

const (
	DefaultBaseURL      = "https://api.openf1.org/v1"
	DefaultRequestDelay = 100 * time.Millisecond

	positionLimit = 5000
	lapLimit      = 3000
	intervalLimit = 2500
)

var ErrNotFound = errors.New("not found")

// ResponseCache is the subset of cache.ResponseCache the client needs.
type ResponseCache interface {
	Fetch(ctx context.Context, key string, forceRefresh bool, fetch cache.Fetcher) ([]byte, error)
}

// StatusError is returned when OpenF1 answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openf1: %s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client is an OpenF1 REST client.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	requestDelay time.Duration
	cache        ResponseCache
	logger       *slog.Logger
}

type ClientOption = func(c *Client)

func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		requestDelay: DefaultRequestDelay,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBaseURL points the client at another OpenF1 compatible server; primarily used for testing.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestDelay sets the pause taken before every upstream request.
func WithRequestDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.requestDelay = d }
}

// WithCache routes every request through a response cache keyed by URL.
func WithCache(rc ResponseCache) ClientOption {
	return func(c *Client) { c.cache = rc }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

type refreshKey struct{}

// ForceRefresh marks ctx so that requests made with it bypass cached responses.
func ForceRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

// IsForceRefresh reports whether ctx was marked by ForceRefresh.
func IsForceRefresh(ctx context.Context) bool {
	v, _ := ctx.Value(refreshKey{}).(bool)
	return v
}

// SessionQuery filters the sessions endpoint. Zero values are left out of the query.
type SessionQuery struct {
	Year        int
	SessionType string
	SessionName string
	CountryName string
}

func (q SessionQuery) values() url.Values {
	v := url.Values{}
	if q.Year > 0 {
		v.Set("year", strconv.Itoa(q.Year))
	}
	if q.SessionType != "" {
		v.Set("session_type", q.SessionType)
	}
	if q.SessionName != "" {
		v.Set("session_name", q.SessionName)
	}
	if q.CountryName != "" {
		v.Set("country_name", q.CountryName)
	}
	return v
}

func (c *Client) Sessions(ctx context.Context, q SessionQuery) ([]model.Session, error) {
	return get[model.Session](ctx, c, "sessions", q.values())
}

func (c *Client) Session(ctx context.Context, sessionKey int) (model.Session, error) {
	sessions, err := get[model.Session](ctx, c, "sessions", sessionValues(sessionKey))
	if err != nil {
		return model.Session{}, err
	}
	if len(sessions) == 0 {
		return model.Session{}, errors.Wrapf(ErrNotFound, "session %d", sessionKey)
	}
	return sessions[0], nil
}

// LatestRaceSession returns the most recent race of the first year, in order, that has one.
func (c *Client) LatestRaceSession(ctx context.Context, years ...int) (model.Session, error) {
	if len(years) == 0 {
		now := time.Now().UTC().Year()
		years = []int{now, now - 1}
	}
	for _, year := range years {
		sessions, err := c.Sessions(ctx, SessionQuery{Year: year})
		if err != nil {
			return model.Session{}, err
		}
		if race, ok := LatestRace(sessions); ok {
			return race, nil
		}
	}
	return model.Session{}, errors.Wrapf(ErrNotFound, "race session in %v", years)
}

// LatestRace picks the race with the latest start date.
func LatestRace(sessions []model.Session) (model.Session, bool) {
	var races []model.Session
	for _, s := range sessions {
		if IsRace(s) {
			races = append(races, s)
		}
	}
	if len(races) == 0 {
		return model.Session{}, false
	}
	sort.SliceStable(races, func(i, j int) bool {
		return races[i].DateStart < races[j].DateStart
	})
	return races[len(races)-1], true
}

func IsRace(s model.Session) bool {
	return strings.Contains(strings.ToLower(s.SessionName), "race") ||
		strings.Contains(strings.ToLower(s.SessionType), "race")
}

func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]model.Driver, error) {
	return get[model.Driver](ctx, c, "drivers", sessionValues(sessionKey))
}

func (c *Client) Laps(ctx context.Context, sessionKey int) ([]model.Lap, error) {
	return get[model.Lap](ctx, c, "laps", limited(sessionKey, lapLimit))
}

func (c *Client) Positions(ctx context.Context, sessionKey int) ([]model.Position, error) {
	return get[model.Position](ctx, c, "position", limited(sessionKey, positionLimit))
}

func (c *Client) Intervals(ctx context.Context, sessionKey int) ([]model.Interval, error) {
	return get[model.Interval](ctx, c, "intervals", limited(sessionKey, intervalLimit))
}

func (c *Client) Stints(ctx context.Context, sessionKey int) ([]model.Stint, error) {
	return get[model.Stint](ctx, c, "stints", sessionValues(sessionKey))
}

func (c *Client) PitStops(ctx context.Context, sessionKey int) ([]model.PitStop, error) {
	return get[model.PitStop](ctx, c, "pit", sessionValues(sessionKey))
}

func (c *Client) Weather(ctx context.Context, sessionKey int) ([]model.Weather, error) {
	return get[model.Weather](ctx, c, "weather", sessionValues(sessionKey))
}

func (c *Client) SessionResults(ctx context.Context, sessionKey int) ([]model.SessionResult, error) {
	return get[model.SessionResult](ctx, c, "session_result", sessionValues(sessionKey))
}

func sessionValues(sessionKey int) url.Values {
	return url.Values{"session_key": []string{strconv.Itoa(sessionKey)}}
}

func limited(sessionKey, limit int) url.Values {
	v := sessionValues(sessionKey)
	v.Set("limit", strconv.Itoa(limit))
	return v
}

func get[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	u := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body []byte
	var err error
	if c.cache != nil {
		body, err = c.cache.Fetch(ctx, u, IsForceRefresh(ctx), func(ctx context.Context) ([]byte, error) {
			return c.do(ctx, u)
		})
	} else {
		body, err = c.do(ctx, u)
	}
	// OpenF1 answers 404 when a filter matches nothing
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug("openf1 no results", "url", u)
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}

	var records []T
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", endpoint)
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	if c.requestDelay > 0 {
		timer := time.NewTimer(c.requestDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting %s", u)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", u)
	}
	c.logger.Debug("openf1 request", "url", u, "status", resp.StatusCode, "bytes", len(body), "took", time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(ErrNotFound, "%s", u)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: u}
	}
	return body, nil
}
