package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contract-agent/internal/logger"
)

const maxErrorBody = 512

// HTTPSource 发起 GET <url>?user_id=<id>[&type=<filter>]；无鉴权、无重试、无分页。
type HTTPSource struct {
	URL    string
	UserID string
	Type   string
	Client *http.Client
}

func NewHTTPSource(rawURL, userID, typ string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSource{
		URL:    rawURL,
		UserID: userID,
		Type:   typ,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) endpoint() (string, error) {
	u, err := url.Parse(strings.TrimSpace(s.URL))
	if err != nil {
		return "", fmt.Errorf("catalog: invalid url %q: %w", s.URL, err)
	}
	q := u.Query()
	if s.UserID != "" {
		q.Set("user_id", s.UserID)
	}
	if s.Type != "" {
		q.Set("type", s.Type)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]Entry, error) {
	log := logger.Named("catalog")
	endpoint, err := s.endpoint()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: http_%d: %s", ErrBadStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("catalog: decode response: %w", err)
	}
	log.WithFields(logger.Fields{
		"entries":  len(entries),
		"elapsed":  time.Since(start).Round(time.Millisecond),
		"endpoint": endpoint,
	}).Debug("catalog fetched")
	return entries, nil
}
