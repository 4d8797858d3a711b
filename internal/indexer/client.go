// Package indexer consume la API HTTP del indexador de gobernanza.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"govtwool/internal/cache"
	"govtwool/internal/domain"
	"govtwool/internal/jsonvalue"
)

var (
	ErrNotFound    = errors.New("indexer: not found")
	ErrRateLimited = errors.New("indexer: rate limited")
	ErrTooLarge    = errors.New("indexer: response too large")
)

// StatusError es una respuesta >= 400 distinta de 404 y 429.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("indexer http error: status=%d url=%s", e.Code, e.URL)
}

// Client define las dos fuentes que consume el motor de enriquecimiento.
type Client interface {
	ListDReps(ctx context.Context, q domain.PageQuery) (domain.Page, error)
	ListActions(ctx context.Context, q domain.PageQuery) (domain.Page, error)
	FetchDRepMetadata(ctx context.Context, id string) (jsonvalue.Value, error)
}

// Config agrupa los parametros del cliente HTTP.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
	MaxBytes  int64
}

// HTTPClient implementa Client. Las respuestas 2xx se guardan en el cache
// crudo con el TTL de su clave; las negativas nunca se cachean.
type HTTPClient struct {
	baseURL  string
	apiKey   string
	maxBytes int64
	client   *http.Client
	limiter  *rate.Limiter
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewHTTPClient(cfg Config, rawCache *cache.Cache, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rawCache == nil {
		rawCache = cache.Disabled()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, burst),
		cache:    rawCache,
		logger:   logger,
	}
}

func (c *HTTPClient) ListDReps(ctx context.Context, q domain.PageQuery) (domain.Page, error) {
	q = q.Normalize()
	params := pageParams(q)
	if s := strings.TrimSpace(q.Search); s != "" {
		params.Set("search", s)
	}
	for _, st := range q.Statuses {
		params.Add("status", st)
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
		params.Set("direction", q.Direction)
	}

	page, err := getDecoded(ctx, c, "/dreps?"+params.Encode(), cache.DRepsPage(q), decodeDRepsPage)
	if err != nil {
		return domain.Page{}, fmt.Errorf("list dreps: %w", err)
	}
	return page, nil
}

func (c *HTTPClient) ListActions(ctx context.Context, q domain.PageQuery) (domain.Page, error) {
	q = q.Normalize()
	page, err := getDecoded(ctx, c, "/actions?"+pageParams(q).Encode(), cache.ActionsPage(q), decodeActionsPage)
	if err != nil {
		return domain.Page{}, fmt.Errorf("list actions: %w", err)
	}
	return page, nil
}

// FetchDRepMetadata devuelve null si el indexador no tiene metadatos (404).
func (c *HTTPClient) FetchDRepMetadata(ctx context.Context, id string) (jsonvalue.Value, error) {
	v, err := getDecoded(ctx, c, "/dreps/"+url.PathEscape(id)+"/metadata", cache.DRepMetadata(id), jsonvalue.Decode)
	if errors.Is(err, ErrNotFound) {
		return jsonvalue.Null(), nil
	}
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("fetch drep metadata: %w", err)
	}
	return v, nil
}

// getDecoded sirve key desde el cache o hace el GET. Solo se cachean cuerpos
// que decode acepta.
func getDecoded[T any](ctx context.Context, c *HTTPClient, path string, key cache.Key, decode func([]byte) (T, error)) (T, error) {
	var zero T
	if body, ok := c.cache.Get(ctx, key); ok {
		if v, err := decode(body); err == nil {
			return v, nil
		}
		c.cache.Delete(ctx, key)
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return zero, err
	}
	v, err := decode(body)
	if err != nil {
		return zero, fmt.Errorf("decode %s: %w", key, err)
	}
	c.cache.Set(ctx, key, body)
	return v, nil
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body, c.maxBytes)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("indexer rate limited", zap.String("path", path))
		return nil, ErrRateLimited
	case resp.StatusCode >= 400:
		c.logger.Warn("indexer error status",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
			zap.ByteString("body", truncate(body, 256)),
		)
		return nil, &StatusError{Code: resp.StatusCode, URL: target}
	}
	return body, nil
}

func pageParams(q domain.PageQuery) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("count", strconv.Itoa(q.PageSize))
	return params
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > max {
		return nil, ErrTooLarge
	}
	return body, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
