package indexer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"govtwool/internal/cache"
	"govtwool/internal/jsonvalue"
)

const DefaultIPFSGateway = "https://ipfs.io/ipfs/"

var ErrUnsupportedScheme = errors.New("anchor: unsupported url scheme")

// AnchorFetcher descarga documentos de metadatos desde la URL de un anchor.
type AnchorFetcher struct {
	gateway  string
	maxBytes int64
	client   *http.Client
	limiter  *rate.Limiter
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewAnchorFetcher(gateway string, timeout time.Duration, maxBytes int64, rawCache *cache.Cache, logger *zap.Logger) *AnchorFetcher {
	if gateway == "" {
		gateway = DefaultIPFSGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if rawCache == nil {
		rawCache = cache.Disabled()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnchorFetcher{
		gateway:  gateway,
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(20), 10),
		cache:    rawCache,
		logger:   logger,
	}
}

// Resolve reescribe ipfs:// sobre el gateway; http(s) pasa tal cual.
func (f *AnchorFetcher) Resolve(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if cid, ok := strings.CutPrefix(raw, "ipfs://"); ok {
		cid = strings.TrimPrefix(cid, "ipfs/")
		if cid == "" {
			return "", fmt.Errorf("%w: empty ipfs path", ErrUnsupportedScheme)
		}
		return f.gateway + cid, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse anchor url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return u.String(), nil
}

// Fetch descarga y parsea el documento. 404 devuelve null sin error.
func (f *AnchorFetcher) Fetch(ctx context.Context, anchorURL string) (jsonvalue.Value, error) {
	target, err := f.Resolve(anchorURL)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	key := cache.Anchor(target)
	if body, ok := f.cache.Get(ctx, key); ok {
		return jsonvalue.Decode(body)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return jsonvalue.Value{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/ld+json")

	resp, err := f.client.Do(req)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return jsonvalue.Null(), nil
	}
	if resp.StatusCode >= 400 {
		f.logger.Warn("anchor fetch error status",
			zap.Int("status", resp.StatusCode),
			zap.String("url", target),
		)
		return jsonvalue.Value{}, &StatusError{Code: resp.StatusCode, URL: target}
	}

	body, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	v, err := jsonvalue.Decode(body)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("decode anchor document: %w", err)
	}
	f.cache.Set(ctx, key, body)
	return v, nil
}
