package rationale

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrSinkDisabled = errors.New("rationale sink disabled")

// Published es el resultado de subir un documento.
type Published struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
	Anchor   Anchor `json:"anchor"`
}

// Sink publica el documento en algun almacenamiento direccionable.
type Sink interface {
	Publish(ctx context.Context, doc *Document, provider string) (Published, error)
}

type disabledSink struct {
	reason string
}

func NewDisabledSink(reason string) Sink {
	return &disabledSink{reason: reason}
}

func (s *disabledSink) Publish(_ context.Context, _ *Document, _ string) (Published, error) {
	if s.reason == "" {
		return Published{}, ErrSinkDisabled
	}
	return Published{}, fmt.Errorf("%w: %s", ErrSinkDisabled, s.reason)
}

// HTTPSink hace POST del documento a un servicio de pinning.
type HTTPSink struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *zap.Logger
}

func NewHTTPSink(endpoint, token string, timeout time.Duration, logger *zap.Logger) (*HTTPSink, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("rationale sink endpoint is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSink{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

type sinkResponse struct {
	URL string `json:"url"`
	CID string `json:"cid"`
}

func (s *HTTPSink) Publish(ctx context.Context, doc *Document, provider string) (Published, error) {
	anchor, err := ComputeAnchor(doc)
	if err != nil {
		return Published{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(doc.raw))
	if err != nil {
		return Published{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ld+json")
	if provider != "" {
		req.Header.Set("X-Storage-Provider", provider)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Published{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Published{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("rationale sink error status",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", s.endpoint),
		)
		return Published{}, fmt.Errorf("rationale sink status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out sinkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Published{}, fmt.Errorf("decode sink response: %w", err)
	}
	url := strings.TrimSpace(out.URL)
	if url == "" && out.CID != "" {
		url = "ipfs://" + out.CID
	}
	if url == "" {
		return Published{}, errors.New("rationale sink returned no url")
	}
	if out.CID != "" && out.CID != anchor.CID {
		s.logger.Warn("rationale sink cid mismatch",
			zap.String("local_cid", anchor.CID),
			zap.String("remote_cid", out.CID),
		)
	}
	return Published{URL: url, Provider: provider, Anchor: anchor}, nil
}
