package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"govtwool/internal/rationale"
)

var ErrPublishRateLimited = errors.New("rationale publish rate limited")

// Draft es un documento construido y su anchor, sin publicar.
type Draft struct {
	Document *rationale.Document `json:"document"`
	Anchor   rationale.Anchor    `json:"anchor"`
}

// RationaleService construye y publica documentos de justificacion.
type RationaleService struct {
	sink    rationale.Sink
	limiter PublishLimiter
	logger  *zap.Logger
}

func NewRationaleService(sink rationale.Sink, limiter PublishLimiter, logger *zap.Logger) *RationaleService {
	if sink == nil {
		sink = rationale.NewDisabledSink("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RationaleService{sink: sink, limiter: limiter, logger: logger}
}

// Draft valida y arma el documento. Los errores de validacion se propagan tal cual.
func (s *RationaleService) Draft(std rationale.Standard, fields rationale.Fields) (Draft, error) {
	doc, err := rationale.Build(std, fields)
	if err != nil {
		return Draft{}, err
	}
	anchor, err := rationale.ComputeAnchor(doc)
	if err != nil {
		return Draft{}, fmt.Errorf("compute anchor: %w", err)
	}
	return Draft{Document: doc, Anchor: anchor}, nil
}

// Publish arma el documento y lo entrega al sink. clientKey alimenta el limitador.
func (s *RationaleService) Publish(ctx context.Context, clientKey string, std rationale.Standard, fields rationale.Fields, provider string) (rationale.Published, error) {
	draft, err := s.Draft(std, fields)
	if err != nil {
		return rationale.Published{}, err
	}
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		return rationale.Published{}, ErrPublishRateLimited
	}
	pub, err := s.sink.Publish(ctx, draft.Document, provider)
	if err != nil {
		s.logger.Warn("rationale publish failed", zap.String("provider", provider), zap.Error(err))
		return rationale.Published{}, err
	}
	s.logger.Info("rationale published",
		zap.String("standard", string(std)),
		zap.String("provider", provider),
		zap.String("url", pub.URL),
		zap.String("data_hash", pub.Anchor.DataHash),
	)
	return pub, nil
}
