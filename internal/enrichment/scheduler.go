// Package enrichment busca en segundo plano los metadatos que faltan en una
// pagina de entidades y deja el resultado en el ProfileCache.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"govtwool/internal/domain"
	"govtwool/internal/jsonvalue"
	"govtwool/internal/profilecache"
)

// Fetcher obtiene el blob de metadatos de una entidad. Un payload ausente
// (404, null) se devuelve como Value undefined o null con error nil.
type Fetcher interface {
	FetchMetadata(ctx context.Context, id string) (jsonvalue.Value, error)
}

// FetchFunc adapta una funcion a Fetcher.
type FetchFunc func(ctx context.Context, id string) (jsonvalue.Value, error)

func (f FetchFunc) FetchMetadata(ctx context.Context, id string) (jsonvalue.Value, error) {
	return f(ctx, id)
}

// Outcome es el resultado de un fetch individual.
type Outcome uint8

const (
	OutcomePresent Outcome = iota
	OutcomeEmpty
	OutcomeFailed
	OutcomeCancelled
	// OutcomeSkipped: el id ya tenia entrada al llegar su turno.
	OutcomeSkipped
	// OutcomeJoined: otro lote lo estaba buscando y se espero su resultado.
	OutcomeJoined
)

// Summary resume un lote.
type Summary struct {
	BatchID   string        `json:"batch_id"`
	Requested int           `json:"requested"`
	Fetched   int           `json:"fetched"`
	Skipped   int           `json:"skipped"`
	Joined    int           `json:"joined"`
	Present   int           `json:"present"`
	Empty     int           `json:"empty"`
	Failed    int           `json:"failed"`
	Cancelled int           `json:"cancelled"`
	Duration  time.Duration `json:"duration"`
}

func (s *Summary) add(o Outcome) {
	switch o {
	case OutcomePresent:
		s.Fetched++
		s.Present++
	case OutcomeEmpty:
		s.Fetched++
		s.Empty++
	case OutcomeFailed:
		s.Fetched++
		s.Failed++
	case OutcomeCancelled:
		s.Cancelled++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeJoined:
		s.Joined++
	}
}

// Scheduler coordina IdentifyMissing y FetchAndMerge sobre un cache.
type Scheduler struct {
	cache  *profilecache.Cache
	logger *zap.Logger
	limit  int
}

// NewScheduler crea un planificador. concurrency <= 0 no limita el fan-out.
func NewScheduler(cache *profilecache.Cache, logger *zap.Logger, concurrency int) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cache: cache, logger: logger, limit: concurrency}
}

// IdentifyMissing devuelve, sin duplicados y en orden de aparicion, los ids
// sin entrada en el cache cuyo perfil embebido no tiene identidad visible o
// no tiene name ni title.
func (s *Scheduler) IdentifyMissing(entities []domain.Entity) []string {
	seen := make(map[string]struct{}, len(entities))
	var ids []string
	for _, e := range entities {
		if e.ID == "" {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		if s.cache.Has(e.ID) {
			continue
		}
		p := s.cache.Extract(e.RawMetadata)
		if !p.IsPresent() || !p.HasName() {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// FetchAndMerge busca todos los ids en paralelo y registra cada resultado.
// Un fallo se aisla: se cachea como Failed y no aborta a los demas. Un id
// que otro lote ya reservo no se vuelve a buscar: se espera su resultado, y
// si ese lote lo abandona se reserva de nuevo. Si ctx se cancela, los fetch
// interrumpidos no registran nada y liberan su reserva.
func (s *Scheduler) FetchAndMerge(ctx context.Context, ids []string, fetch Fetcher) Summary {
	start := time.Now()
	sum := Summary{BatchID: uuid.NewString(), Requested: len(ids)}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	if s.limit > 0 {
		g.SetLimit(s.limit)
	}

	for _, id := range ids {
		g.Go(func() error {
			o := s.resolve(ctx, id, fetch)
			mu.Lock()
			sum.add(o)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sum.Duration = time.Since(start)
	if sum.Fetched+sum.Cancelled > 0 {
		s.logger.Info("enrichment batch settled",
			zap.String("batch_id", sum.BatchID),
			zap.Int("requested", sum.Requested),
			zap.Int("fetched", sum.Fetched),
			zap.Int("skipped", sum.Skipped),
			zap.Int("joined", sum.Joined),
			zap.Int("present", sum.Present),
			zap.Int("empty", sum.Empty),
			zap.Int("failed", sum.Failed),
			zap.Int("cancelled", sum.Cancelled),
			zap.Duration("duration", sum.Duration),
		)
	}
	return sum
}

// resolve reserva id y hace el fetch, o espera al lote que ya lo reservo.
func (s *Scheduler) resolve(ctx context.Context, id string, fetch Fetcher) Outcome {
	if s.cache.Key(id) == "" {
		return OutcomeSkipped
	}
	waited := false
	for {
		if s.cache.Claim(id) {
			return s.fetchOne(ctx, id, fetch)
		}
		pending, ok := s.cache.Pending(id)
		if !ok {
			if s.cache.Has(id) {
				if waited {
					return OutcomeJoined
				}
				return OutcomeSkipped
			}
			// la reserva se libero entre Claim y Pending
			continue
		}
		select {
		case <-pending:
			waited = true
		case <-ctx.Done():
			return OutcomeCancelled
		}
	}
}

// Enrich es IdentifyMissing + FetchAndMerge.
func (s *Scheduler) Enrich(ctx context.Context, entities []domain.Entity, fetch Fetcher) Summary {
	return s.FetchAndMerge(ctx, s.IdentifyMissing(entities), fetch)
}

func (s *Scheduler) fetchOne(ctx context.Context, id string, fetch Fetcher) (out Outcome) {
	if err := ctx.Err(); err != nil {
		s.cache.Release(id)
		return OutcomeCancelled
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("metadata fetch panicked",
				zap.String("entity_id", id),
				zap.Any("panic", r),
			)
			s.cache.SetFailed(id)
			out = OutcomeFailed
		}
	}()

	raw, err := fetch.FetchMetadata(ctx, id)
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		s.cache.Release(id)
		return OutcomeCancelled
	}
	if err != nil {
		s.logger.Warn("metadata fetch failed",
			zap.String("entity_id", id),
			zap.Error(fmt.Errorf("fetch metadata: %w", err)),
		)
		s.cache.SetFailed(id)
		return OutcomeFailed
	}

	if s.cache.Set(id, s.cache.Extract(raw)) == profilecache.Present {
		return OutcomePresent
	}
	return OutcomeEmpty
}
