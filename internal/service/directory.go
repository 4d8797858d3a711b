package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"govtwool/internal/domain"
	"govtwool/internal/drepid"
	"govtwool/internal/enrichment"
	"govtwool/internal/jsonvalue"
	"govtwool/internal/profilecache"
	"govtwool/internal/proposalid"
)

var (
	ErrUnknownKind = errors.New("unknown entity kind")
	ErrNoAnchor    = errors.New("entity has no known metadata anchor")
	ErrNotSeen     = errors.New("entity not seen in any listing")
)

// DRepLister pagina DReps (indexador HTTP o yaci-store).
type DRepLister interface {
	ListDReps(ctx context.Context, q domain.PageQuery) (domain.Page, error)
}

// ActionLister pagina acciones de gobernanza.
type ActionLister interface {
	ListActions(ctx context.Context, q domain.PageQuery) (domain.Page, error)
}

// DRepMetadataSource es el fetch dedicado de metadatos de un DRep.
type DRepMetadataSource interface {
	FetchDRepMetadata(ctx context.Context, id string) (jsonvalue.Value, error)
}

// AnchorSource descarga el documento apuntado por un anchor.
type AnchorSource interface {
	Fetch(ctx context.Context, anchorURL string) (jsonvalue.Value, error)
}

// Sources agrupa los colaboradores. DRepMetadata y Anchors pueden ser nil;
// sin DRepMetadata los DReps se enriquecen desde su anchor.
type Sources struct {
	DReps        DRepLister
	Actions      ActionLister
	DRepMetadata DRepMetadataSource
	Anchors      AnchorSource
}

// Directory orquesta pagina + cache de perfiles + enriquecimiento.
type Directory struct {
	src       Sources
	profiles  *profilecache.Cache
	scheduler *enrichment.Scheduler
	timeout   time.Duration
	logger    *zap.Logger

	mu      sync.RWMutex
	anchors map[string]string
	seen    map[string]domain.Entity
}

// EntityKey lleva ids de DRep y de accion a su forma CIP-129.
func EntityKey(id string) string {
	if _, err := proposalid.Parse(id); err == nil {
		return proposalid.CacheKey(id)
	}
	return drepid.CacheKey(id)
}

// NewProfileCache crea el cache de perfiles con claves CIP-129 y etiqueta derivada del id.
func NewProfileCache() *profilecache.Cache {
	return profilecache.New(
		profilecache.WithKeyFunc(EntityKey),
		profilecache.WithFallbackLabel(drepid.FallbackLabel),
	)
}

func NewDirectory(src Sources, profiles *profilecache.Cache, logger *zap.Logger, concurrency int, timeout time.Duration) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if profiles == nil {
		profiles = NewProfileCache()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Directory{
		src:       src,
		profiles:  profiles,
		scheduler: enrichment.NewScheduler(profiles, logger, concurrency),
		timeout:   timeout,
		logger:    logger,
		anchors:   make(map[string]string),
		seen:      make(map[string]domain.Entity),
	}
}

func (d *Directory) Profiles() *profilecache.Cache { return d.profiles }

// PageResult es la pagina ya resuelta contra el cache mas el enriquecimiento en curso.
type PageResult struct {
	Page       domain.Page
	Enrichment *Enrichment
}

// Page trae una pagina y la devuelve sin esperar al enriquecimiento.
// El enriquecimiento corre desacoplado de ctx, acotado por el timeout del directorio.
func (d *Directory) Page(ctx context.Context, kind domain.EntityKind, q domain.PageQuery) (PageResult, error) {
	page, err := d.list(ctx, kind, q.Normalize())
	if err != nil {
		return PageResult{}, err
	}
	d.remember(page.Entities)
	d.profiles.Remember(page.Entities)

	ids := d.scheduler.IdentifyMissing(page.Entities)
	page.Entities = d.profiles.ApplyAll(page.Entities)
	return PageResult{Page: page, Enrichment: d.startEnrichment(ctx, kind, ids)}, nil
}

// Reapply vuelve a resolver entidades ya mostradas contra el estado actual del cache.
func (d *Directory) Reapply(entities []domain.Entity) []domain.Entity {
	return d.profiles.ApplyAll(entities)
}

// Profile resuelve el perfil de una entidad, haciendo el fetch si hace falta.
func (d *Directory) Profile(ctx context.Context, kind domain.EntityKind, id string) (*domain.Profile, profilecache.State, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, profilecache.Unchecked, fmt.Errorf("entity id is required")
	}
	if p, state := d.profiles.Get(id); state != profilecache.Unchecked {
		return p, state, nil
	}
	fetch, err := d.fetcher(kind)
	if err != nil {
		return nil, profilecache.Unchecked, err
	}
	if kind == domain.KindAction || d.src.DRepMetadata == nil {
		if _, ok := d.anchorFor(id); !ok {
			return nil, profilecache.Unchecked, ErrNoAnchor
		}
	}
	d.scheduler.FetchAndMerge(ctx, []string{id}, fetch)
	p, state := d.profiles.Get(id)
	return p, state, nil
}

// Entity devuelve la ultima version listada de id, resuelta contra el cache.
// Si su perfil embebido no alcanza y no hay entrada, lo trae antes de responder.
func (d *Directory) Entity(ctx context.Context, kind domain.EntityKind, id string) (domain.Entity, error) {
	d.mu.RLock()
	e, ok := d.seen[d.profiles.Key(id)]
	d.mu.RUnlock()
	if !ok || e.Kind != kind {
		return domain.Entity{}, ErrNotSeen
	}
	if ids := d.scheduler.IdentifyMissing([]domain.Entity{e}); len(ids) > 0 {
		fetch, err := d.fetcher(kind)
		if err != nil {
			return domain.Entity{}, err
		}
		d.scheduler.FetchAndMerge(ctx, ids, fetch)
	}
	return d.profiles.Apply(e), nil
}

// DirectoryStats resume lo visto y el cache de perfiles.
type DirectoryStats struct {
	Seen     int                `json:"seen"`
	Active   int                `json:"active"`
	Profiles profilecache.Stats `json:"profiles"`
}

// Stats cuenta las entidades de kind vistas en listados. Active sigue el
// status "active" o el flag active del indexador.
func (d *Directory) Stats(kind domain.EntityKind) DirectoryStats {
	st := DirectoryStats{Profiles: d.profiles.Stats()}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.seen {
		if e.Kind != kind {
			continue
		}
		st.Seen++
		if strings.EqualFold(e.Status, "active") || (e.Status == "" && e.Active != nil && *e.Active) {
			st.Active++
		}
	}
	return st
}

// Invalidate vacia el cache de perfiles (administracion).
func (d *Directory) Invalidate() {
	d.profiles.Reset()
}

func (d *Directory) list(ctx context.Context, kind domain.EntityKind, q domain.PageQuery) (domain.Page, error) {
	switch kind {
	case domain.KindDRep:
		if d.src.DReps == nil {
			return domain.Page{}, fmt.Errorf("%w: no drep source", ErrUnknownKind)
		}
		return d.src.DReps.ListDReps(ctx, q)
	case domain.KindAction:
		if d.src.Actions == nil {
			return domain.Page{}, fmt.Errorf("%w: no action source", ErrUnknownKind)
		}
		return d.src.Actions.ListActions(ctx, q)
	}
	return domain.Page{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func (d *Directory) fetcher(kind domain.EntityKind) (enrichment.Fetcher, error) {
	switch kind {
	case domain.KindDRep:
		if d.src.DRepMetadata != nil {
			return enrichment.FetchFunc(d.src.DRepMetadata.FetchDRepMetadata), nil
		}
		return enrichment.FetchFunc(d.fetchAnchor), nil
	case domain.KindAction:
		return enrichment.FetchFunc(d.fetchAnchor), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// fetchAnchor resuelve id -> url con los anchors vistos en paginas previas.
// Sin anchor no hay metadatos: null, no error.
func (d *Directory) fetchAnchor(ctx context.Context, id string) (jsonvalue.Value, error) {
	u, ok := d.anchorFor(id)
	if !ok || d.src.Anchors == nil {
		return jsonvalue.Null(), nil
	}
	return d.src.Anchors.Fetch(ctx, u)
}

func (d *Directory) remember(entities []domain.Entity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range entities {
		k := d.profiles.Key(e.ID)
		if k == "" {
			continue
		}
		d.seen[k] = e
		if e.Anchor != nil && e.Anchor.URL != "" {
			d.anchors[k] = e.Anchor.URL
		}
	}
}

func (d *Directory) anchorFor(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.anchors[d.profiles.Key(id)]
	return u, ok
}

func (d *Directory) startEnrichment(ctx context.Context, kind domain.EntityKind, ids []string) *Enrichment {
	enr := &Enrichment{done: make(chan struct{})}
	fetch, err := d.fetcher(kind)
	if len(ids) == 0 || err != nil {
		enr.cancel = func() {}
		close(enr.done)
		return enr
	}

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	enr.cancel = cancel
	go func() {
		defer close(enr.done)
		defer cancel()
		enr.summary = d.scheduler.FetchAndMerge(bg, ids, fetch)
	}()
	return enr
}

// Enrichment es el handle de un lote en segundo plano.
type Enrichment struct {
	done    chan struct{}
	cancel  context.CancelFunc
	summary enrichment.Summary
}

// Done se cierra cuando el lote termino.
func (e *Enrichment) Done() <-chan struct{} { return e.done }

// Summary solo es valido despues de Done.
func (e *Enrichment) Summary() enrichment.Summary {
	select {
	case <-e.done:
		return e.summary
	default:
		return enrichment.Summary{}
	}
}

// Wait bloquea hasta que el lote termina o ctx vence.
func (e *Enrichment) Wait(ctx context.Context) (enrichment.Summary, error) {
	select {
	case <-e.done:
		return e.summary, nil
	case <-ctx.Done():
		return enrichment.Summary{}, ctx.Err()
	}
}

// Cancel aborta los fetch pendientes; los interrumpidos no registran nada.
func (e *Enrichment) Cancel() { e.cancel() }
