package service

import (
	"context"
	"errors"
	"sync"

	"govtwool/internal/domain"
)

// ErrSuperseded indica que otra carga posterior reemplazo a esta.
var ErrSuperseded = errors.New("list load superseded")

// ListController mantiene la lista mostrada de una vista (pagina, busqueda,
// filtros). Cada Load cancela la anterior y una respuesta vieja nunca
// sobreescribe una mas nueva.
type ListController struct {
	dir  *Directory
	kind domain.EntityKind

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	query      domain.PageQuery
	page       domain.Page
	enrichment *Enrichment
}

func NewListController(dir *Directory, kind domain.EntityKind) *ListController {
	return &ListController{dir: dir, kind: kind}
}

// Load trae la pagina q y la instala como lista mostrada.
func (c *ListController) Load(ctx context.Context, q domain.PageQuery) (domain.Page, error) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	c.cancel = cancel
	c.mu.Unlock()

	res, err := c.dir.Page(ctx, c.kind, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		cancel()
		return domain.Page{}, ErrSuperseded
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return domain.Page{}, ErrSuperseded
		}
		return domain.Page{}, err
	}
	c.query = q.Normalize()
	c.page = res.Page
	c.enrichment = res.Enrichment
	return res.Page, nil
}

// Displayed devuelve la lista mostrada resuelta contra el cache actual.
func (c *ListController) Displayed() domain.Page {
	c.mu.Lock()
	page := c.page
	c.mu.Unlock()
	page.Entities = c.dir.Reapply(page.Entities)
	return page
}

// Query es la consulta de la lista mostrada.
func (c *ListController) Query() domain.PageQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Settle espera el enriquecimiento vigente y reaplica el cache sobre lo que
// se muestre en ese momento, que puede ser una pagina posterior.
func (c *ListController) Settle(ctx context.Context) (domain.Page, error) {
	c.mu.Lock()
	enr := c.enrichment
	c.mu.Unlock()
	if enr != nil {
		if _, err := enr.Wait(ctx); err != nil {
			return domain.Page{}, err
		}
	}
	return c.Displayed(), nil
}

// Close cancela la carga en curso.
func (c *ListController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
