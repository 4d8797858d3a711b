// Package profilecache memoriza perfiles canonicos por entidad.
//
// Cada entrada pasa por Unchecked -> (Present | Empty | Failed) y no se
// desaloja durante la vida del cache. Empty y Failed se tratan igual aguas
// abajo; Failed solo existe para diagnostico.
package profilecache

import (
	"strings"
	"sync"

	"govtwool/internal/domain"
	"govtwool/internal/jsonvalue"
	"govtwool/internal/metadata"
)

// State es el estado de una entrada.
type State uint8

const (
	Unchecked State = iota
	Present
	Empty
	Failed
)

func (s State) String() string {
	switch s {
	case Present:
		return "present"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	default:
		return "unchecked"
	}
}

// Negative es true para Empty y Failed.
func (s State) Negative() bool { return s == Empty || s == Failed }

type entry struct {
	state   State
	profile *domain.Profile
}

// Stats resume el contenido del cache.
type Stats struct {
	Entries  int `json:"entries"`
	Present  int `json:"present"`
	Empty    int `json:"empty"`
	Failed   int `json:"failed"`
	InFlight int `json:"in_flight"`
}

// Option configura un Cache.
type Option func(*Cache)

// WithKeyFunc normaliza ids antes de usarlos como clave (p. ej. CIP-129).
func WithKeyFunc(fn func(id string) string) Option {
	return func(c *Cache) {
		if fn != nil {
			c.key = fn
		}
	}
}

// WithFallbackLabel define la etiqueta de entidades sin perfil.
func WithFallbackLabel(fn func(id string) string) Option {
	return func(c *Cache) {
		if fn != nil {
			c.label = fn
		}
	}
}

// WithExtractor reemplaza el extractor de perfiles.
func WithExtractor(fn func(jsonvalue.Value) *domain.Profile) Option {
	return func(c *Cache) {
		if fn != nil {
			c.extract = fn
		}
	}
}

// Cache es seguro para uso concurrente. Get, Has y Set son la unica superficie
// de mutacion directa; Claim/Release reservan ids para un fetch.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	inflight map[string]chan struct{}

	key     func(string) string
	label   func(string) string
	extract func(jsonvalue.Value) *domain.Profile
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]entry),
		inflight: make(map[string]chan struct{}),
		key:      strings.TrimSpace,
		label:    func(id string) string { return id },
		extract:  metadata.ExtractProfile,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key es la clave normalizada de id; vacia si id no es utilizable.
func (c *Cache) Key(id string) string { return c.key(id) }

// Get devuelve el perfil cacheado y su estado. Unchecked significa sin entrada.
func (c *Cache) Get(id string) (*domain.Profile, State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[c.key(id)]
	if !ok {
		return nil, Unchecked
	}
	return e.profile, e.state
}

func (c *Cache) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[c.key(id)]
	return ok
}

// Set guarda p como Present si tiene identidad visible; si no, Empty.
// Libera cualquier reserva del id.
func (c *Cache) Set(id string, p *domain.Profile) State {
	state := Empty
	if p.IsPresent() {
		state = Present
	} else {
		p = nil
	}
	c.put(id, entry{state: state, profile: p})
	return state
}

// SetFailed registra un fetch fallido.
func (c *Cache) SetFailed(id string) {
	c.put(id, entry{state: Failed})
}

func (c *Cache) put(id string, e entry) {
	k := c.key(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = e
	c.settle(k)
}

// settle cierra el canal de espera de k. Requiere c.mu.
func (c *Cache) settle(k string) {
	if ch, ok := c.inflight[k]; ok {
		close(ch)
		delete(c.inflight, k)
	}
}

// Claim reserva id para un fetch. Devuelve false si ya tiene entrada o si
// otro llamador lo reservo; la comprobacion y la reserva son atomicas.
func (c *Cache) Claim(id string) bool {
	k := c.key(id)
	if k == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; ok {
		return false
	}
	if _, ok := c.inflight[k]; ok {
		return false
	}
	c.inflight[k] = make(chan struct{})
	return true
}

// Pending devuelve un canal que se cierra cuando la reserva vigente de id
// termina, con resultado o liberada. ok es false si no hay reserva.
func (c *Cache) Pending(id string) (<-chan struct{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.inflight[c.key(id)]
	return ch, ok
}

// Release suelta una reserva sin registrar resultado.
func (c *Cache) Release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settle(c.key(id))
}

// Reset vacia el cache. Las reservas en curso se conservan.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Entries: len(c.entries), InFlight: len(c.inflight)}
	for _, e := range c.entries {
		switch e.state {
		case Present:
			s.Present++
		case Empty:
			s.Empty++
		case Failed:
			s.Failed++
		}
	}
	return s
}
