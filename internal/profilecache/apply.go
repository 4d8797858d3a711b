package profilecache

import (
	"govtwool/internal/domain"
	"govtwool/internal/jsonvalue"
)

// Extract corre el extractor configurado sobre raw.
func (c *Cache) Extract(raw jsonvalue.Value) *domain.Profile {
	return c.extract(raw)
}

// Remember cachea los perfiles embebidos que ya tienen identidad visible.
// Las entidades sin perfil util no se registran: la determinacion negativa
// queda para el enriquecimiento, que hace un fetch dedicado.
func (c *Cache) Remember(entities []domain.Entity) int {
	stored := 0
	for _, e := range entities {
		if c.Has(e.ID) {
			continue
		}
		p := c.extract(e.RawMetadata)
		if !p.IsPresent() {
			continue
		}
		k := c.key(e.ID)
		c.mu.Lock()
		if _, ok := c.entries[k]; !ok {
			c.entries[k] = entry{state: Present, profile: p}
			stored++
		}
		c.mu.Unlock()
	}
	return stored
}

// Apply devuelve una copia de e con el perfil canonico resuelto.
//
//   - Empty/Failed: metadatos vaciados y has_profile=false.
//   - Present: el perfil cacheado se superpone al extraido de e (gana el cache).
//   - Unchecked: se extrae de e sin persistir; has_profile solo se fija si el
//     perfil embebido ya tiene identidad, o a false si e no tiene id.
func (c *Cache) Apply(e domain.Entity) domain.Entity {
	cached, state := c.Get(e.ID)
	switch {
	case state.Negative():
		e.RawMetadata = jsonvalue.Value{}
		c.flatten(&e, nil)
		e.HasProfile = boolPtr(false)
	case state == Present:
		merged := domain.Overlay(c.extract(e.RawMetadata), cached)
		c.flatten(&e, merged)
		e.HasProfile = boolPtr(true)
	default:
		p := c.extract(e.RawMetadata)
		c.flatten(&e, p)
		switch {
		case p.IsPresent():
			e.HasProfile = boolPtr(true)
		case c.key(e.ID) == "":
			// sin id no habra fetch: la ausencia es definitiva.
			e.HasProfile = boolPtr(false)
		default:
			e.HasProfile = nil
		}
	}
	return e
}

// ApplyAll aplica sobre una lista conservando el orden.
func (c *Cache) ApplyAll(entities []domain.Entity) []domain.Entity {
	out := make([]domain.Entity, len(entities))
	for i, e := range entities {
		out[i] = c.Apply(e)
	}
	return out
}

func (c *Cache) flatten(e *domain.Entity, p *domain.Profile) {
	e.Metadata = p
	e.GivenName = p.DisplayName()
	e.DisplayName = e.GivenName
	if e.DisplayName == "" {
		e.DisplayName = c.label(e.ID)
	}
	if p == nil {
		e.Objectives, e.Motivations, e.Qualifications = "", "", ""
		e.ImageURL, e.PaymentAddress = "", ""
		e.IdentityReferences, e.LinkReferences = nil, nil
		return
	}
	e.Objectives = p.Objectives
	e.Motivations = p.Motivations
	e.Qualifications = p.Qualifications
	e.ImageURL = p.Image
	e.PaymentAddress = p.PaymentAddress
	e.IdentityReferences = p.IdentityReferences()
	e.LinkReferences = p.LinkReferences()
}

func boolPtr(b bool) *bool { return &b }
