// Package cache guarda respuestas crudas del indexador con TTL por tipo de
// clave, en memoria (ttlcache) o en Redis.
package cache

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"govtwool/internal/domain"
)

// Key es una clave tipada; su forma de texto es estable entre backends.
type Key struct {
	name string
	ttl  time.Duration
}

func (k Key) String() string { return k.name }

func (k Key) TTL() time.Duration { return k.ttl }

func (k Key) IsZero() bool { return k.name == "" }

const (
	pageFirstTTL = 30 * time.Second
	pageTTL      = 60 * time.Second
	entityTTL    = 120 * time.Second
	metadataTTL  = 600 * time.Second
)

func pageTTLFor(page int) time.Duration {
	if page <= 1 {
		return pageFirstTTL
	}
	return pageTTL
}

// DRepsPage identifica una pagina de DReps con sus filtros.
func DRepsPage(q domain.PageQuery) Key {
	q = q.Normalize()
	name := "dreps_page:page=" + strconv.Itoa(q.Page) + ":count=" + strconv.Itoa(q.PageSize)
	if f := filters(q); f != "" {
		name += ":filters=" + f
	}
	return Key{name: name, ttl: pageTTLFor(q.Page)}
}

// ActionsPage identifica una pagina de acciones de gobernanza.
func ActionsPage(q domain.PageQuery) Key {
	q = q.Normalize()
	return Key{
		name: "actions_page:page=" + strconv.Itoa(q.Page) + ":count=" + strconv.Itoa(q.PageSize),
		ttl:  pageTTLFor(q.Page),
	}
}

// DRep identifica el detalle de un DRep.
func DRep(id string) Key {
	return Key{name: "drep:" + id, ttl: entityTTL}
}

// DRepMetadata identifica el blob de metadatos de un DRep.
func DRepMetadata(id string) Key {
	return Key{name: "drep_metadata:" + id, ttl: metadataTTL}
}

// Anchor identifica el documento descargado desde una URL de anchor.
func Anchor(url string) Key {
	return Key{name: "anchor:" + url, ttl: metadataTTL}
}

func filters(q domain.PageQuery) string {
	var parts []string
	if s := strings.TrimSpace(q.Search); s != "" {
		parts = append(parts, "search="+strings.ToLower(s))
	}
	if len(q.Statuses) > 0 {
		st := append([]string(nil), q.Statuses...)
		sort.Strings(st)
		parts = append(parts, "status="+strings.Join(st, "|"))
	}
	if q.Sort != "" {
		parts = append(parts, "sort="+q.Sort+"."+q.Direction)
	}
	return strings.Join(parts, ",")
}
