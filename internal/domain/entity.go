package domain

import "govtwool/internal/jsonvalue"

// EntityKind distingue DReps de acciones de gobernanza.
type EntityKind string

const (
	KindDRep   EntityKind = "drep"
	KindAction EntityKind = "action"
)

// Anchor apunta al documento de metadatos off-chain.
type Anchor struct {
	URL      string `json:"url"`
	DataHash string `json:"data_hash,omitempty"`
}

// Entity es el registro de larga vida que se muestra en listados.
//
// RawMetadata guarda el blob tal como llego del indexador; Metadata y los
// campos planos (GivenName, Objectives, ...) se derivan de el y pueden
// recalcularse en cualquier momento.
type Entity struct {
	ID          string     `json:"id"`
	Kind        EntityKind `json:"kind"`
	Hex         string     `json:"hex,omitempty"`
	View        string     `json:"view,omitempty"`
	Status      string     `json:"status,omitempty"`
	Active      *bool      `json:"active,omitempty"`
	ActiveEpoch int        `json:"active_epoch,omitempty"`
	VotingPower string     `json:"voting_power,omitempty"`
	Anchor      *Anchor    `json:"anchor,omitempty"`

	// Solo acciones de gobernanza.
	TxHash     string `json:"tx_hash,omitempty"`
	ActionType string `json:"type,omitempty"`

	RawMetadata jsonvalue.Value `json:"-"`

	Metadata           *Profile    `json:"metadata,omitempty"`
	HasProfile         *bool       `json:"has_profile"`
	GivenName          string      `json:"given_name,omitempty"`
	DisplayName        string      `json:"display_name"`
	Objectives         string      `json:"objectives,omitempty"`
	Motivations        string      `json:"motivations,omitempty"`
	Qualifications     string      `json:"qualifications,omitempty"`
	ImageURL           string      `json:"image_url,omitempty"`
	PaymentAddress     string      `json:"payment_address,omitempty"`
	IdentityReferences []Reference `json:"identity_references,omitempty"`
	LinkReferences     []Reference `json:"link_references,omitempty"`
}

// Resolved indica si has_profile ya tiene un valor definido.
func (e Entity) Resolved() bool { return e.HasProfile != nil }

// PageQuery describe una peticion paginada al indexador.
type PageQuery struct {
	Page      int      `json:"page"`
	PageSize  int      `json:"page_size"`
	Search    string   `json:"search,omitempty"`
	Statuses  []string `json:"status,omitempty"`
	Sort      string   `json:"sort,omitempty"`
	Direction string   `json:"direction,omitempty"`
}

// Normalize aplica limites y valores por defecto.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	if q.Direction != "asc" {
		q.Direction = "desc"
	}
	return q
}

// Page es la respuesta paginada; Total es opcional segun el indexador.
type Page struct {
	Entities []Entity `json:"entities"`
	HasMore  bool     `json:"has_more"`
	Total    *int64   `json:"total,omitempty"`
}
