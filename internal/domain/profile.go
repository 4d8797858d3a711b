package domain

import "strings"

// Reference es una entrada {@type, label, uri} de CIP-119 / CIP-100.
type Reference struct {
	Type  string `json:"@type"`
	Label string `json:"label"`
	URI   string `json:"uri"`
}

// Tipos de referencia conocidos.
const (
	ReferenceIdentity = "Identity"
	ReferenceLink     = "Link"
	ReferenceOther    = "Other"
)

// Profile es la vista canonica y plana de los metadatos de una entidad.
// Todos los campos son opcionales; un campo vacio equivale a ausente.
type Profile struct {
	Name           string      `json:"name,omitempty"`
	Title          string      `json:"title,omitempty"`
	Description    string      `json:"description,omitempty"`
	Website        string      `json:"website,omitempty"`
	Email          string      `json:"email,omitempty"`
	Twitter        string      `json:"twitter,omitempty"`
	Github         string      `json:"github,omitempty"`
	Image          string      `json:"image,omitempty"`
	PaymentAddress string      `json:"paymentAddress,omitempty"`
	Objectives     string      `json:"objectives,omitempty"`
	Motivations    string      `json:"motivations,omitempty"`
	Qualifications string      `json:"qualifications,omitempty"`
	DoNotList      *bool       `json:"doNotList,omitempty"`
	References     []Reference `json:"references,omitempty"`
}

// IsPresent indica si el perfil tiene identidad visible: al menos uno de
// name, title, description o website no vacio.
func (p *Profile) IsPresent() bool {
	if p == nil {
		return false
	}
	for _, s := range []string{p.Name, p.Title, p.Description, p.Website} {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// HasName es true si name o title estan resueltos.
func (p *Profile) HasName() bool {
	return p != nil && (strings.TrimSpace(p.Name) != "" || strings.TrimSpace(p.Title) != "")
}

// IsEmpty es true si ningun campo quedo resuelto.
func (p *Profile) IsEmpty() bool {
	if p == nil {
		return true
	}
	for _, f := range p.textFields() {
		if *f != "" {
			return false
		}
	}
	return p.DoNotList == nil && len(p.References) == 0
}

// DisplayName devuelve name, o title si name esta vacio.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if n := strings.TrimSpace(p.Name); n != "" {
		return n
	}
	return strings.TrimSpace(p.Title)
}

// FillFrom copia de src solo los campos que p todavia no tiene.
func (p *Profile) FillFrom(src *Profile) {
	if p == nil || src == nil {
		return
	}
	dst, from := p.textFields(), src.textFields()
	for i := range dst {
		if *dst[i] == "" {
			*dst[i] = *from[i]
		}
	}
	if p.DoNotList == nil && src.DoNotList != nil {
		v := *src.DoNotList
		p.DoNotList = &v
	}
	if len(p.References) == 0 && len(src.References) > 0 {
		p.References = append([]Reference(nil), src.References...)
	}
}

// Overlay devuelve una copia de base con los campos no vacios de top encima.
// top gana en conflicto.
func Overlay(base, top *Profile) *Profile {
	out := &Profile{}
	out.FillFrom(top)
	out.FillFrom(base)
	return out
}

// IdentityReferences filtra las referencias de tipo Identity.
func (p *Profile) IdentityReferences() []Reference {
	return p.referencesWhere(func(r Reference) bool { return r.Type == ReferenceIdentity })
}

// LinkReferences devuelve el resto de referencias.
func (p *Profile) LinkReferences() []Reference {
	return p.referencesWhere(func(r Reference) bool { return r.Type != ReferenceIdentity })
}

func (p *Profile) referencesWhere(keep func(Reference) bool) []Reference {
	if p == nil {
		return nil
	}
	var out []Reference
	for _, r := range p.References {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (p *Profile) textFields() []*string {
	return []*string{
		&p.Name, &p.Title, &p.Description, &p.Website, &p.Email, &p.Twitter,
		&p.Github, &p.Image, &p.PaymentAddress, &p.Objectives, &p.Motivations,
		&p.Qualifications,
	}
}
