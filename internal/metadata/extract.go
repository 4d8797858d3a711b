package metadata

import (
	"strings"

	"govtwool/internal/domain"
	"govtwool/internal/jsonvalue"
)

// maxBytesDepth acota la recursion del fallback de bytes.
const maxBytesDepth = 4

// imageKeys son las claves que un objeto imagen puede usar para la URL.
var imageKeys = []string{"contentUrl", "url", "href", "image"}

// reader extrae un valor de texto de un nodo JSON.
type reader func(jsonvalue.Value) string

// field es una regla de precedencia: claves sinonimas en orden y el campo
// de Profile que alimentan. La primera clave con valor no vacio gana.
type field struct {
	name string
	keys []string
	read reader
	slot func(*domain.Profile) *string
}

// fields es la tabla unica de precedencia de sinonimos.
var fields = []field{
	{"name", []string{"name", "givenName"}, textOf, func(p *domain.Profile) *string { return &p.Name }},
	{"title", []string{"title", "givenName"}, textOf, func(p *domain.Profile) *string { return &p.Title }},
	{"description", []string{"description", "abstract"}, textOf, func(p *domain.Profile) *string { return &p.Description }},
	{"website", []string{"website", "url"}, textOf, func(p *domain.Profile) *string { return &p.Website }},
	{"image", []string{"image", "logo", "picture"}, imageOf, func(p *domain.Profile) *string { return &p.Image }},
	{"email", []string{"email"}, textOf, func(p *domain.Profile) *string { return &p.Email }},
	{"twitter", []string{"twitter"}, textOf, func(p *domain.Profile) *string { return &p.Twitter }},
	{"github", []string{"github"}, textOf, func(p *domain.Profile) *string { return &p.Github }},
	{"paymentAddress", []string{"paymentAddress"}, textOf, func(p *domain.Profile) *string { return &p.PaymentAddress }},
	{"objectives", []string{"objectives"}, textOf, func(p *domain.Profile) *string { return &p.Objectives }},
	{"motivations", []string{"motivations"}, textOf, func(p *domain.Profile) *string { return &p.Motivations }},
	{"qualifications", []string{"qualifications"}, textOf, func(p *domain.Profile) *string { return &p.Qualifications }},
}

// ExtractProfile busca el perfil canonico en raw.
//
// Orden: cada body envuelto (body, json_metadata.body, extra.body,
// extra.json_metadata.body), luego raw, raw.extra y raw.json_metadata como
// objetos planos. Cada ubicacion solo completa campos vacios. Si al final no
// hay name ni title y raw.bytes existe, se decodifica y se extrae de nuevo
// sobre el resultado como fuente adicional.
//
// Devuelve nil si raw no es un objeto o no se resolvio ningun campo.
func ExtractProfile(raw jsonvalue.Value) *domain.Profile {
	return extract(raw, 0)
}

func extract(raw jsonvalue.Value, depth int) *domain.Profile {
	layout := Inspect(raw)
	if !layout.IsObject {
		return nil
	}

	p := &domain.Profile{}
	for _, c := range layout.Bodies {
		merge(p, c.Object)
	}
	for _, c := range layout.Flat {
		merge(p, c.Object)
	}

	if !p.HasName() && layout.Bytes != "" && depth < maxBytesDepth {
		if decoded, ok := DecodeBytes(layout.Bytes); ok {
			p.FillFrom(extract(decoded, depth+1))
		}
	}

	if p.IsEmpty() {
		return nil
	}
	return p
}

// merge completa en p los campos todavia vacios a partir de obj.
func merge(p *domain.Profile, obj *jsonvalue.Object) {
	for _, f := range fields {
		slot := f.slot(p)
		if *slot != "" {
			continue
		}
		for _, k := range f.keys {
			v, _ := obj.Get(k)
			if s := f.read(v); s != "" {
				*slot = s
				break
			}
		}
	}

	if p.DoNotList == nil {
		v, _ := obj.Get("doNotList")
		if b, ok := unwrap(v).AsBool(); ok {
			p.DoNotList = &b
		}
	}

	if len(p.References) == 0 {
		v, _ := obj.Get("references")
		p.References = referencesOf(v)
	}
}

// unwrap resuelve un nivel de {"@value": x} de JSON-LD.
func unwrap(v jsonvalue.Value) jsonvalue.Value {
	if inner := v.Get("@value"); inner.Defined() {
		return inner
	}
	return v
}

func textOf(v jsonvalue.Value) string {
	s, ok := unwrap(v).AsString()
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// imageOf acepta un string (URL) o un objeto con contentUrl/url/href/image.
func imageOf(v jsonvalue.Value) string {
	v = unwrap(v)
	if s := textOf(v); s != "" {
		return s
	}
	if v.Kind() != jsonvalue.KindObject {
		return ""
	}
	for _, k := range imageKeys {
		if s := textOf(v.Get(k)); s != "" {
			return s
		}
	}
	return ""
}

// referencesOf normaliza una lista de referencias. Las entradas sin label o
// sin uri se descartan.
func referencesOf(v jsonvalue.Value) []domain.Reference {
	items, ok := unwrap(v).AsArray()
	if !ok {
		return nil
	}
	var out []domain.Reference
	for _, it := range items {
		label := textOf(it.Get("label"))
		uri := textOf(it.Get("uri"))
		if label == "" || uri == "" {
			continue
		}
		out = append(out, domain.Reference{
			Type:  NormalizeReferenceType(textOf(it.Get("@type"))),
			Label: label,
			URI:   uri,
		})
	}
	return out
}

// NormalizeReferenceType mapea @type a Identity, Link u Other.
func NormalizeReferenceType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "identity":
		return domain.ReferenceIdentity
	case "link":
		return domain.ReferenceLink
	default:
		return domain.ReferenceOther
	}
}
