// Package metadata canonicaliza los blobs de metadatos de gobernanza.
//
// Los indexadores entregan el mismo documento con envolturas distintas
// (body, json_metadata.body, extra.body, plano, bytes hex). Inspect resuelve
// esa forma una sola vez y ExtractProfile recorre las ubicaciones en orden.
package metadata

import (
	"strings"

	"govtwool/internal/jsonvalue"
)

// Location identifica donde se encontro un objeto candidato.
type Location uint8

const (
	LocBody Location = iota
	LocJSONMetadataBody
	LocExtraBody
	LocExtraJSONMetadataBody
	LocRoot
	LocExtra
	LocJSONMetadata
)

func (l Location) String() string {
	switch l {
	case LocBody:
		return "body"
	case LocJSONMetadataBody:
		return "json_metadata.body"
	case LocExtraBody:
		return "extra.body"
	case LocExtraJSONMetadataBody:
		return "extra.json_metadata.body"
	case LocRoot:
		return "root"
	case LocExtra:
		return "extra"
	case LocJSONMetadata:
		return "json_metadata"
	default:
		return "unknown"
	}
}

// Standard es la version de esquema declarada en @context, si la hay.
type Standard string

const (
	StandardUnknown Standard = ""
	StandardCIP100  Standard = "CIP-100"
	StandardCIP108  Standard = "CIP-108"
	StandardCIP119  Standard = "CIP-119"
	StandardCIP136  Standard = "CIP-136"
)

// Candidate es un objeto en una ubicacion conocida.
type Candidate struct {
	Location Location
	Object   *jsonvalue.Object
}

// Layout es el discriminador explicito de la forma de un RawMetadata.
type Layout struct {
	IsObject bool
	// Bodies en orden de prioridad: body, json_metadata.body, extra.body,
	// extra.json_metadata.body.
	Bodies []Candidate
	// Flat en orden: raw, raw.extra, raw.json_metadata.
	Flat     []Candidate
	Bytes    string
	Standard Standard
}

// Wrapped indica si hay al menos un body envuelto.
func (l Layout) Wrapped() bool { return len(l.Bodies) > 0 }

// Inspect clasifica raw sin modificarlo.
func Inspect(raw jsonvalue.Value) Layout {
	root, ok := raw.AsObject()
	if !ok {
		return Layout{}
	}
	layout := Layout{IsObject: true}

	jm := objectAt(jsonMetadata(raw))
	extra := objectAt(raw.Get("extra"))
	var extraJM *jsonvalue.Object
	if extra != nil {
		extraJM = objectAt(jsonMetadata(jsonvalue.FromObject(extra)))
	}

	addBody := func(loc Location, parent *jsonvalue.Object) {
		if parent == nil {
			return
		}
		body, _ := parent.Get("body")
		if obj := objectAt(body); obj != nil {
			layout.Bodies = append(layout.Bodies, Candidate{Location: loc, Object: obj})
		}
	}
	addBody(LocBody, root)
	addBody(LocJSONMetadataBody, jm)
	addBody(LocExtraBody, extra)
	addBody(LocExtraJSONMetadataBody, extraJM)

	layout.Flat = append(layout.Flat, Candidate{Location: LocRoot, Object: root})
	if extra != nil {
		layout.Flat = append(layout.Flat, Candidate{Location: LocExtra, Object: extra})
	}
	if jm != nil {
		layout.Flat = append(layout.Flat, Candidate{Location: LocJSONMetadata, Object: jm})
	}

	if b, ok := raw.Get("bytes").AsString(); ok {
		layout.Bytes = strings.TrimSpace(b)
	}
	layout.Standard = detectStandard(raw)
	if layout.Standard == StandardUnknown && jm != nil {
		layout.Standard = detectStandard(jsonvalue.FromObject(jm))
	}
	return layout
}

// jsonMetadata devuelve v.json_metadata; si es un string con JSON lo parsea.
func jsonMetadata(v jsonvalue.Value) jsonvalue.Value {
	jm := v.Get("json_metadata")
	if s, ok := jm.AsString(); ok {
		decoded, err := jsonvalue.Decode([]byte(strings.TrimSpace(s)))
		if err != nil {
			return jsonvalue.Value{}
		}
		return decoded
	}
	return jm
}

func objectAt(v jsonvalue.Value) *jsonvalue.Object {
	obj, ok := v.AsObject()
	if !ok {
		return nil
	}
	return obj
}

// detectStandard busca la URL del vocabulario CIP en @context.
func detectStandard(v jsonvalue.Value) Standard {
	ctx := v.Get("@context")
	var haystack []string
	switch ctx.Kind() {
	case jsonvalue.KindString:
		haystack = append(haystack, ctx.Str())
	case jsonvalue.KindObject:
		obj, _ := ctx.AsObject()
		obj.Range(func(k string, item jsonvalue.Value) bool {
			haystack = append(haystack, k, item.Str())
			return true
		})
	case jsonvalue.KindArray:
		items, _ := ctx.AsArray()
		for _, it := range items {
			haystack = append(haystack, it.Str())
		}
	}

	joined := strings.ToUpper(strings.Join(haystack, " "))
	joined = strings.NewReplacer("CIP-0", "CIP", "CIP-", "CIP", "CIP0", "CIP").Replace(joined)
	for _, c := range []struct {
		needle string
		std    Standard
	}{
		{"CIP136", StandardCIP136},
		{"CIP119", StandardCIP119},
		{"CIP108", StandardCIP108},
		{"CIP100", StandardCIP100},
	} {
		if strings.Contains(joined, c.needle) {
			return c.std
		}
	}
	return StandardUnknown
}
