package rationale

import (
	"fmt"
	"strings"

	"govtwool/internal/jsonvalue"
)

// Standard selecciona el esquema del documento. Los dos son excluyentes.
type Standard string

const (
	// CIP136 es la justificacion de voto de un miembro de comite / DRep.
	CIP136 Standard = "cip136"
	// CIP108 es el esquema title/abstract/motivation/rationale.
	CIP108 Standard = "cip108"
)

const (
	cip100Vocab = "https://github.com/cardano-foundation/CIPs/blob/master/CIP-0100/README.md#"
	cip108Vocab = "https://github.com/cardano-foundation/CIPs/blob/master/CIP-0108/README.md#"
	cip136Vocab = "https://github.com/cardano-foundation/CIPs/blob/master/CIP-0136/README.md#"
)

// ParseStandard acepta "cip136", "CIP-136", "136", etc.
func ParseStandard(s string) (Standard, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer("cip-0", "", "cip-", "", "cip0", "", "cip", "").Replace(n)
	switch n {
	case "136":
		return CIP136, nil
	case "108":
		return CIP108, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStandard, s)
}

// field describe un campo de texto del body.
type field struct {
	key      string
	required bool
	limit    int
}

const longTextLimit = 20000

// schema es el conjunto de campos y tipos de referencia de un estandar.
type schema struct {
	prefix   string
	fields   []field
	refTypes []string
}

var schemas = map[Standard]schema{
	CIP136: {
		prefix: "CIP136",
		fields: []field{
			{key: "summary", required: true, limit: 300},
			{key: "rationaleStatement", required: true, limit: longTextLimit},
			{key: "precedentDiscussion", limit: longTextLimit},
			{key: "counterargumentDiscussion", limit: longTextLimit},
			{key: "conclusion", limit: longTextLimit},
		},
		refTypes: []string{"GovernanceMetadata", "RelevantArticles", "Other"},
	},
	CIP108: {
		prefix: "CIP108",
		fields: []field{
			{key: "title", required: true, limit: 80},
			{key: "abstract", required: true, limit: 2500},
			{key: "motivation", required: true, limit: longTextLimit},
			{key: "rationale", required: true, limit: longTextLimit},
		},
		refTypes: []string{"GovernanceMetadata", "Other"},
	},
}

// context construye el bloque @context fijo de cada estandar.
func (s schema) context(std Standard) jsonvalue.Value {
	refCtx := jsonvalue.NewObject()
	for _, t := range s.refTypes {
		vocab := "CIP100:"
		if t == "RelevantArticles" {
			vocab = s.prefix + ":"
		}
		name := t
		if t == "GovernanceMetadata" || t == "Other" {
			name += "Reference"
		}
		refCtx.Set(t, jsonvalue.String(vocab+name))
	}
	refCtx.Set("label", jsonvalue.String("CIP100:reference-label"))
	refCtx.Set("uri", jsonvalue.String("CIP100:reference-uri"))

	bodyCtx := jsonvalue.NewObject()
	bodyCtx.Set("references", jsonvalue.FromObject(jsonvalue.NewObject().
		Set("@id", jsonvalue.String("CIP100:references")).
		Set("@container", jsonvalue.String("@set")).
		Set("@context", jsonvalue.FromObject(refCtx))))
	for _, f := range s.fields {
		bodyCtx.Set(f.key, jsonvalue.String(s.prefix+":"+f.key))
	}

	authorsCtx := jsonvalue.NewObject().
		Set("name", jsonvalue.String("http://xmlns.com/foaf/0.1/name")).
		Set("witness", jsonvalue.FromObject(jsonvalue.NewObject().
			Set("@id", jsonvalue.String("CIP100:witness")).
			Set("@context", jsonvalue.FromObject(jsonvalue.NewObject().
				Set("witnessAlgorithm", jsonvalue.String("CIP100:witnessAlgorithm")).
				Set("publicKey", jsonvalue.String("CIP100:publicKey")).
				Set("signature", jsonvalue.String("CIP100:signature"))))))

	vocab := cip108Vocab
	if std == CIP136 {
		vocab = cip136Vocab
	}
	ctx := jsonvalue.NewObject().
		Set("@language", jsonvalue.String("en-us")).
		Set("CIP100", jsonvalue.String(cip100Vocab)).
		Set(s.prefix, jsonvalue.String(vocab)).
		Set("hashAlgorithm", jsonvalue.String("CIP100:hashAlgorithm")).
		Set("body", jsonvalue.FromObject(jsonvalue.NewObject().
			Set("@id", jsonvalue.String(s.prefix+":body")).
			Set("@context", jsonvalue.FromObject(bodyCtx)))).
		Set("authors", jsonvalue.FromObject(jsonvalue.NewObject().
			Set("@id", jsonvalue.String("CIP100:authors")).
			Set("@container", jsonvalue.String("@set")).
			Set("@context", jsonvalue.FromObject(authorsCtx))))
	return jsonvalue.FromObject(ctx)
}

// refType normaliza @type al vocabulario del estandar; lo desconocido es Other.
func (s schema) refType(t string) string {
	t = strings.TrimSpace(t)
	for _, known := range s.refTypes {
		if strings.EqualFold(t, known) {
			return known
		}
	}
	return "Other"
}
