// Package rationale arma documentos JSON-LD de justificacion (CIP-136 / CIP-108)
// listos para publicar y anclar on-chain.
package rationale

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"govtwool/internal/domain"
	"govtwool/internal/jsonvalue"
)

const HashAlgorithm = "blake2b-256"

var (
	ErrMissingField    = errors.New("rationale: required field missing")
	ErrFieldTooLong    = errors.New("rationale: field too long")
	ErrUnknownStandard = errors.New("rationale: unknown standard")
)

// ValidationError identifica el campo que fallo.
type ValidationError struct {
	Field  string
	Limit  int
	Actual int
	Err    error
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrFieldTooLong) {
		return fmt.Sprintf("%s: %s exceeds %d characters (got %d)", e.Err, e.Field, e.Limit, e.Actual)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Fields reune los campos de ambos estandares. Solo se leen los del estandar activo.
type Fields struct {
	// CIP-136
	Summary                   string `json:"summary"`
	RationaleStatement        string `json:"rationaleStatement"`
	PrecedentDiscussion       string `json:"precedentDiscussion"`
	CounterargumentDiscussion string `json:"counterargumentDiscussion"`
	Conclusion                string `json:"conclusion"`

	// CIP-108
	Title      string `json:"title"`
	Abstract   string `json:"abstract"`
	Motivation string `json:"motivation"`
	Rationale  string `json:"rationale"`

	References []domain.Reference `json:"references"`
}

func (f Fields) text(key string) string {
	switch key {
	case "summary":
		return f.Summary
	case "rationaleStatement":
		return f.RationaleStatement
	case "precedentDiscussion":
		return f.PrecedentDiscussion
	case "counterargumentDiscussion":
		return f.CounterargumentDiscussion
	case "conclusion":
		return f.Conclusion
	case "title":
		return f.Title
	case "abstract":
		return f.Abstract
	case "motivation":
		return f.Motivation
	case "rationale":
		return f.Rationale
	}
	return ""
}

// Validate revisa obligatorios y limites sin construir el documento.
func Validate(std Standard, f Fields) error {
	s, ok := schemas[std]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStandard, std)
	}
	for _, fd := range s.fields {
		v := strings.TrimSpace(f.text(fd.key))
		if v == "" {
			if fd.required {
				return &ValidationError{Field: fd.key, Err: ErrMissingField}
			}
			continue
		}
		if n := utf8.RuneCountInString(v); n > fd.limit {
			return &ValidationError{Field: fd.key, Limit: fd.limit, Actual: n, Err: ErrFieldTooLong}
		}
	}
	return nil
}

// Build valida y arma el documento. Las secciones opcionales vacias se omiten.
func Build(std Standard, f Fields) (*Document, error) {
	if err := Validate(std, f); err != nil {
		return nil, err
	}
	s := schemas[std]

	body := jsonvalue.NewObject()
	for _, fd := range s.fields {
		if v := strings.TrimSpace(f.text(fd.key)); v != "" {
			body.Set(fd.key, jsonvalue.String(v))
		}
	}
	if refs := s.references(f.References); len(refs) > 0 {
		body.Set("references", jsonvalue.Array(refs...))
	}

	root := jsonvalue.NewObject().
		Set("@context", s.context(std)).
		Set("hashAlgorithm", jsonvalue.String(HashAlgorithm)).
		Set("authors", jsonvalue.Array()).
		Set("body", jsonvalue.FromObject(body))

	return newDocument(std, jsonvalue.FromObject(root))
}

// references descarta entradas sin label o uri.
func (s schema) references(in []domain.Reference) []jsonvalue.Value {
	out := make([]jsonvalue.Value, 0, len(in))
	for _, r := range in {
		label, uri := strings.TrimSpace(r.Label), strings.TrimSpace(r.URI)
		if label == "" || uri == "" {
			continue
		}
		out = append(out, jsonvalue.FromObject(jsonvalue.NewObject().
			Set("@type", jsonvalue.String(s.refType(r.Type))).
			Set("label", jsonvalue.String(label)).
			Set("uri", jsonvalue.String(uri))))
	}
	return out
}
