package rationale

import (
	"bytes"
	"encoding/json"
	"fmt"

	"govtwool/internal/jsonvalue"
)

// Document es inmutable: se serializa una sola vez al construirse y el hash
// se calcula siempre sobre esos mismos bytes.
type Document struct {
	standard Standard
	raw      []byte
}

func newDocument(std Standard, v jsonvalue.Value) (*Document, error) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode rationale: %w", err)
	}
	return &Document{standard: std, raw: raw}, nil
}

func (d *Document) Standard() Standard { return d.standard }

// Bytes devuelve una copia de la serializacion canonica.
func (d *Document) Bytes() []byte {
	return bytes.Clone(d.raw)
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return d.Bytes(), nil
}

// Value re-decodifica el documento; modificar el resultado no afecta al original.
func (d *Document) Value() jsonvalue.Value {
	v, _ := jsonvalue.Decode(d.raw)
	return v
}

// Indent es la forma legible para descargar o mostrar. No usar para el hash.
func (d *Document) Indent() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d.raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
