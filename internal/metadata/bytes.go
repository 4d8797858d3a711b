package metadata

import (
	"encoding/hex"
	"strings"

	"govtwool/internal/jsonvalue"
)

const escapeMarker = `\x`

// DecodeBytes convierte un string hex (opcionalmente con prefijo \x, y con
// marcadores \x repetidos en cualquier posicion) en texto UTF-8 e intenta
// parsearlo como JSON. Devuelve false ante cualquier fallo; nunca hace panic.
func DecodeBytes(s string) (jsonvalue.Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return jsonvalue.Value{}, false
	}
	s = strings.TrimPrefix(s, escapeMarker)
	s = strings.ReplaceAll(s, escapeMarker, "")
	if s == "" || len(s)%2 != 0 {
		return jsonvalue.Value{}, false
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return jsonvalue.Value{}, false
	}
	text := strings.ToValidUTF8(string(raw), "\uFFFD")

	v, err := jsonvalue.Decode([]byte(text))
	if err != nil {
		return jsonvalue.Value{}, false
	}
	return v, true
}
