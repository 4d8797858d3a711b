// Package drepid convierte identificadores de DRep entre CIP-105 y CIP-129.
//
// CIP-105 codifica el hash de 28 bytes con hrp "drep" (clave) o
// "drep_script" (script). CIP-129 antepone un byte de cabecera (0x22 clave,
// 0x23 script) y siempre usa hrp "drep".
package drepid

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	hashLen      = 28
	headerKey    = 0x22
	headerScript = 0x23

	hrpKey    = "drep"
	hrpScript = "drep_script"
)

var ErrInvalidID = errors.New("invalid drep id")

var specialLabels = map[string]string{
	"drep_always_abstain":       "Always Abstain",
	"drep_always_no_confidence": "Always No Confidence",
}

// IsSpecial indica si id es un DRep de sistema.
func IsSpecial(id string) bool {
	_, ok := specialLabels[id]
	return ok
}

// ID es un identificador decodificado.
type ID struct {
	Hash   []byte
	Script bool
}

// Parse acepta CIP-105, CIP-129 o el hash hex de 28 bytes (clave).
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}, ErrInvalidID
	}
	if !strings.HasPrefix(strings.ToLower(s), hrpKey) {
		return parseHex(s)
	}

	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}

	switch {
	case hrp == hrpScript && len(payload) == hashLen:
		return ID{Hash: payload, Script: true}, nil
	case hrp == hrpKey && len(payload) == hashLen:
		return ID{Hash: payload}, nil
	case hrp == hrpKey && len(payload) == hashLen+1:
		switch payload[0] {
		case headerKey:
			return ID{Hash: payload[1:]}, nil
		case headerScript:
			return ID{Hash: payload[1:], Script: true}, nil
		}
	}
	return ID{}, fmt.Errorf("%w: unexpected payload", ErrInvalidID)
}

func parseHex(s string) (ID, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	switch {
	case len(raw) == hashLen:
		return ID{Hash: raw}, nil
	case len(raw) == hashLen+1 && (raw[0] == headerKey || raw[0] == headerScript):
		return ID{Hash: raw[1:], Script: raw[0] == headerScript}, nil
	}
	return ID{}, ErrInvalidID
}

// CIP129 codifica con cabecera.
func (id ID) CIP129() (string, error) {
	header := byte(headerKey)
	if id.Script {
		header = headerScript
	}
	return encode(hrpKey, append([]byte{header}, id.Hash...))
}

// CIP105 codifica sin cabecera.
func (id ID) CIP105() (string, error) {
	hrp := hrpKey
	if id.Script {
		hrp = hrpScript
	}
	return encode(hrp, id.Hash)
}

// Hex devuelve el hash en hex.
func (id ID) Hex() string { return hex.EncodeToString(id.Hash) }

func encode(hrp string, payload []byte) (string, error) {
	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, conv)
}

// NormalizeToCIP129 devuelve la forma CIP-129. Los DReps de sistema pasan
// sin cambios.
func NormalizeToCIP129(s string) (string, error) {
	s = strings.TrimSpace(s)
	if IsSpecial(s) {
		return s, nil
	}
	id, err := Parse(s)
	if err != nil {
		return "", err
	}
	return id.CIP129()
}

// ToCIP105 devuelve la forma CIP-105.
func ToCIP105(s string) (string, error) {
	s = strings.TrimSpace(s)
	if IsSpecial(s) {
		return s, nil
	}
	id, err := Parse(s)
	if err != nil {
		return "", err
	}
	return id.CIP105()
}

// CacheKey normaliza para usar como clave; si el id no es valido lo
// devuelve recortado.
func CacheKey(s string) string {
	if n, err := NormalizeToCIP129(s); err == nil {
		return n
	}
	return strings.TrimSpace(s)
}

// FallbackLabel es la etiqueta de una entidad sin perfil: nombre legible
// para DReps de sistema, o el id abreviado (drep1abcd…wxyz).
func FallbackLabel(id string) string {
	id = strings.TrimSpace(id)
	if label, ok := specialLabels[id]; ok {
		return label
	}
	const head, tail = 10, 6
	r := []rune(id)
	if len(r) <= head+tail+1 {
		return id
	}
	return string(r[:head]) + "…" + string(r[len(r)-tail:])
}
