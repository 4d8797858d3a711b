// Package proposalid normaliza identificadores de acciones de gobernanza.
//
// Una accion se identifica por el hash de su transaccion (32 bytes) y el
// indice de la propuesta dentro de ella. Los indexadores usan "txhash#idx";
// CIP-129 codifica hash + indice big-endian en bech32 con hrp "gov_action".
package proposalid

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	txHashLen = 32
	maxIdxLen = 4
	hrp       = "gov_action"
)

var ErrInvalidID = errors.New("invalid governance action id")

// ID es una accion decodificada.
type ID struct {
	TxHash []byte
	Index  uint32
}

// Parse acepta CIP-129, "txhash#idx" o un hash hex suelto (indice 0).
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), hrp+"1") {
		return parseBech32(s)
	}
	hash, idx, found := strings.Cut(s, "#")
	raw, err := hex.DecodeString(hash)
	if err != nil || len(raw) != txHashLen {
		return ID{}, ErrInvalidID
	}
	if !found {
		return ID{TxHash: raw}, nil
	}
	n, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return ID{}, fmt.Errorf("%w: index %q", ErrInvalidID, idx)
	}
	return ID{TxHash: raw, Index: uint32(n)}, nil
}

func parseBech32(s string) (ID, error) {
	got, data, err := bech32.Decode(s)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if got != hrp || len(payload) <= txHashLen || len(payload) > txHashLen+maxIdxLen {
		return ID{}, fmt.Errorf("%w: unexpected payload", ErrInvalidID)
	}
	var idx uint32
	for _, b := range payload[txHashLen:] {
		idx = idx<<8 | uint32(b)
	}
	return ID{TxHash: payload[:txHashLen], Index: idx}, nil
}

// CIP129 codifica el indice con el minimo de bytes (al menos uno).
func (id ID) CIP129() (string, error) {
	idx := make([]byte, 0, maxIdxLen)
	for n := id.Index; ; n >>= 8 {
		idx = append([]byte{byte(n)}, idx...)
		if n < 0x100 {
			break
		}
	}
	conv, err := bech32.ConvertBits(append(append([]byte{}, id.TxHash...), idx...), 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, conv)
}

// String devuelve la forma "txhash#idx".
func (id ID) String() string {
	return hex.EncodeToString(id.TxHash) + "#" + strconv.FormatUint(uint64(id.Index), 10)
}

// CacheKey devuelve la forma CIP-129, o el id recortado si no es una accion.
func CacheKey(s string) string {
	id, err := Parse(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	if k, err := id.CIP129(); err == nil {
		return k
	}
	return strings.TrimSpace(s)
}
