package rationale

import (
	"encoding/hex"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/blake2b"
)

// Anchor es lo que se publica on-chain junto a la URL del documento.
type Anchor struct {
	DataHash string `json:"data_hash"`
	CID      string `json:"cid"`
	Size     int    `json:"size"`
}

// ComputeAnchor calcula blake2b-256 sobre los bytes exactos del documento
// y el CIDv1 (raw, sha2-256) con el que IPFS lo direccionaria.
func ComputeAnchor(doc *Document) (Anchor, error) {
	sum := blake2b.Sum256(doc.raw)
	c, err := contentID(doc.raw)
	if err != nil {
		return Anchor{}, err
	}
	return Anchor{
		DataHash: hex.EncodeToString(sum[:]),
		CID:      c,
		Size:     len(doc.raw),
	}, nil
}

func contentID(data []byte) (string, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("multihash: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}
