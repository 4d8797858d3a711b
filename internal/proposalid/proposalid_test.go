package proposalid

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

var sampleHex = strings.Repeat("0a1b", 16)

func TestParseIndexerForm(t *testing.T) {
	id, err := Parse(sampleHex + "#3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.Index != 3 || len(id.TxHash) != txHashLen {
		t.Fatalf("unexpected id %+v", id)
	}
	if id.String() != sampleHex+"#3" {
		t.Fatalf("string form changed: %s", id.String())
	}

	bare, err := Parse(sampleHex)
	if err != nil || bare.Index != 0 {
		t.Fatalf("bare hash must default to index 0, got %+v err=%v", bare, err)
	}
}

func TestCIP129RoundTrip(t *testing.T) {
	for _, idx := range []uint32{0, 17, 255, 256, 70000} {
		raw, _ := Parse(sampleHex)
		raw.Index = idx

		enc, err := raw.CIP129()
		if err != nil {
			t.Fatalf("encode %d: %v", idx, err)
		}
		if !strings.HasPrefix(enc, "gov_action1") {
			t.Fatalf("unexpected hrp: %s", enc)
		}
		back, err := Parse(enc)
		if err != nil {
			t.Fatalf("parse %s: %v", enc, err)
		}
		if back.Index != idx || !bytes.Equal(back.TxHash, raw.TxHash) {
			t.Fatalf("round trip mismatch for %d: %+v", idx, back)
		}
	}
}

func TestCIP129UsesSingleIndexByteForSmallIndexes(t *testing.T) {
	id, _ := Parse(sampleHex + "#17")
	enc, err := id.CIP129()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, data, err := bech32.Decode(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(payload) != txHashLen+1 || payload[txHashLen] != 17 {
		t.Fatalf("unexpected payload tail %x", payload[txHashLen:])
	}
}

func TestCacheKeyUnifiesForms(t *testing.T) {
	id, _ := Parse(sampleHex + "#2")
	cip129, err := id.CIP129()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, in := range []string{sampleHex + "#2", " " + cip129 + " ", strings.ToUpper(sampleHex) + "#2"} {
		if got := CacheKey(in); got != cip129 {
			t.Fatalf("CacheKey(%q) = %q, want %q", in, got, cip129)
		}
	}
	if got := CacheKey(" drep1abc "); got != "drep1abc" {
		t.Fatalf("non-action ids pass through trimmed, got %q", got)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "abc#1", sampleHex + "#x", sampleHex + "#-1", sampleHex[:62] + "#0", "gov_action1qqqq"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("Parse(%q) err = %v, want ErrInvalidID", in, err)
		}
	}
}
