package drepid

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func sampleHash() []byte {
	h := make([]byte, hashLen)
	for i := range h {
		h[i] = byte(i * 7)
	}
	return h
}

func TestRoundTripKeyAndScript(t *testing.T) {
	for _, script := range []bool{false, true} {
		id := ID{Hash: sampleHash(), Script: script}

		cip105, err := id.CIP105()
		if err != nil {
			t.Fatalf("encode cip105: %v", err)
		}
		if script && !strings.HasPrefix(cip105, "drep_script1") {
			t.Fatalf("script id must use drep_script hrp, got %s", cip105)
		}

		cip129, err := NormalizeToCIP129(cip105)
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}
		if !strings.HasPrefix(cip129, "drep1") {
			t.Fatalf("cip129 must use drep hrp, got %s", cip129)
		}

		parsed, err := Parse(cip129)
		if err != nil {
			t.Fatalf("parse cip129: %v", err)
		}
		if parsed.Script != script || !bytes.Equal(parsed.Hash, id.Hash) {
			t.Fatalf("unexpected parsed id: %+v", parsed)
		}

		back, err := ToCIP105(cip129)
		if err != nil {
			t.Fatalf("to cip105: %v", err)
		}
		if back != cip105 {
			t.Fatalf("expected %s, got %s", cip105, back)
		}

		again, err := NormalizeToCIP129(cip129)
		if err != nil || again != cip129 {
			t.Fatalf("normalize must be idempotent: %s %v", again, err)
		}
	}
}

func TestParseHex(t *testing.T) {
	id := ID{Hash: sampleHash()}
	parsed, err := Parse(id.Hex())
	if err != nil {
		t.Fatalf("parse hex: %v", err)
	}
	if parsed.Script || !bytes.Equal(parsed.Hash, id.Hash) {
		t.Fatalf("unexpected: %+v", parsed)
	}

	scriptHex := "23" + id.Hex()
	parsed, err = Parse(scriptHex)
	if err != nil || !parsed.Script {
		t.Fatalf("expected script from header, got %+v %v", parsed, err)
	}
}

func TestInvalidIDs(t *testing.T) {
	for _, in := range []string{"", "drep1notvalid", "abc", "ff" + strings.Repeat("00", hashLen)} {
		if _, err := NormalizeToCIP129(in); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID for %q, got %v", in, err)
		}
	}
}

func TestSpecialDRepsPassThrough(t *testing.T) {
	for _, id := range []string{"drep_always_abstain", "drep_always_no_confidence"} {
		got, err := NormalizeToCIP129(id)
		if err != nil || got != id {
			t.Fatalf("expected passthrough for %s, got %s %v", id, got, err)
		}
		if FallbackLabel(id) == id {
			t.Fatalf("expected readable label for %s", id)
		}
	}
}

func TestCacheKeyUnifiesEncodings(t *testing.T) {
	id := ID{Hash: sampleHash()}
	cip105, _ := id.CIP105()
	cip129, _ := id.CIP129()
	if CacheKey(cip105) != CacheKey(cip129) {
		t.Fatalf("both encodings must map to the same key")
	}
	if CacheKey(" gov_action1xyz ") != "gov_action1xyz" {
		t.Fatalf("non drep ids are only trimmed")
	}
}

func TestFallbackLabel(t *testing.T) {
	if got := FallbackLabel("short"); got != "short" {
		t.Fatalf("short ids stay intact, got %s", got)
	}
	long := "drep1abcdefghijklmnopqrstuvwxyz0123456789"
	got := FallbackLabel(long)
	if !strings.HasPrefix(got, "drep1abcde") || !strings.HasSuffix(got, "456789") || !strings.Contains(got, "…") {
		t.Fatalf("unexpected label %s", got)
	}
}
