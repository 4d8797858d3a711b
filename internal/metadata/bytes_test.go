package metadata

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govtwool/internal/jsonvalue"
)

func TestDecodeBytes_RoundTripsEscapedHex(t *testing.T) {
	payload := `{"name":"X"}`
	encoded := `\x` + hex.EncodeToString([]byte(payload))

	v, ok := DecodeBytes(encoded)
	require.True(t, ok)
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, payload, string(out))
}

func TestDecodeBytes_PlainHexAndRepeatedMarkers(t *testing.T) {
	h := hex.EncodeToString([]byte(`{"a":[1,2]}`))

	v, ok := DecodeBytes(h)
	require.True(t, ok)
	assert.Equal(t, "1", string(mustNumber(t, v.Get("a"), 0)))

	withArtifacts := `\x` + h[:4] + `\x` + h[4:10] + `\x\x` + h[10:]
	v2, ok := DecodeBytes(withArtifacts)
	require.True(t, ok)
	out, err := json.Marshal(v2)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,2]}`, string(out))
}

func TestDecodeBytes_Failures(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"only marker":  `\x`,
		"odd length":   "7b2",
		"not hex":      "zz",
		"not json":     hex.EncodeToString([]byte("hello")),
		"truncated":    hex.EncodeToString([]byte(`{"name":`)),
		"trailing":     hex.EncodeToString([]byte(`{} {}`)),
		"inner marker": `\x7\x`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, ok := DecodeBytes(in)
				assert.False(t, ok)
			})
		})
	}
}

func TestDecodeBytes_InvalidUTF8StillParsesWhenInsideString(t *testing.T) {
	raw := append([]byte(`{"name":"a`), 0xff)
	raw = append(raw, []byte(`b"}`)...)

	v, ok := DecodeBytes(hex.EncodeToString(raw))
	require.True(t, ok)
	assert.Equal(t, "a\uFFFDb", v.Get("name").Str())
}

func mustNumber(t *testing.T, arr jsonvalue.Value, i int) json.Number {
	t.Helper()
	items, ok := arr.AsArray()
	require.True(t, ok)
	n, ok := items[i].AsNumber()
	require.True(t, ok)
	return n
}
