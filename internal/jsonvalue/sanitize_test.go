package jsonvalue

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v Value) string {
	t.Helper()
	out, err := Marshal(v)
	require.NoError(t, err)
	return string(out)
}

func TestSanitize_PrimitivesPassThrough(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{"hola", `"hola"`},
		{float64(1.5), "1.5"},
		{42, "42"},
		{json.Number("7"), "7"},
	}
	for _, tc := range cases {
		got, ok := Sanitize(tc.in)
		require.True(t, ok, "input %#v", tc.in)
		assert.Equal(t, tc.want, mustJSON(t, got))
	}
}

func TestSanitize_RejectsNonSerializable(t *testing.T) {
	_, ok := Sanitize(func() {})
	assert.False(t, ok)

	_, ok = Sanitize(make(chan int))
	assert.False(t, ok)

	_, ok = Sanitize(math.NaN())
	assert.False(t, ok)

	_, ok = Sanitize(struct{ A int }{A: 1})
	assert.False(t, ok)
}

func TestSanitize_ArrayWithInvalidElementIsRejected(t *testing.T) {
	_, ok := Sanitize([]any{1, "ok", func() {}})
	assert.False(t, ok)

	_, ok = Sanitize([]any{1, []any{"nested", math.Inf(1)}})
	assert.False(t, ok, "invalid element inside a nested array rejects the outer array too")
}

func TestSanitize_ObjectDropsInvalidKeysOnly(t *testing.T) {
	got, ok := Sanitize(map[string]any{"a": 1, "b": func() {}})
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, mustJSON(t, got))

	got, ok = Sanitize(map[string]any{"list": []any{1, func() {}}, "keep": nil})
	require.True(t, ok)
	assert.Equal(t, `{"keep":null}`, mustJSON(t, got))
}

func TestSanitize_CycleRejectsContainingBranch(t *testing.T) {
	m := map[string]any{"name": "x"}
	m["self"] = m
	got, ok := Sanitize(m)
	require.True(t, ok)
	assert.Equal(t, `{"name":"x"}`, mustJSON(t, got))

	arr := []any{nil}
	arr[0] = arr
	_, ok = Sanitize(arr)
	assert.False(t, ok)
}

func TestSanitize_SharedReferenceIsNotACycle(t *testing.T) {
	shared := map[string]any{"v": 1}
	got, ok := Sanitize(map[string]any{"a": shared, "b": shared})
	require.True(t, ok)
	assert.Equal(t, `{"a":{"v":1},"b":{"v":1}}`, mustJSON(t, got))
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		`null`,
		`"x"`,
		`[1,2,{"a":[true,false,null]}]`,
		`{"z":1,"a":{"nested":"value","n":1.25e3},"m":[]}`,
	}
	for _, raw := range inputs {
		decoded, err := Decode([]byte(raw))
		require.NoError(t, err)
		once, ok := Sanitize(decoded)
		require.True(t, ok)
		twice, ok := Sanitize(once)
		require.True(t, ok)
		assert.True(t, Equal(once, twice), "not idempotent for %s", raw)
	}

	plain := map[string]any{"b": []any{"x", 2.0}, "a": map[string]any{"c": true}}
	once, ok := Sanitize(plain)
	require.True(t, ok)
	twice, ok := Sanitize(once)
	require.True(t, ok)
	assert.True(t, Equal(once, twice))
}

func TestDecode_PreservesKeyOrderAndNumbers(t *testing.T) {
	v, err := Decode([]byte(`{"z":1,"a":12345678901234567890,"m":{"y":null,"b":"s"}}`))
	require.NoError(t, err)
	obj, ok := v.AsObject()
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())
	assert.Equal(t, `{"z":1,"a":12345678901234567890,"m":{"y":null,"b":"s"}}`, mustJSON(t, v))
}

func TestDecode_DuplicateKeyLastWins(t *testing.T) {
	v, err := Decode([]byte(`{"a":1,"b":2,"a":3}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"b":2}`, mustJSON(t, v))
}

func TestDecode_RejectsTrailingData(t *testing.T) {
	_, err := Decode([]byte(`{"a":1} {"b":2}`))
	assert.ErrorIs(t, err, ErrTrailingData)

	_, err = Decode([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestMarshal_UndefinedFails(t *testing.T) {
	_, err := json.Marshal(Value{})
	assert.Error(t, err)
}

func TestMarshal_DoesNotEscapeHTML(t *testing.T) {
	s := String(`<a href="x">&</a>`)
	assert.Equal(t, `"<a href=\"x\">&</a>"`, mustJSON(t, s))

	direct, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"<a href=\"x\">&</a>"`, string(direct))
}

func TestMarshal_NestedValueKeepsExactBytes(t *testing.T) {
	doc := FromObject(NewObject().Set("summary", String("Yes <because> A & B")))
	raw, err := doc.MarshalJSON()
	require.NoError(t, err)

	wrapped, err := Marshal(struct {
		Document Value `json:"document"`
	}{doc})
	require.NoError(t, err)

	var got struct {
		Document json.RawMessage `json:"document"`
	}
	require.NoError(t, json.Unmarshal(wrapped, &got))
	assert.Equal(t, string(raw), string(got.Document))

	escaped, err := json.Marshal(struct {
		Document Value `json:"document"`
	}{doc})
	require.NoError(t, err)
	assert.Contains(t, string(escaped), `\u003c`)
}

func TestDecode_OutOfRangeNumberRejectsArray(t *testing.T) {
	v, err := Decode([]byte(`{"refs":[1, 1e400],"name":"n","n":1e400}`))
	require.NoError(t, err)
	obj, ok := v.AsObject()
	require.True(t, ok)
	assert.Equal(t, []string{"name"}, obj.Keys())

	_, err = v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"n"}`, mustJSON(t, v))
}

func TestDecode_UnrepresentableRootFails(t *testing.T) {
	for _, in := range []string{`1e400`, `[1e400]`, `[[1],[-1e999]]`} {
		_, err := Decode([]byte(in))
		assert.ErrorIs(t, err, ErrUnrepresentable, in)
	}
}

func TestObjectSet_IgnoresUndefined(t *testing.T) {
	obj := NewObject().Set("a", Value{}).Set("b", String("x"))
	assert.Equal(t, []string{"b"}, obj.Keys())
}
