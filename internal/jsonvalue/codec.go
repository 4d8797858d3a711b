package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxDepth acota el anidamiento aceptado desde la red.
const maxDepth = 256

var (
	ErrTooDeep         = errors.New("jsonvalue: nesting too deep")
	ErrTrailingData    = errors.New("jsonvalue: trailing data after value")
	errUnexpectedTok   = errors.New("jsonvalue: unexpected token")
	ErrUnrepresentable = errors.New("jsonvalue: value has no finite JSON representation")
)

// Decode parsea JSON conservando el orden de las claves y los numeros exactos.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeNext(dec, 0)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, ErrTrailingData
	}
	if !v.Defined() {
		return Value{}, ErrUnrepresentable
	}
	return v, nil
}

func decodeNext(dec *json.Decoder, depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, ErrTooDeep
	}
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case json.Delim:
		switch t {
		case '[':
			// Un elemento invalido rechaza el arreglo entero, igual que Sanitize.
			items := make([]Value, 0)
			rejected := false
			for dec.More() {
				it, err := decodeNext(dec, depth+1)
				if err != nil {
					return Value{}, err
				}
				if !it.Defined() {
					rejected = true
					continue
				}
				items = append(items, it)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			if rejected {
				return Value{}, nil
			}
			return Value{kind: KindArray, arr: items}, nil
		case '{':
			obj := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, errUnexpectedTok
				}
				it, err := decodeNext(dec, depth+1)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, it)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return FromObject(obj), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %v", errUnexpectedTok, tok)
}

// MarshalJSON serializa de forma determinista: claves en orden de insercion,
// sin espacios y sin escapar HTML.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Marshal es json.Marshal sin escapar HTML: los Value anidados conservan los
// bytes exactos de MarshalJSON.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(string(v.num))
	case KindString:
		return encodeString(buf, v.str)
	case KindArray:
		buf.WriteByte('[')
		for i, it := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		first := true
		var err error
		v.obj.Range(func(k string, it Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err = encodeString(buf, k); err != nil {
				return false
			}
			buf.WriteByte(':')
			err = it.encode(buf)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return ErrUndefined
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
