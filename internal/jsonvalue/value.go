// Package jsonvalue define un arbol JSON estrictamente tipado y ordenado.
//
// El valor cero de Value es "undefined": nunca se serializa y nunca aparece como
// hoja dentro de un arbol valido.
package jsonvalue

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// Kind identifica la variante de un Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "undefined"
	}
}

// ErrUndefined se devuelve al intentar serializar un Value undefined.
var ErrUndefined = errors.New("jsonvalue: undefined value")

// Value es la union cerrada primitive | array | object.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  *Object
}

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func String(s string) Value { return Value{kind: KindString, str: s} }

// Number valida el literal; si no es un numero JSON finito devuelve undefined.
func Number(n json.Number) Value {
	if !validNumber(string(n)) {
		return Value{}
	}
	return Value{kind: KindNumber, num: n}
}

func Int(i int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(i, 10))}
}

// Float devuelve undefined para NaN e Inf, que no tienen representacion JSON.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

// Array rechaza el arreglo completo si algun elemento es undefined.
func Array(items ...Value) Value {
	out := make([]Value, 0, len(items))
	for _, it := range items {
		if !it.Defined() {
			return Value{}
		}
		out = append(out, it)
	}
	return Value{kind: KindArray, arr: out}
}

func FromObject(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Defined() bool { return v.kind != KindUndefined }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// Str devuelve el string o "" si el valor no es string.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (json.Number, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) AsObject() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Get navega una clave de objeto; devuelve undefined si no aplica.
func (v Value) Get(key string) Value {
	if v.kind != KindObject {
		return Value{}
	}
	got, _ := v.obj.Get(key)
	return got
}

// Path navega varias claves anidadas.
func (v Value) Path(keys ...string) Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
		if !cur.Defined() {
			return Value{}
		}
	}
	return cur
}

// Equal compara estructura y orden de claves.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return a.obj.equal(b.obj)
	}
	return false
}

func validNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == 'x' || c == 'X' || c == '_' {
			return false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
