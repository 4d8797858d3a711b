package jsonvalue

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object es un mapa string -> Value que conserva el orden de insercion.
// Las claves son unicas; un Set sobre una clave existente reemplaza el valor
// sin mover su posicion.
type Object struct {
	m *orderedmap.OrderedMap[string, Value]
}

func NewObject() *Object {
	return &Object{m: orderedmap.New[string, Value]()}
}

// Set ignora valores undefined para mantener el invariante del arbol.
func (o *Object) Set(key string, v Value) *Object {
	if !v.Defined() {
		return o
	}
	o.m.Set(key, v)
	return o
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil || o.m == nil {
		return Value{}, false
	}
	return o.m.Get(key)
}

func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

func (o *Object) Delete(key string) {
	if o == nil || o.m == nil {
		return
	}
	o.m.Delete(key)
}

func (o *Object) Len() int {
	if o == nil || o.m == nil {
		return 0
	}
	return o.m.Len()
}

func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	o.Range(func(k string, _ Value) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Range recorre en orden de insercion hasta que fn devuelva false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil || o.m == nil {
		return
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

func (o *Object) equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	a, b := o.Keys(), other.Keys()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
		va, _ := o.Get(a[i])
		vb, _ := other.Get(b[i])
		if !Equal(va, vb) {
			return false
		}
	}
	return true
}
