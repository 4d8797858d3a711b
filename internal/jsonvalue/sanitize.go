package jsonvalue

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Sanitize convierte un valor Go arbitrario en un Value valido.
//
// Reglas:
//   - primitivas pasan tal cual (NaN/Inf se rechazan);
//   - arreglos: si un elemento no es valido se rechaza el arreglo entero;
//   - objetos: las claves con valores invalidos se descartan, el objeto se conserva;
//   - funciones, canales y demas tipos no JSON se rechazan;
//   - un ciclo rechaza la rama que lo contiene.
//
// Los mapas Go no tienen orden; sus claves se emiten ordenadas.
func Sanitize(v any) (Value, bool) {
	s := sanitizer{visiting: make(map[uintptr]struct{})}
	out := s.value(v)
	return out, out.Defined()
}

type sanitizer struct {
	visiting map[uintptr]struct{}
}

func (s *sanitizer) value(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case *Value:
		if t == nil {
			return Null()
		}
		return *t
	case *Object:
		if t == nil {
			return Null()
		}
		return FromObject(t)
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case json.Number:
		return Number(t)
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case int32:
		return Int(int64(t))
	case uint64:
		return Value{kind: KindNumber, num: json.Number(strconv.FormatUint(t, 10))}
	case json.RawMessage:
		decoded, err := Decode(t)
		if err != nil {
			return Value{}
		}
		return decoded
	case []any:
		return s.guard(reflect.ValueOf(t), func() Value {
			items := make([]Value, 0, len(t))
			for _, it := range t {
				sv := s.value(it)
				if !sv.Defined() {
					return Value{}
				}
				items = append(items, sv)
			}
			return Value{kind: KindArray, arr: items}
		})
	case map[string]any:
		return s.guard(reflect.ValueOf(t), func() Value {
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			obj := NewObject()
			for _, k := range keys {
				obj.Set(k, s.value(t[k]))
			}
			return FromObject(obj)
		})
	case *orderedmap.OrderedMap[string, any]:
		if t == nil {
			return Null()
		}
		return s.guard(reflect.ValueOf(t), func() Value {
			obj := NewObject()
			for pair := t.Oldest(); pair != nil; pair = pair.Next() {
				obj.Set(pair.Key, s.value(pair.Value))
			}
			return FromObject(obj)
		})
	}
	return s.reflected(reflect.ValueOf(v))
}

// reflected cubre slices, mapas con clave string y punteros de otros tipos.
func (s *sanitizer) reflected(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Value{kind: KindNumber, num: json.Number(strconv.FormatUint(rv.Uint(), 10))}
	case reflect.String:
		return String(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		if rv.Kind() == reflect.Pointer {
			return s.guard(rv, func() Value { return s.value(rv.Elem().Interface()) })
		}
		return s.value(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		build := func() Value {
			items := make([]Value, 0, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				sv := s.value(rv.Index(i).Interface())
				if !sv.Defined() {
					return Value{}
				}
				items = append(items, sv)
			}
			return Value{kind: KindArray, arr: items}
		}
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return Null()
			}
			return s.guard(rv, build)
		}
		return build()
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}
		}
		if rv.IsNil() {
			return Null()
		}
		return s.guard(rv, func() Value {
			keys := rv.MapKeys()
			sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
			obj := NewObject()
			for _, k := range keys {
				obj.Set(k.String(), s.value(rv.MapIndex(k).Interface()))
			}
			return FromObject(obj)
		})
	}
	return Value{}
}

// guard marca el contenedor mientras se recorre; reentrar en el indica un ciclo.
func (s *sanitizer) guard(rv reflect.Value, build func() Value) Value {
	if rv.Kind() == reflect.Slice && rv.Len() == 0 {
		return build()
	}
	ptr := rv.Pointer()
	if ptr == 0 {
		return build()
	}
	if _, seen := s.visiting[ptr]; seen {
		return Value{}
	}
	s.visiting[ptr] = struct{}{}
	defer delete(s.visiting, ptr)
	return build()
}
