package tableview

import (
	"cmp"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Value classes in ascending order. Values of different classes compare by
// class; missing values sort last.
const (
	classNumber = iota
	classString
	classBool
	classTime
	classOther
	classNil
)

// Compare is the total order used for sorting column values. It returns -1, 0
// or +1.
//
// Numbers (any int, uint or float kind, and json.Number) come first and compare
// numerically, NaN below every other number. Strings compare byte-wise, so
// "Zoe" < "ana". Then booleans (false < true), then time.Time, then any other
// value by its fmt rendering. nil and nil pointers sort last.
func Compare(a, b any) int {
	ca, va := classify(a)
	cb, vb := classify(b)
	if ca != cb {
		return cmp.Compare(ca, cb)
	}
	switch ca {
	case classNumber:
		return cmp.Compare(va.(float64), vb.(float64))
	case classString, classOther:
		return strings.Compare(va.(string), vb.(string))
	case classBool:
		x, y := va.(bool), vb.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case classTime:
		return va.(time.Time).Compare(vb.(time.Time))
	}
	return 0
}

func classify(v any) (int, any) {
	switch t := v.(type) {
	case nil:
		return classNil, nil
	case time.Time:
		return classTime, t
	case *time.Time:
		if t == nil {
			return classNil, nil
		}
		return classTime, *t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return classString, t.String()
		}
		return classNumber, f
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return classNil, nil
		}
		return classify(rv.Elem().Interface())
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return classNumber, float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return classNumber, float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return classNumber, rv.Float()
	case reflect.String:
		return classString, rv.String()
	case reflect.Bool:
		return classBool, rv.Bool()
	}
	return classOther, fmt.Sprint(v)
}
