package nav

import (
	"math"
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// numericEquality makes 1 (int64, from goja) and 1.0 (float64, from JSON)
// compare equal. Host state is JSON-like and every JS number is a double.
// NaN equals NaN, otherwise unchanged state holding NaN reads as a change.
var numericEquality = cmp.FilterValues(
	func(x, y any) bool {
		_, okX := toFloat(x)
		_, okY := toFloat(y)
		return okX && okY
	},
	cmp.Comparer(func(x, y any) bool {
		fx, _ := toFloat(x)
		fy, _ := toFloat(y)
		return fx == fy || (math.IsNaN(fx) && math.IsNaN(fy))
	}),
)

// exportAll lets Go structs placed in state by an embedding program compare
// field by field instead of panicking on unexported fields.
var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// StateEqual reports whether two history state values are deeply equal:
// the same primitive value, or sequences and mappings of the same shape
// whose elements are recursively equal. Cyclic values are not supported.
func StateEqual(a, b any) bool {
	return cmp.Equal(a, b, numericEquality, exportAll)
}

func toFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
