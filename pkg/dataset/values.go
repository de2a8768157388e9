package dataset

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// IsNull reports whether a cell is null-like: nil, a float NaN, a nil
// pointer, or a driver.Valuer yielding nil (sql.NullString and friends).
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case driver.Valuer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return true
		}
		inner, err := x.Value()
		return err == nil && inner == nil
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// Equal compares two non-null cells. Integers, floats and decimals compare
// by numeric value, byte slices compare as strings.
func Equal(a, b any) bool {
	if ad, ok := a.(decimal.Decimal); ok {
		bd, ok := asDecimal(b)
		return ok && ad.Equal(bd)
	}
	if bd, ok := b.(decimal.Decimal); ok {
		ad, ok := asDecimal(a)
		return ok && ad.Equal(bd)
	}
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			return ai == bi
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
	}
	if as, ok := asString(a); ok {
		if bs, ok := asString(b); ok {
			return as == bs
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
	}
	return reflect.DeepEqual(a, b)
}

// keyOf maps a cell to a comparable map key consistent with Equal for the
// types key columns hold in practice.
func keyOf(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		if d.IsInteger() && d.Abs().LessThan(maxExactFloat) {
			return d.IntPart()
		}
		return d.InexactFloat64()
	}
	if i, ok := asInt(v); ok {
		return i
	}
	if f, ok := asFloat(v); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	}
	if s, ok := asString(v); ok {
		return s
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	if reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprintf("%#v", v)
}

var maxExactFloat = decimal.NewFromInt(1 << 53)

// asDecimal converts a numeric cell. Infinite floats have no decimal form.
func asDecimal(v any) (decimal.Decimal, bool) {
	if d, ok := v.(decimal.Decimal); ok {
		return d, true
	}
	if i, ok := asInt(v); ok {
		return decimal.NewFromInt(i), true
	}
	if f, ok := asFloat(v); ok && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return decimal.NewFromFloat(f), true
	}
	return decimal.Decimal{}, false
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	}
	return "", false
}

// Format renders a non-null cell as text. Whole floats print without a
// fractional part so numeric keys read the same whatever their source type.
func Format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.DateTime)
	case fmt.Stringer:
		return x.String()
	}
	if i, ok := asInt(v); ok {
		return strconv.FormatInt(i, 10)
	}
	return fmt.Sprint(v)
}
