package warehouse

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/dataset"
	"github.com/leapstack-labs/leapload/pkg/schema"
	"github.com/shopspring/decimal"
)

// Encode converts a dataset cell into the driver value for a column of type
// t. Null-like cells encode to nil. Money and percentage columns become
// fixed-point decimals rounded to the column scale.
func Encode(t schema.PhysicalType, v any) (any, error) {
	if dataset.IsNull(v) {
		return nil, nil
	}
	switch t.Kind {
	case schema.KindInteger:
		return encodeInt(v)
	case schema.KindDecimal:
		d, err := encodeDecimal(v)
		if err != nil {
			return nil, err
		}
		return d.Round(int32(t.Scale)), nil
	case schema.KindBit:
		return encodeBool(v)
	default:
		return dataset.Format(v), nil
	}
}

func encodeInt(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case float64:
		return wholeFloat(x)
	case float32:
		return wholeFloat(float64(x))
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case decimal.Decimal:
		if !x.IsInteger() {
			return 0, fmt.Errorf("%s is not an integer", x)
		}
		return x.IntPart(), nil
	case string, []byte:
		s := strings.TrimSpace(dataset.Format(x))
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", s)
		}
		return wholeFloat(f)
	}
	return 0, fmt.Errorf("cannot encode %T as integer", v)
}

func wholeFloat(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int64(f), nil
}

func encodeDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case string, []byte:
		s := strings.TrimSpace(dataset.Format(x))
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%q is not a decimal", s)
		}
		return d, nil
	}
	if i, err := encodeInt(v); err == nil {
		return decimal.NewFromInt(i), nil
	}
	return decimal.Decimal{}, fmt.Errorf("cannot encode %T as decimal", v)
}

func encodeBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string, []byte:
		s := strings.ToLower(strings.TrimSpace(dataset.Format(x)))
		switch s {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", s)
		}
		return b, nil
	}
	i, err := encodeInt(v)
	if err != nil {
		return false, fmt.Errorf("cannot encode %T as boolean", v)
	}
	return i != 0, nil
}
