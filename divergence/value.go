package divergence

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var numericLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// scalar is a metadata value reduced to the form it is compared in.
type scalar struct {
	null    bool
	numeric bool
	num     decimal.Decimal
	str     string
}

// Equal reports whether two metadata values are the same once normalized.
// NULL only equals NULL, numeric values compare by decimal value whatever
// their Go type or spelling ("5", 5, "5.0"), everything else compares as
// its string form.
func Equal(a, b interface{}) bool {
	x, y := normalize(a), normalize(b)
	switch {
	case x.null || y.null:
		return x.null && y.null
	case x.numeric && y.numeric:
		return x.num.Equal(y.num)
	default:
		return x.str == y.str
	}
}

// Display converts a driver value into the form kept on a Divergence.
func Display(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		if t == nil {
			return nil
		}
		return string(t)
	case *string:
		if t == nil {
			return nil
		}
		return *t
	default:
		return v
	}
}

func normalize(v interface{}) scalar {
	switch t := v.(type) {
	case nil:
		return scalar{null: true}
	case []byte:
		if t == nil {
			return scalar{null: true}
		}
		return fromString(string(t))
	case *string:
		if t == nil {
			return scalar{null: true}
		}
		return fromString(*t)
	case string:
		return fromString(t)
	case int:
		return fromDecimal(decimal.NewFromInt(int64(t)))
	case int8:
		return fromDecimal(decimal.NewFromInt(int64(t)))
	case int16:
		return fromDecimal(decimal.NewFromInt(int64(t)))
	case int32:
		return fromDecimal(decimal.NewFromInt(int64(t)))
	case int64:
		return fromDecimal(decimal.NewFromInt(t))
	case uint:
		return fromDecimal(decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(t)), 0))
	case uint8:
		return fromDecimal(decimal.NewFromInt(int64(t)))
	case uint16:
		return fromDecimal(decimal.NewFromInt(int64(t)))
	case uint32:
		return fromDecimal(decimal.NewFromInt(int64(t)))
	case uint64:
		return fromDecimal(decimal.NewFromBigInt(new(big.Int).SetUint64(t), 0))
	case float32:
		return fromFloat(float64(t))
	case float64:
		return fromFloat(t)
	case decimal.Decimal:
		return fromDecimal(t)
	case bool:
		if t {
			return fromDecimal(decimal.NewFromInt(1))
		}
		return fromDecimal(decimal.NewFromInt(0))
	case time.Time:
		return scalar{str: t.Format(time.RFC3339Nano)}
	default:
		return scalar{str: fmt.Sprintf("%v", v)}
	}
}

func fromDecimal(d decimal.Decimal) scalar {
	return scalar{numeric: true, num: d, str: d.String()}
}

func fromFloat(f float64) scalar {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return scalar{str: fmt.Sprintf("%v", f)}
	}
	return fromDecimal(decimal.NewFromFloat(f))
}

func fromString(s string) scalar {
	if d, ok := parseNumeric(s); ok {
		return scalar{numeric: true, num: d, str: s}
	}
	return scalar{str: s}
}

func parseNumeric(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if !numericLiteral.MatchString(s) {
		return decimal.Decimal{}, false
	}
	s = strings.TrimPrefix(s, "+")

	mantissa, exponent := s, ""
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa, exponent = s[:i], s[i:]
	}
	neg := strings.HasPrefix(mantissa, "-")
	mantissa = strings.TrimPrefix(mantissa, "-")
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	mantissa = strings.TrimSuffix(mantissa, ".")
	if neg {
		mantissa = "-" + mantissa
	}

	d, err := decimal.NewFromString(mantissa + exponent)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
