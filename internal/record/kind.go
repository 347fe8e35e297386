package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the value type of a record field.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindInt
	KindBool
	KindDecimal
	KindTime
	KindStrings
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindDecimal:
		return "decimal"
	case KindTime:
		return "time"
	case KindStrings:
		return "strings"
	}
	return "unknown"
}

// SQLType is the column type used for the kind.
func (k Kind) SQLType() string {
	switch k {
	case KindInt:
		return "bigint"
	case KindBool:
		return "boolean"
	case KindDecimal:
		return "numeric"
	case KindTime:
		return "timestamptz"
	case KindStrings:
		return "jsonb"
	}
	return "text"
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02",
}

// Coerce converts v into the canonical Go value for the kind:
// string, int64, bool, decimal.Decimal, time.Time or []string.
// v may come from a JSON payload, a legacy data blob or a text-rendered column.
func (k Kind) Coerce(v any) (any, error) {
	switch k {
	case KindString:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		}
	case KindInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
				return nil, fmt.Errorf("%v is not an integer", x)
			}
			if x < math.MinInt64 || x >= math.MaxInt64 {
				return nil, fmt.Errorf("%v is out of range", x)
			}
			return int64(x), nil
		case json.Number:
			return x.Int64()
		case string:
			return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		}
	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(x)) {
			case "true", "t", "1", "yes":
				return true, nil
			case "false", "f", "0", "no":
				return false, nil
			}
		}
	case KindDecimal:
		switch x := v.(type) {
		case decimal.Decimal:
			return x, nil
		case string:
			return decimal.NewFromString(strings.TrimSpace(x))
		case json.Number:
			return decimal.NewFromString(x.String())
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("%v is not a finite number", x)
			}
			return decimal.NewFromFloat(x), nil
		case int64:
			return decimal.NewFromInt(x), nil
		case int:
			return decimal.NewFromInt(int64(x)), nil
		}
	case KindTime:
		switch x := v.(type) {
		case time.Time:
			return x.UTC(), nil
		case string:
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, strings.TrimSpace(x)); err == nil {
					return t.UTC(), nil
				}
			}
			return nil, fmt.Errorf("unrecognized time %q", x)
		}
	case KindStrings:
		switch x := v.(type) {
		case []string:
			return append([]string(nil), x...), nil
		case []any:
			out := make([]string, 0, len(x))
			for _, item := range x {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("list item %v is not a string", item)
				}
				out = append(out, s)
			}
			return out, nil
		case string:
			var out []string
			if err := json.Unmarshal([]byte(x), &out); err != nil {
				return nil, fmt.Errorf("invalid string list: %w", err)
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, k)
}

// Text renders a canonical value for a text-cast SQL parameter.
func (k Kind) Text(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case bool:
		return strconv.FormatBool(x), nil
	case decimal.Decimal:
		return x.String(), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	case []string:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", fmt.Errorf("cannot render %T as %s", v, k)
}
