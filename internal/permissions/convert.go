package permissions

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

// Tick is the unit of duration values sent as unsigned integers.
const Tick = 100 * time.Nanosecond

// maxTicks is the largest tick count representable as a time.Duration.
const maxTicks = uint64(math.MaxInt64 / int64(Tick))

func convErr(v any, kind Kind) error {
	return fmt.Errorf("%w: cannot convert %T(%v) to %s", ErrConvert, v, v, kind)
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, convErr(v, KindBool)
		}
		return b, nil
	}
	if n, ok := asInt64(v); ok {
		return n != 0, nil
	}
	if u, ok := v.(uint64); ok {
		return u != 0, nil
	}
	return false, convErr(v, KindBool)
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case nil:
		return "", nil
	case fmt.Stringer:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	}
	if n, ok := asInt64(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	return "", convErr(v, KindString)
}

func toInt32(v any) (int32, error) {
	n, err := toInt64(v, KindInt32)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, convErr(v, KindInt32)
	}
	return int32(n), nil
}

func toUint32(v any) (uint32, error) {
	n, err := toInt64(v, KindUint32)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxUint32 {
		return 0, convErr(v, KindUint32)
	}
	return uint32(n), nil
}

// toDuration applies the tick rule first: an unsigned 64-bit value is a
// tick count. Otherwise only durations and duration strings convert.
func toDuration(v any) (time.Duration, error) {
	switch x := v.(type) {
	case uint64:
		if x > maxTicks {
			return 0, convErr(v, KindDuration)
		}
		return time.Duration(x) * Tick, nil
	case time.Duration:
		return x, nil
	case string:
		d, err := time.ParseDuration(x)
		if err != nil {
			return 0, convErr(v, KindDuration)
		}
		return d, nil
	}
	return 0, convErr(v, KindDuration)
}

// toRune widens a byte first; anything else goes through integer or
// single-character string conversion.
func toRune(v any) (rune, error) {
	switch x := v.(type) {
	case byte:
		return rune(x), nil
	case rune:
		if !utf8.ValidRune(x) {
			return 0, convErr(v, KindRune)
		}
		return x, nil
	case string:
		r, size := utf8.DecodeRuneInString(x)
		if r == utf8.RuneError || size != len(x) {
			return 0, convErr(v, KindRune)
		}
		return r, nil
	}
	n, err := toInt64(v, KindRune)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > utf8.MaxRune || !utf8.ValidRune(rune(n)) {
		return 0, convErr(v, KindRune)
	}
	return rune(n), nil
}

func toInt64(v any, kind Kind) (int64, error) {
	if n, ok := asInt64(v); ok {
		return n, nil
	}
	switch x := v.(type) {
	case uint64:
		if x > math.MaxInt64 {
			return 0, convErr(v, kind)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x > math.MaxInt64 {
			return 0, convErr(v, kind)
		}
		return int64(x), nil
	case float32:
		return toInt64(float64(x), kind)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, convErr(v, kind)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, convErr(v, kind)
		}
		return n, nil
	}
	return 0, convErr(v, kind)
}

// asInt64 handles the integer kinds that always fit in an int64.
func asInt64(v any) (int64, bool) {
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
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}
