package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ErrInvalidEntityID is returned for host values that are not a u64.
var ErrInvalidEntityID = errors.New("session: invalid entity id")

// ParseEntityID converts a host value into an opaque entity id. Hosts pass
// ids as whatever their number type is, so unsigned and non-negative signed
// integers, exact integral floats, big integers, json.Number and decimal
// strings are accepted.
func ParseEntityID(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case uint:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint8:
		return uint64(x), nil
	case int64:
		return fromSigned(x)
	case int:
		return fromSigned(int64(x))
	case int32:
		return fromSigned(int64(x))
	case int16:
		return fromSigned(int64(x))
	case int8:
		return fromSigned(int64(x))
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case *big.Int:
		if x == nil || x.Sign() < 0 || !x.IsUint64() {
			return 0, invalid(v)
		}
		return x.Uint64(), nil
	case json.Number:
		return fromString(string(x))
	case string:
		return fromString(x)
	}
	return 0, invalid(v)
}

// ParseEntityIDs converts a batch, dropping entries that do not parse.
// The second result counts the dropped entries.
func ParseEntityIDs(values []any) ([]uint64, int) {
	out := make([]uint64, 0, len(values))
	skipped := 0
	for _, v := range values {
		id, err := ParseEntityID(v)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, id)
	}
	return out, skipped
}

func fromSigned(x int64) (uint64, error) {
	if x < 0 {
		return 0, invalid(x)
	}
	return uint64(x), nil
}

// 2^64 as a float64; anything at or above it overflows.
const twoTo64 = 18446744073709551616.0

func fromFloat(x float64) (uint64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 || x >= twoTo64 || x != math.Trunc(x) {
		return 0, invalid(x)
	}
	return uint64(x), nil
}

func fromString(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "n") // BigInt literal suffix
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidEntityID, s)
	}
	return id, nil
}

func invalid(v any) error {
	return fmt.Errorf("%w: %v (%T)", ErrInvalidEntityID, v, v)
}
