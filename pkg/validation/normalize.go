package validation

import (
	"bytes"
	"encoding/json"
	"math/big"
	"reflect"

	"github.com/gowebpki/jcs"

	"mercator-hq/parley/pkg/feedback"
)

// diffNormalization strips a normalized value that is structurally equal to
// the raw input, so no-op normalizations are not reported to the caller.
func diffNormalization(raw any, outcome feedback.Outcome) feedback.Outcome {
	normalized, ok := outcome.NormalizedValue()
	if !ok {
		return outcome
	}
	if Equal(raw, normalized) {
		return outcome.WithoutNormalization()
	}
	return outcome
}

// Equal reports whether a and b are structurally equal. Both values are
// compared through their RFC 8785 canonical JSON form:
//
//   - numbers compare by value regardless of Go type (2 equals 2.0); two Go
//     integers compare exactly, but numbers inside maps and slices compare
//     as float64, so integers beyond 2^53 may collapse there;
//   - map key order is irrelevant, slice order is not;
//   - nil equals nil, and a nil slice (null) differs from an empty one ([]);
//   - structs compare by their JSON encoding, so a struct equals a map with
//     the same JSON members.
//
// Values that cannot be encoded as JSON fall back to reflect.DeepEqual.
func Equal(a, b any) bool {
	if ia, ok := integer(a); ok {
		if ib, ok := integer(b); ok {
			return ia.Cmp(ib) == 0
		}
	}
	ca, errA := canonical(a)
	cb, errB := canonical(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ca, cb)
}

func canonical(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(data)
}

func integer(v any) (*big.Int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), true
	}
	return nil, false
}
