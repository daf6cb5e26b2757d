package estimator

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Params is an estimator's configuration: a flat map of scalar values.
//
// Allowed value types are string, bool, int64, and float64 - the same
// restriction the suite and ledger file formats can represent. Nested
// estimators are out of scope for the harness.
type Params map[string]any

// Clone returns a copy of the parameter map.
// Values are scalars, so a shallow copy is a full copy.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether two parameter maps hold the same keys and values.
// Float values compare NaN equal to NaN so that a NaN default survives a
// round-trip without reporting a spurious mutation.
func (p Params) Equal(other Params) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		ov, ok := other[k]
		if !ok {
			return false
		}
		if !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

// String renders the parameters in canonical "key=value" form, sorted by
// key. Two estimators with equal params always render identically, which
// makes the form usable in diagnostics and deterministic reports.
func (p Params) String() string {
	parts := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%v", k, p[k]))
	}
	return strings.Join(parts, " ")
}

// Validate checks that every value is one of the allowed scalar types.
func (p Params) Validate() error {
	for _, k := range p.Keys() {
		switch p[k].(type) {
		case string, bool, int64, float64:
		default:
			return fmt.Errorf("param %q: unsupported type %T (allowed: string, bool, int64, float64)", k, p[k])
		}
	}
	return nil
}

func valueEqual(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return af == bf
	}
	return a == b
}
