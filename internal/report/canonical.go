package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical renders a run as canonical JSON for golden comparison
// and for diffing stored runs: keys sorted, strings NFC-normalized, no
// HTML escaping, and wall-clock-dependent fields (ID, StartedAt) excluded.
// Two runs over the same estimators with the same seed marshal to identical
// bytes.
func MarshalCanonical(r *Run) ([]byte, error) {
	entries := make([]any, len(r.Entries))
	for i, e := range r.Entries {
		m := map[string]any{
			"seq":       e.Seq,
			"estimator": e.Estimator,
			"check":     e.Check,
			"status":    string(e.Status),
		}
		if e.Reason != "" {
			m["reason"] = e.Reason
		}
		entries[i] = m
	}

	doc := map[string]any{
		"suite": r.Suite,
		"seed":  int64(r.Seed),
		"counts": map[string]any{
			"pass":            int64(r.Counts.Pass),
			"fail":            int64(r.Counts.Fail),
			"skip":            int64(r.Counts.Skip),
			"xfail":           int64(r.Counts.XFail),
			"unexpected_pass": int64(r.Counts.UnexpectedPass),
			"error":           int64(r.Counts.Error),
		},
		"entries": entries,
	}
	if r.Interrupted {
		doc["interrupted"] = true
	}
	return marshalCanonical(doc)
}

// marshalCanonical serializes the supported value kinds deterministically.
// Floats and nulls are rejected: nothing identity-relevant in a report is a
// float, and keeping them out guarantees byte stability.
func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical report JSON")
	case string:
		return marshalCanonicalString(val)
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type %T in canonical report JSON", v)
	}
}

func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	// Encoder appends a newline; strip it.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
