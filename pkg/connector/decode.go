package connector

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

// DataKey wraps response payloads that are not JSON objects.
const DataKey = "data"

type shape int

const (
	shapeMapping shape = iota
	shapeArray
	shapeScalar
	shapeNull
)

type decoded struct {
	shape shape
	value any
}

func classify(v any) decoded {
	switch t := v.(type) {
	case map[string]any:
		return decoded{shape: shapeMapping, value: t}
	case []any:
		return decoded{shape: shapeArray, value: t}
	case nil:
		return decoded{shape: shapeNull}
	default:
		return decoded{shape: shapeScalar, value: t}
	}
}

func (d decoded) normalize() map[string]any {
	if d.shape == shapeMapping {
		return d.value.(map[string]any)
	}
	return map[string]any{DataKey: d.value}
}

// decodeBody turns response text into the normalized mapping. An empty body is
// "no content" and yields an empty map.
func decodeBody(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &DecodingError{Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, &DecodingError{Err: err}
	}
	return classify(exactNumbers(v)).normalize(), nil
}

// maxExactFloat is the largest integer float64 holds without rounding.
const maxExactFloat = 1 << 53

// exactNumbers replaces json.Number values in place. Numbers float64 holds
// exactly stay float64; larger integers become int64 or uint64, and anything
// wider is left as json.Number.
func exactNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = exactNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = exactNumbers(e)
		}
		return t
	case json.Number:
		return numberValue(t)
	default:
		return v
	}
}

func numberValue(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			if i >= -maxExactFloat && i <= maxExactFloat {
				return float64(i)
			}
			return i
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return u
		}
		return n
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n
}
