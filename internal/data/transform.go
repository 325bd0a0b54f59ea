package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload marks an upstream body that does not match the shape a
// transform expects.
var ErrMalformedPayload = errors.New("malformed payload")

type pointField struct {
	from, to string
	numeric  bool
}

var (
	historicalFields = []pointField{
		{from: "date", to: "Date"},
		{from: "value", to: "value", numeric: true},
	}
	forecastFields = []pointField{
		{from: "date", to: "ds"},
		{from: "value", to: "yhat", numeric: true},
		{from: "lower_bound", to: "yhat_lower", numeric: true},
		{from: "upper_bound", to: "yhat_upper", numeric: true},
	}
)

// TransformForecast renames the point fields of a forecast payload for the
// dashboard charts: historical date -> Date, and forecast
// date/value/lower_bound/upper_bound -> ds/yhat/yhat_lower/yhat_upper.
// All other fields are carried through unchanged and numbers keep their
// original literal form.
func TransformForecast(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedPayload)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedPayload)
	}

	if err := renameSeries(doc, "historical", historicalFields); err != nil {
		return nil, err
	}
	if err := renameSeries(doc, "forecast", forecastFields); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode transformed payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func renameSeries(doc map[string]any, key string, fields []pointField) error {
	raw, ok := doc[key]
	if !ok {
		return nil
	}
	points, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("%w: %q must be an array", ErrMalformedPayload, key)
	}

	out := make([]any, len(points))
	for i, p := range points {
		point, ok := p.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s[%d] must be an object", ErrMalformedPayload, key, i)
		}
		renamed, err := renamePoint(point, fields)
		if err != nil {
			return fmt.Errorf("%w: %s[%d]: %v", ErrMalformedPayload, key, i, err)
		}
		out[i] = renamed
	}
	doc[key] = out
	return nil
}

func renamePoint(point map[string]any, fields []pointField) (map[string]any, error) {
	out := make(map[string]any, len(point))
	for k, v := range point {
		out[k] = v
	}
	for _, f := range fields {
		v, ok := point[f.from]
		if !ok {
			return nil, fmt.Errorf("missing %q", f.from)
		}
		if f.numeric {
			if _, ok := v.(json.Number); !ok {
				return nil, fmt.Errorf("%q must be a number", f.from)
			}
		} else if _, ok := v.(string); !ok {
			return nil, fmt.Errorf("%q must be a string", f.from)
		}
		if f.from == f.to {
			continue
		}
		if _, clash := point[f.to]; clash {
			return nil, fmt.Errorf("both %q and %q present", f.from, f.to)
		}
		delete(out, f.from)
		out[f.to] = v
	}
	return out, nil
}
