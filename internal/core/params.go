package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Params is an ordered map of request parameters. Keys keep the order in
// which the caller supplied them; that order reaches the stored procedure.
// Params values are never modified in place: With and Without return copies.
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams builds Params from alternating key/value arguments.
// It panics when a key is not a string, which is a programming error.
func NewParams(kv ...any) Params {
	var p Params
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("core.NewParams: key %v is %T, want string", kv[i], kv[i]))
		}
		p = p.With(key, kv[i+1])
	}
	return p
}

// Len returns the number of parameters.
func (p Params) Len() int { return len(p.keys) }

// Keys returns the parameter names in order.
func (p Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Get returns the raw value for key.
func (p Params) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// String returns the value for key formatted as text. Absent and null
// values return "".
func (p Params) String(key string) string {
	v, ok := p.values[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(formatScalar(v))
}

// Has reports whether key is present with a non-empty value.
func (p Params) Has(key string) bool {
	return p.String(key) != ""
}

// With returns a copy of p with key set to v. An existing key keeps its
// position.
func (p Params) With(key string, v any) Params {
	out := Params{
		keys:   make([]string, len(p.keys), len(p.keys)+1),
		values: make(map[string]any, len(p.values)+1),
	}
	copy(out.keys, p.keys)
	for k, val := range p.values {
		out.values[k] = val
	}
	if _, exists := out.values[key]; !exists {
		out.keys = append(out.keys, key)
	}
	out.values[key] = v
	return out
}

// Without returns a copy of p with the given keys removed.
func (p Params) Without(keys ...string) Params {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	out := Params{values: make(map[string]any, len(p.values))}
	for _, k := range p.keys {
		if drop[k] {
			continue
		}
		out.keys = append(out.keys, k)
		out.values[k] = p.values[k]
	}
	return out
}

// Each calls fn for every parameter in order.
func (p Params) Each(fn func(key string, v any)) {
	for _, k := range p.keys {
		fn(k, p.values[k])
	}
}

// Summary renders the parameters for log lines. Values of keys matched by
// redact are replaced with "***".
func (p Params) Summary(redact func(key string) bool) string {
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		if redact != nil && redact(k) {
			b.WriteString("***")
			continue
		}
		b.WriteString(formatScalar(p.values[k]))
	}
	return b.String()
}

// sensitiveKeyParts mark parameter names whose values are never logged.
var sensitiveKeyParts = []string{"password", "secret", "token", "connection", "dsn"}

// RedactKey is the default redaction policy for parameter summaries.
func RedactKey(key string) bool {
	k := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(k, part) {
			return true
		}
	}
	return false
}

// UnmarshalJSON decodes a JSON object into Params, keeping key order.
// Values must be scalars; integers decode to int64 and other numbers to
// float64.
func (p *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("parameters: %w", err)
	}
	if tok == nil {
		*p = Params{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("parameters: expected object, got %v", tok)
	}

	var out Params
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("parameters: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("parameters: invalid key %v", keyTok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		v, err := scalarFromJSON(raw)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		out = out.With(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("parameters: %w", err)
	}

	*p = out
	return nil
}

// MarshalJSON encodes Params as a JSON object in key order.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func scalarFromJSON(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool:
		return t, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.String())
		}
		return f, nil
	default:
		return nil, fmt.Errorf("must be a string, number, boolean or null, got %T", v)
	}
}

// formatScalar renders a parameter or cell value as text.
func formatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(time.DateOnly)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
