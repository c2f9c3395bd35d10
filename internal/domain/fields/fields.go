// Package fields resolves logical field names against records whose keys
// arrive in arbitrary casing conventions.
package fields

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Record is one upstream record of unknown key discipline.
type Record = map[string]any

// DbsnpRsID is the logical name of the dbSNP cross-reference field.
const DbsnpRsID = "dbsnp_rs_id"

// dbsnpSpellings are tried before the generic candidates; this field has the
// most schema drift observed upstream.
var dbsnpSpellings = []string{"DbsnpRsId", "dbsnp_rs_id", "DBSNP_RS_ID", "dbsnpRsId", "dbSNPRSID"}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithAliases registers extra spellings for a logical name. They are tried
// after the generic casing variants of the logical name itself.
func WithAliases(logical string, spellings ...string) Option {
	return func(r *Resolver) {
		key := strings.ToLower(logical)
		r.aliases[key] = append(r.aliases[key], spellings...)
	}
}

// Resolver looks up logical field names in a Record. It is immutable after
// construction and safe for concurrent use.
type Resolver struct {
	priority map[string][]string
	aliases  map[string][]string
}

// New creates a Resolver with the built-in dbSNP spellings and any extra aliases.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		priority: map[string][]string{
			DbsnpRsID: dbsnpSpellings,
		},
		aliases: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Candidates returns the ordered, de-duplicated list of keys tried for name.
func (r *Resolver) Candidates(name string) []string {
	lower := strings.ToLower(name)
	var out []string
	out = append(out, r.priority[lower]...)
	out = append(out, variants(name)...)
	for _, alias := range r.aliases[lower] {
		out = append(out, variants(alias)...)
	}
	return unique(out)
}

// Key returns the first candidate key present in rec with a truthy value.
func (r *Resolver) Key(rec Record, name string) (string, bool) {
	for _, key := range r.Candidates(name) {
		if v, ok := rec[key]; ok && truthy(v) {
			return key, true
		}
	}
	return "", false
}

// Present returns the first candidate key that exists in rec, whatever its
// value. A truthy candidate is preferred over an empty one.
func (r *Resolver) Present(rec Record, name string) (string, bool) {
	if key, ok := r.Key(rec, name); ok {
		return key, true
	}
	for _, key := range r.Candidates(name) {
		if _, ok := rec[key]; ok {
			return key, true
		}
	}
	return "", false
}

// Value returns the first truthy value for name, composite values included.
func (r *Resolver) Value(rec Record, name string) (any, bool) {
	key, ok := r.Key(rec, name)
	if !ok {
		return nil, false
	}
	return rec[key], true
}

// String resolves name to a scalar string. Unresolved fields, and fields
// holding only composite values, yield "".
func (r *Resolver) String(rec Record, name string) string {
	for _, key := range r.Candidates(name) {
		v, ok := rec[key]
		if !ok || !truthy(v) {
			continue
		}
		if s, ok := Scalar(v); ok {
			return s
		}
	}
	return ""
}

// Scalar renders a scalar JSON value as a string. Composite values and nil
// report false.
func Scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case bool:
		return t
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// variants expands one spelling into exact, lower, UPPER, Capitalized and
// camel-swapped forms.
func variants(name string) []string {
	words := splitWords(name)
	return []string{
		name,
		strings.ToLower(name),
		strings.ToUpper(name),
		capitalize(name),
		camel(words),
		pascal(words),
		strings.Join(words, "_"),
	}
}

// splitWords breaks snake_case, kebab-case and camelCase into lower-case words.
func splitWords(name string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(name)
	for i, c := range runes {
		switch {
		case c == '_' || c == '-' || c == ' ':
			flush()
		case unicode.IsUpper(c) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			cur = append(cur, c)
		default:
			cur = append(cur, c)
		}
	}
	flush()
	return words
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func camel(words []string) string {
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(words[0])
	for _, w := range words[1:] {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

func pascal(words []string) string {
	var b strings.Builder
	for _, w := range words {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

func unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
