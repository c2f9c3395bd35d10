// Package normalize converts genetic and biometric documents arriving in
// inconsistent shapes into uniform domain records.
package normalize

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/okian/athletix/internal/domain/fields"
	"github.com/okian/athletix/internal/domain/model"
)

// Encoding identifies which of the known encodings a genes payload uses.
type Encoding int

const (
	EncodingPlainObject   Encoding = iota // {"ACTN3": "RR", ...}
	EncodingStringEncoded                 // "{\"ACTN3\": \"RR\"}"
	EncodingObjectArray                   // [{"gene": "ACTN3", "genotype": "RR"}]
	EncodingKeyValueArray                 // [{"Key": "ACTN3", "Value": "RR"}]
)

func (e Encoding) String() string {
	switch e {
	case EncodingStringEncoded:
		return "string_encoded"
	case EncodingObjectArray:
		return "object_array"
	case EncodingKeyValueArray:
		return "key_value_array"
	default:
		return "plain_object"
	}
}

// Payload is a genes payload with its encoding resolved. The concrete types
// are StringEncoded, ObjectArray, KeyValueArray and PlainObject.
type Payload interface {
	Kind() Encoding
	// Entries extracts the gene observations, dropping non-marker keys.
	Entries(r *fields.Resolver) []model.GeneEntry
	// Malformed reports whether the raw input could not be decoded.
	Malformed() bool
}

type pair struct {
	key   string
	value json.RawMessage
}

// StringEncoded is a JSON document carried inside a JSON string.
type StringEncoded struct {
	Inner Payload
}

func (p StringEncoded) Kind() Encoding  { return EncodingStringEncoded }
func (p StringEncoded) Malformed() bool { return p.Inner.Malformed() }
func (p StringEncoded) Entries(r *fields.Resolver) []model.GeneEntry {
	return p.Inner.Entries(r)
}

// ObjectArray is a list of marker objects.
type ObjectArray struct {
	Items []fields.Record
}

func (p ObjectArray) Kind() Encoding  { return EncodingObjectArray }
func (p ObjectArray) Malformed() bool { return false }
func (p ObjectArray) Entries(r *fields.Resolver) []model.GeneEntry {
	out := make([]model.GeneEntry, 0, len(p.Items))
	for _, rec := range p.Items {
		e := model.GeneEntry{
			Gene:     r.String(rec, "gene"),
			Genotype: r.String(rec, "genotype"),
			RSID:     r.String(rec, "rsid"),
			Category: r.String(rec, "category"),
		}
		if keep(e.Gene) {
			out = append(out, e)
		}
	}
	return out
}

// KeyValueArray is a dictionary serialized as [{"Key": k, "Value": v}, ...].
type KeyValueArray struct {
	pairs []pair
}

func (p KeyValueArray) Kind() Encoding  { return EncodingKeyValueArray }
func (p KeyValueArray) Malformed() bool { return false }
func (p KeyValueArray) Entries(r *fields.Resolver) []model.GeneEntry {
	return pairEntries(p.pairs, r)
}

// PlainObject is a {gene: genotype} map in document order.
type PlainObject struct {
	pairs     []pair
	malformed bool
}

func (p PlainObject) Kind() Encoding  { return EncodingPlainObject }
func (p PlainObject) Malformed() bool { return p.malformed }
func (p PlainObject) Entries(r *fields.Resolver) []model.GeneEntry {
	return pairEntries(p.pairs, r)
}

// Detect resolves the encoding of raw. It never fails: undecodable input
// becomes an empty, malformed PlainObject.
func Detect(raw json.RawMessage) Payload {
	return detect(raw, true)
}

func detect(raw json.RawMessage, allowString bool) Payload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return PlainObject{}
	}
	switch raw[0] {
	case '"':
		if !allowString {
			return PlainObject{malformed: true}
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return PlainObject{malformed: true}
		}
		if strings.TrimSpace(s) == "" {
			return StringEncoded{Inner: PlainObject{}}
		}
		inner := []byte(s)
		if !json.Valid(inner) {
			return StringEncoded{Inner: PlainObject{malformed: true}}
		}
		return StringEncoded{Inner: detect(inner, false)}
	case '[':
		return detectArray(raw)
	case '{':
		pairs, err := orderedObject(raw)
		if err != nil {
			return PlainObject{malformed: true}
		}
		return PlainObject{pairs: pairs}
	default:
		return PlainObject{malformed: true}
	}
}

// markerKeys mark an array element as a marker object rather than a
// dictionary-serialization pair.
var markerKeys = []string{"gene", "Gene", "rsid", "RSID"}

func detectArray(raw json.RawMessage) Payload {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return PlainObject{malformed: true}
	}
	if len(items) > 0 {
		var first map[string]json.RawMessage
		if err := json.Unmarshal(items[0], &first); err == nil && first != nil {
			for _, k := range markerKeys {
				if _, ok := first[k]; ok {
					return objectArray(items)
				}
			}
		}
	}
	return keyValueArray(items)
}

func objectArray(items []json.RawMessage) ObjectArray {
	out := ObjectArray{Items: make([]fields.Record, 0, len(items))}
	for _, item := range items {
		var rec fields.Record
		if err := json.Unmarshal(item, &rec); err != nil || rec == nil {
			continue
		}
		out.Items = append(out.Items, rec)
	}
	return out
}

// keyValueArray reduces the pairs into one ordered object. A repeated key
// keeps its first position and takes the latest value.
func keyValueArray(items []json.RawMessage) KeyValueArray {
	var out KeyValueArray
	index := make(map[string]int)
	for _, item := range items {
		var kv map[string]json.RawMessage
		if err := json.Unmarshal(item, &kv); err != nil || kv == nil {
			continue
		}
		key, ok := scalarRaw(firstOf(kv, "Key", "key"))
		if !ok {
			continue
		}
		value := firstOf(kv, "Value", "value")
		if i, seen := index[key]; seen {
			out.pairs[i].value = value
			continue
		}
		index[key] = len(out.pairs)
		out.pairs = append(out.pairs, pair{key: key, value: value})
	}
	return out
}

// orderedObject decodes the top-level members of a JSON object in document
// order. Duplicate keys keep their first position and latest value.
func orderedObject(raw json.RawMessage) ([]pair, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var pairs []pair
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if i, seen := index[key]; seen {
			pairs[i].value = value
			continue
		}
		index[key] = len(pairs)
		pairs = append(pairs, pair{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return pairs, nil
}

func pairEntries(pairs []pair, r *fields.Resolver) []model.GeneEntry {
	out := make([]model.GeneEntry, 0, len(pairs))
	for _, p := range pairs {
		e := model.GeneEntry{Gene: strings.TrimSpace(p.key)}
		if !keep(e.Gene) {
			continue
		}
		var v any
		if err := json.Unmarshal(p.value, &v); err == nil {
			switch t := v.(type) {
			case map[string]any:
				e.Genotype = r.String(t, "genotype")
				e.RSID = r.String(t, "rsid")
				e.Category = r.String(t, "category")
			default:
				e.Genotype, _ = fields.Scalar(t)
			}
		}
		out = append(out, e)
	}
	return out
}

// keep drops empty genes, framework metadata ("$id", "$type") and record ids.
func keep(gene string) bool {
	gene = strings.TrimSpace(gene)
	return gene != "" && !strings.HasPrefix(gene, "$") && !strings.EqualFold(gene, "id")
}

func firstOf(m map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func scalarRaw(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	s, ok := fields.Scalar(v)
	return s, ok && s != ""
}
