// Package kv projects arbitrary values into ordered key/value pairs
// for use as URL query strings and form-urlencoded bodies.
//
// Structs and maps are projected through their JSON encoding, so field
// names follow `json` tags and `omitempty` is honoured. Struct fields
// keep declaration order and map keys are sorted. Null values are dropped,
// arrays of scalars repeat the key, and nested objects are carried as
// their raw JSON text.
package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotObject is returned when a value does not encode to a JSON object.
var ErrNotObject = errors.New("value does not project to an object")

// Pair is a single key/value entry.
type Pair struct {
	Key   string
	Value string
}

// Pairs is an ordered list of key/value entries.
type Pairs []Pair

// Project converts v into ordered pairs. v may be [Pairs], []Pair,
// [url.Values], or any value whose JSON encoding is an object.
func Project(v any) (Pairs, error) {
	switch src := v.(type) {
	case nil:
		return nil, errors.New("cannot project nil value")
	case Pairs:
		return slices.Clone(src), nil
	case []Pair:
		return slices.Clone(Pairs(src)), nil
	case url.Values:
		return fromValues(src), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%T: %w", v, ErrNotObject)
	}

	var pairs Pairs
	root.ForEach(func(key, value gjson.Result) bool {
		pairs = appendValue(pairs, key.String(), value)
		return true
	})

	return pairs, nil
}

// Encode percent-encodes the pairs as key=value joined by '&',
// preserving order.
func (p Pairs) Encode() string {
	var sb strings.Builder
	for i, pair := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(pair.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(pair.Value))
	}

	return sb.String()
}

// Values returns the pairs as [url.Values]. Ordering across keys is lost.
func (p Pairs) Values() url.Values {
	vals := make(url.Values, len(p))
	for _, pair := range p {
		vals.Add(pair.Key, pair.Value)
	}

	return vals
}

func appendValue(pairs Pairs, key string, value gjson.Result) Pairs {
	switch {
	case value.Type == gjson.Null:
		return pairs
	case value.IsArray():
		for _, elem := range value.Array() {
			if elem.Type == gjson.Null {
				continue
			}
			pairs = append(pairs, Pair{Key: key, Value: scalar(elem)})
		}
		return pairs
	default:
		return append(pairs, Pair{Key: key, Value: scalar(value)})
	}
}

// scalar renders strings unquoted and everything else as its raw JSON text,
// which keeps numbers exactly as encoded.
func scalar(value gjson.Result) string {
	if value.Type == gjson.String {
		return value.Str
	}

	return value.Raw
}

func fromValues(vals url.Values) Pairs {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var pairs Pairs
	for _, k := range keys {
		for _, v := range vals[k] {
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
	}

	return pairs
}
