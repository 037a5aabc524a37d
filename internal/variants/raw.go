package variants

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// RawProduct is the untrusted product record as delivered by the catalog.
// Every field may hold either a native JSON value or a JSON-encoded string of
// that value, a leftover of how older records were stored.
type RawProduct struct {
	Sizes               json.RawMessage `json:"sizes,omitempty"`
	SizeColorVariants   json.RawMessage `json:"sizeColorVariants,omitempty"`
	Colors              json.RawMessage `json:"colors,omitempty"`
	ProductColor        json.RawMessage `json:"productcolor,omitempty"`
	TotalStock          json.RawMessage `json:"total_stock,omitempty"`
	TotalAvailableStock json.RawMessage `json:"total_available_stock,omitempty"`
}

// maxStringDepth bounds how many layers of string encoding are peeled off a
// field. Records double-encoded by two generations of the admin UI exist.
const maxStringDepth = 3

var nullLiteral = []byte("null")

// peel strips JSON string layers off raw until it reaches a JSON array,
// object, number or literal. When the innermost value is a plain string that
// is not itself JSON, it is returned as text with ok=false.
func peel(field string, raw json.RawMessage) (data []byte, text string, err error) {
	data = bytes.TrimSpace(raw)
	for depth := 0; ; depth++ {
		if len(data) == 0 || bytes.Equal(data, nullLiteral) {
			return nil, "", errAbsent
		}
		if data[0] != '"' {
			return data, "", nil
		}
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, "", &malformedFieldError{Field: field, Err: err}
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, "", errAbsent
		}
		if depth == maxStringDepth || !looksLikeJSON(s) {
			return nil, s, nil
		}
		data = []byte(s)
	}
}

func looksLikeJSON(s string) bool {
	switch s[0] {
	case '[', '{', '"':
		return true
	}
	return s == "null"
}

// decodeArray decodes a field that must be a JSON array, returning its
// elements undecoded. An empty array counts as absent.
func decodeArray(field string, raw json.RawMessage) ([]json.RawMessage, error) {
	data, text, err := peel(field, raw)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &malformedFieldError{Field: field, Err: errors.New("not an array: " + text)}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, &malformedFieldError{Field: field, Err: err}
	}
	if len(elems) == 0 {
		return nil, errAbsent
	}
	return elems, nil
}

// decodeObject decodes one array element as a JSON object keyed by field name.
func decodeObject(field string, raw json.RawMessage) (map[string]json.RawMessage, error) {
	data, _, err := peel(field, raw)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if data == nil || json.Unmarshal(data, &obj) != nil || obj == nil {
		return nil, &malformedFieldError{Field: field, Err: errors.New("not an object")}
	}
	return obj, nil
}

// decodeLabel reads a size or colour label. Numbers are accepted verbatim so
// shoe sizes such as 42 survive; anything else yields "".
func decodeLabel(raw json.RawMessage) string {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 {
		return ""
	}
	if data[0] == '"' {
		var s string
		if json.Unmarshal(data, &s) != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	if _, err := strconv.ParseFloat(string(data), 64); err == nil {
		return string(data)
	}
	return ""
}

// decodeCount reads a non-negative integer that may arrive as a number or a
// numeric string. Negative values clamp to zero and fractions truncate.
func decodeCount(field string, raw json.RawMessage) (int, error) {
	data, text, err := peel(field, raw)
	if err != nil {
		return 0, err
	}
	if data != nil {
		text = string(data)
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if perr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &malformedFieldError{Field: field, Err: errors.New("not a number: " + text)}
	}
	switch {
	case f <= 0:
		return 0, nil
	case f >= math.MaxInt32:
		return math.MaxInt32, nil
	}
	return int(f), nil
}

// stockValue is decodeCount for per-entry stock, where anything unreadable
// simply means no stock.
func stockValue(raw json.RawMessage) int {
	n, err := decodeCount("stock", raw)
	if err != nil {
		return 0
	}
	return n
}

// decodeColorList reads a flat colour field: a JSON array of strings, a
// comma-separated string, or a single colour. Blank entries are dropped.
func decodeColorList(field string, raw json.RawMessage) ([]string, error) {
	data, text, err := peel(field, raw)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return splitColors(text), nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, &malformedFieldError{Field: field, Err: err}
	}
	var colors []string
	for _, elem := range elems {
		colors = append(colors, splitColors(decodeLabel(elem))...)
	}
	return colors, nil
}

func splitColors(s string) []string {
	var colors []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			colors = append(colors, part)
		}
	}
	return colors
}
