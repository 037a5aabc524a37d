package variants

import (
	"encoding/json"
	"errors"
)

// sizeStrategy turns one raw field into variants. A strategy that does not
// recognise its input returns an error and the next one is tried.
type sizeStrategy struct {
	source  Source
	resolve func(raw RawProduct) ([]Variant, error)
}

// sizeStrategies lists the size sources in precedence order.
var sizeStrategies = []sizeStrategy{
	{
		source: SourceSizes,
		resolve: func(raw RawProduct) ([]Variant, error) {
			return resolveColorStocks("sizes", raw.Sizes, true)
		},
	},
	{
		source: SourceLegacySizes,
		resolve: func(raw RawProduct) ([]Variant, error) {
			return resolveLegacy("sizes", raw.Sizes)
		},
	},
	{
		source: SourceSizeColorVariants,
		resolve: func(raw RawProduct) ([]Variant, error) {
			return resolveColorStocks("sizeColorVariants", raw.SizeColorVariants, false)
		},
	},
}

// flatColorStrategies lists the flat colour sources in precedence order. They
// only run when no size strategy matched.
var flatColorStrategies = []struct {
	field   string
	resolve func(raw RawProduct) ([]string, error)
}{
	{"colors", func(raw RawProduct) ([]string, error) { return decodeColorList("colors", raw.Colors) }},
	{"productcolor", func(raw RawProduct) ([]string, error) { return decodeColorList("productcolor", raw.ProductColor) }},
}

// precomputedFields lists the precomputed total fields, most specific first.
var precomputedFields = []func(raw RawProduct) (string, json.RawMessage){
	func(raw RawProduct) (string, json.RawMessage) { return "total_available_stock", raw.TotalAvailableStock },
	func(raw RawProduct) (string, json.RawMessage) { return "total_stock", raw.TotalStock },
}

var errWrongShape = errors.New("unexpected shape")

// Parse builds the canonical model for one raw product. It never fails:
// fields that cannot be decoded are treated as absent and resolution falls
// through to the next source.
func Parse(raw RawProduct) *Model {
	m := &Model{Variants: []Variant{}, Source: SourceNone}

	for _, strategy := range sizeStrategies {
		variants, err := strategy.resolve(raw)
		if err != nil {
			continue
		}
		m.Variants = variants
		m.Source = strategy.source
		break
	}

	if !m.HasSizes() {
		m.FlatColors = resolveFlatColors(raw)
	}

	for _, field := range precomputedFields {
		name, value := field(raw)
		if total, err := decodeCount(name, value); err == nil {
			m.PrecomputedTotal = &total
			break
		}
	}

	return m
}

// resolveColorStocks reads the current {size, colorStocks} format. With
// requireFirst set the first entry must carry a colorStocks key, which is how
// the current format is told apart from the legacy one in the sizes field.
// Entries without colorStocks fall back to their own stock value.
func resolveColorStocks(field string, raw json.RawMessage, requireFirst bool) ([]Variant, error) {
	elems, err := decodeArray(field, raw)
	if err != nil {
		return nil, err
	}
	first, err := decodeObject(field, elems[0])
	if err != nil {
		return nil, err
	}
	if _, ok := first["colorStocks"]; requireFirst && !ok {
		return nil, &malformedFieldError{Field: field, Err: errWrongShape}
	}

	set := newVariantSet()
	for _, elem := range elems {
		entry, err := decodeObject(field, elem)
		if err != nil {
			continue
		}
		size := decodeLabel(entry["size"])
		colorStocks, ok := entry["colorStocks"]
		if !ok {
			set.add(size, "", stockValue(entry["stock"]))
			continue
		}
		stocks, err := decodeArray(field+".colorStocks", colorStocks)
		if err != nil {
			continue
		}
		for _, cs := range stocks {
			obj, err := decodeObject(field+".colorStocks", cs)
			if err != nil {
				continue
			}
			set.add(size, decodeLabel(obj["color"]), stockValue(obj["stock"]))
		}
	}
	return set.result(), nil
}

// resolveLegacy reads the legacy {size, stock} format. Each size gets one
// synthetic colour entry with a blank colour.
func resolveLegacy(field string, raw json.RawMessage) ([]Variant, error) {
	elems, err := decodeArray(field, raw)
	if err != nil {
		return nil, err
	}
	first, err := decodeObject(field, elems[0])
	if err != nil {
		return nil, err
	}
	if _, ok := first["size"]; !ok {
		return nil, &malformedFieldError{Field: field, Err: errWrongShape}
	}

	set := newVariantSet()
	for _, elem := range elems {
		entry, err := decodeObject(field, elem)
		if err != nil {
			continue
		}
		set.add(decodeLabel(entry["size"]), "", stockValue(entry["stock"]))
	}
	return set.result(), nil
}

func resolveFlatColors(raw RawProduct) []string {
	for _, strategy := range flatColorStrategies {
		colors, err := strategy.resolve(raw)
		if err != nil {
			continue
		}
		if colors = dedupe(colors); len(colors) > 0 {
			return colors
		}
	}
	return []string{SentinelColor}
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
