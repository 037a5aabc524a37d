// Package variants resolves a product's size, colour and stock data into a
// single canonical model and answers availability questions against it.
//
// Product records reach the storefront in several historical shapes: a legacy
// list of {size, stock}, the current list of {size, colorStocks}, a separate
// sizeColorVariants field, and flat colour fields for products that have no
// size breakdown at all. Any of them may be JSON-encoded as a string. Parse
// decodes all of that once; every query afterwards works on the Model only.
//
// The package is pure: no I/O, no logging and no shared state. A Model is
// built per record and discarded after use.
package variants

import "strings"

// SentinelColor is the only flat colour reported when a product carries no
// colour information at all.
const SentinelColor = "Not specified"

// Source names the resolution strategy that produced a Model's sizes.
type Source string

const (
	SourceNone              Source = "none"
	SourceSizes             Source = "sizes"
	SourceLegacySizes       Source = "legacy_sizes"
	SourceSizeColorVariants Source = "size_color_variants"
)

// ColorStock is the stock of one colour within a size. A blank Color is the
// synthetic entry used by size-only records.
type ColorStock struct {
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

// Variant is one size with its per-colour stock, in declared colour order.
// Its JSON form is the current wire format for a sizes entry.
type Variant struct {
	Size        string       `json:"size"`
	ColorStocks []ColorStock `json:"colorStocks"`
}

// Total returns the sum of the variant's colour stocks.
func (v Variant) Total() int {
	total := 0
	for _, cs := range v.ColorStocks {
		total += cs.Stock
	}
	return total
}

// SizeStock is a purchasable size and its total stock.
type SizeStock struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// Model is the canonical form of one product's variant data.
//
// Variants only holds sizes with at least one colour in stock, and only
// colours with positive stock. FlatColors is set only when Source is
// SourceNone; it then holds at least one colour or just SentinelColor.
type Model struct {
	Variants         []Variant `json:"variants"`
	FlatColors       []string  `json:"flatColors,omitempty"`
	Source           Source    `json:"source"`
	PrecomputedTotal *int      `json:"precomputedTotal,omitempty"`
}

// HasSizes reports whether the product has a size breakdown, even one that
// is currently sold out.
func (m *Model) HasSizes() bool {
	return m.Source != SourceNone
}

func (m *Model) variant(size string) *Variant {
	size = strings.TrimSpace(size)
	for i := range m.Variants {
		if m.Variants[i].Size == size {
			return &m.Variants[i]
		}
	}
	return nil
}

// variantSet accumulates variants in declared order. A repeated size merges
// into its first occurrence and a repeated colour keeps its first stock, so
// the same units are never counted twice.
type variantSet struct {
	variants []Variant
	index    map[string]int
	seen     map[[2]string]bool
}

func newVariantSet() *variantSet {
	return &variantSet{
		index: make(map[string]int),
		seen:  make(map[[2]string]bool),
	}
}

func (s *variantSet) add(size, color string, stock int) {
	if size == "" {
		return
	}
	key := [2]string{size, color}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	if stock <= 0 {
		return
	}

	i, ok := s.index[size]
	if !ok {
		i = len(s.variants)
		s.index[size] = i
		s.variants = append(s.variants, Variant{Size: size})
	}
	s.variants[i].ColorStocks = append(s.variants[i].ColorStocks, ColorStock{Color: color, Stock: stock})
}

func (s *variantSet) result() []Variant {
	if s.variants == nil {
		return []Variant{}
	}
	return s.variants
}
