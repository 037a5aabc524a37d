package variants

import "strings"

// AvailableSizes returns every size with stock, in declared order, together
// with its total stock across colours.
func (m *Model) AvailableSizes() []SizeStock {
	sizes := make([]SizeStock, 0, len(m.Variants))
	for _, v := range m.Variants {
		if total := v.Total(); total > 0 {
			sizes = append(sizes, SizeStock{Size: v.Size, Stock: total})
		}
	}
	return sizes
}

// AvailableColors returns the colours with stock for size. An empty size
// means no size was chosen: the union across all sizes is returned, or the
// flat colours when the product has no size breakdown. A size that is not
// available yields an empty slice.
func (m *Model) AvailableColors(size string) []string {
	colors := []string{}
	size = strings.TrimSpace(size)

	if size != "" {
		v := m.variant(size)
		if v == nil {
			return colors
		}
		for _, cs := range v.ColorStocks {
			if cs.Color != "" && cs.Stock > 0 {
				colors = append(colors, cs.Color)
			}
		}
		return colors
	}

	if !m.HasSizes() {
		return append(colors, m.FlatColors...)
	}

	seen := make(map[string]bool)
	for _, v := range m.Variants {
		for _, cs := range v.ColorStocks {
			if cs.Color == "" || cs.Stock <= 0 || seen[cs.Color] {
				continue
			}
			seen[cs.Color] = true
			colors = append(colors, cs.Color)
		}
	}
	return colors
}

// StockFor returns the stock of size in color, or across all colours of size
// when color is empty. Unknown sizes and colours have zero stock. This is the
// only figure a purchase quantity may be checked against once a size is
// chosen.
func (m *Model) StockFor(size, color string) int {
	v := m.variant(size)
	if v == nil {
		return 0
	}
	color = strings.TrimSpace(color)
	if color == "" {
		return v.Total()
	}
	for _, cs := range v.ColorStocks {
		if cs.Color == color {
			return cs.Stock
		}
	}
	return 0
}

// TotalStock returns the whole-product stock. A precomputed total wins when
// present. Otherwise sized products sum their variants and products without
// sizes report flatQuantity, the caller's own quantity field, or zero.
func (m *Model) TotalStock(precomputed, flatQuantity *int) int {
	if precomputed != nil {
		return nonNegative(*precomputed)
	}
	if m.HasSizes() {
		total := 0
		for _, v := range m.Variants {
			total += v.Total()
		}
		return total
	}
	if flatQuantity != nil {
		return nonNegative(*flatQuantity)
	}
	return 0
}

// InStock drives the whole-product in/out of stock banner shown before a
// size is chosen. It uses the record's own precomputed total when there is
// one.
func (m *Model) InStock(flatQuantity *int) bool {
	return m.TotalStock(m.PrecomputedTotal, flatQuantity) > 0
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
