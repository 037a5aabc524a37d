package variants

import (
	"slices"
	"strings"
)

// Purchase is a requested add-to-cart selection.
type Purchase struct {
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

// Validate checks p against the model before any cart call is made. The
// selection is checked first, then the quantity, then stock. On success p is
// returned unchanged.
//
// Products without sizes are bounded by flatQuantity when given, else by the
// record's precomputed total, else they have no stock.
func (m *Model) Validate(p Purchase, flatQuantity *int) (Purchase, error) {
	size := strings.TrimSpace(p.Size)
	color := strings.TrimSpace(p.Color)

	var available int
	if m.HasSizes() {
		if err := m.checkSizedSelection(size, color); err != nil {
			return Purchase{}, err
		}
		if p.Quantity < 1 {
			return Purchase{}, NewInvalidQuantityError(p.Quantity)
		}
		available = m.StockFor(size, color)
	} else {
		if err := m.checkFlatSelection(size, color); err != nil {
			return Purchase{}, err
		}
		if p.Quantity < 1 {
			return Purchase{}, NewInvalidQuantityError(p.Quantity)
		}
		switch {
		case flatQuantity != nil:
			available = nonNegative(*flatQuantity)
		case m.PrecomputedTotal != nil:
			available = nonNegative(*m.PrecomputedTotal)
		}
	}

	if p.Quantity > available {
		return Purchase{}, NewInsufficientStockError(size, color, p.Quantity, available)
	}
	return p, nil
}

func (m *Model) checkSizedSelection(size, color string) error {
	if size == "" {
		return NewIncompatibleSelectionError(size, color, "size is required")
	}
	if m.variant(size) == nil {
		return NewIncompatibleSelectionError(size, color, "size is not available")
	}

	colors := m.AvailableColors(size)
	switch {
	case len(colors) > 0 && color == "":
		return NewIncompatibleSelectionError(size, color, "color is required")
	case len(colors) > 0 && !slices.Contains(colors, color):
		return NewIncompatibleSelectionError(size, color, "color is not available for size")
	case len(colors) == 0 && color != "":
		return NewIncompatibleSelectionError(size, color, "size has no color options")
	}
	return nil
}

func (m *Model) checkFlatSelection(size, color string) error {
	if size != "" {
		return NewIncompatibleSelectionError(size, color, "product has no sizes")
	}
	if color == "" || m.onlySentinel() {
		return nil
	}
	if !slices.Contains(m.FlatColors, color) {
		return NewIncompatibleSelectionError(size, color, "color is not available")
	}
	return nil
}

func (m *Model) onlySentinel() bool {
	return len(m.FlatColors) == 1 && m.FlatColors[0] == SentinelColor
}
