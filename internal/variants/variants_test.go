package variants

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int {
	return &n
}

// jsonString encodes v and then wraps the result in a JSON string, the way
// older records were stored.
func jsonString(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	inner, err := json.Marshal(v)
	require.NoError(t, err)
	outer, err := json.Marshal(string(inner))
	require.NoError(t, err)
	return outer
}

func TestParseCurrentSizesFormat(t *testing.T) {
	m := Parse(RawProduct{
		Sizes: json.RawMessage(`[{"size":"M","colorStocks":[{"color":"black","stock":3}]}]`),
	})

	assert.Equal(t, SourceSizes, m.Source)
	assert.Equal(t, []SizeStock{{Size: "M", Stock: 3}}, m.AvailableSizes())
	assert.Equal(t, []string{"black"}, m.AvailableColors("M"))
	assert.Equal(t, 3, m.StockFor("M", "black"))
	assert.Equal(t, 0, m.StockFor("M", "red"))
}

func TestParseLegacySizeColorVariants(t *testing.T) {
	m := Parse(RawProduct{
		Sizes: json.RawMessage(`[{"size":"S","stock":5}]`),
	})

	assert.Equal(t, SourceLegacySizes, m.Source)
	assert.Equal(t, []SizeStock{{Size: "S", Stock: 5}}, m.AvailableSizes())
	assert.Empty(t, m.AvailableColors("S"))
	assert.Equal(t, 5, m.StockFor("S", ""))
}

func TestParseColorsWithoutSizes(t *testing.T) {
	m := Parse(RawProduct{
		ProductColor: json.RawMessage(`"red, blue"`),
	})

	assert.Equal(t, SourceNone, m.Source)
	assert.Equal(t, []string{"red", "blue"}, m.AvailableColors(""))
	assert.Empty(t, m.AvailableSizes())
}

func TestTotalStockPrefersPrecomputedTotal(t *testing.T) {
	m := Parse(RawProduct{
		Sizes: json.RawMessage(`[
			{"size":"S","colorStocks":[{"color":"red","stock":5}]},
			{"size":"M","colorStocks":[{"color":"red","stock":7}]}
		]`),
		TotalAvailableStock: json.RawMessage(`0`),
	})

	require.NotNil(t, m.PrecomputedTotal)
	assert.Equal(t, 12, m.TotalStock(nil, nil))
	assert.Equal(t, 0, m.TotalStock(m.PrecomputedTotal, nil))
	assert.False(t, m.InStock(nil))
}

func TestValidateRejectsUnknownSize(t *testing.T) {
	m := Parse(RawProduct{
		Sizes: json.RawMessage(`[{"size":"M","colorStocks":[{"color":"black","stock":3}]}]`),
	})

	_, err := m.Validate(Purchase{Size: "L", Color: "black", Quantity: 1}, nil)
	require.Error(t, err)
	assert.True(t, IsIncompatibleSelectionError(err))
}

func TestValidateRejectsQuantityAboveStock(t *testing.T) {
	m := Parse(RawProduct{
		Sizes: json.RawMessage(`[{"size":"M","colorStocks":[{"color":"black","stock":2}]}]`),
	})

	_, err := m.Validate(Purchase{Size: "M", Color: "black", Quantity: 4}, nil)
	require.Error(t, err)

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 4, ise.Requested)
	assert.Equal(t, 2, ise.Available)
}

func TestAvailableSizesExcludesSoldOutSizes(t *testing.T) {
	m := Parse(RawProduct{
		Sizes: json.RawMessage(`[
			{"size":"S","colorStocks":[{"color":"red","stock":0},{"color":"blue","stock":0}]},
			{"size":"M","colorStocks":[{"color":"red","stock":0},{"color":"blue","stock":2}]},
			{"size":"L","colorStocks":[]}
		]`),
	})

	assert.Equal(t, []SizeStock{{Size: "M", Stock: 2}}, m.AvailableSizes())
	assert.Equal(t, []string{"blue"}, m.AvailableColors("M"))
	assert.Empty(t, m.AvailableColors("S"))
}

func TestParseDecodesStringEncodedFields(t *testing.T) {
	sizes := []map[string]interface{}{
		{"size": "M", "colorStocks": []map[string]interface{}{{"color": "black", "stock": 3}}},
	}

	tests := []struct {
		name string
		raw  RawProduct
	}{
		{
			name: "sizes as JSON string",
			raw:  RawProduct{Sizes: jsonString(t, sizes)},
		},
		{
			name: "sizes encoded twice",
			raw: func() RawProduct {
				twice, err := json.Marshal(string(jsonString(t, sizes)))
				require.NoError(t, err)
				return RawProduct{Sizes: twice}
			}(),
		},
		{
			name: "colorStocks as JSON string",
			raw:  RawProduct{Sizes: json.RawMessage(`[{"size":"M","colorStocks":"[{\"color\":\"black\",\"stock\":\"3\"}]"}]`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.raw)
			assert.Equal(t, SourceSizes, m.Source)
			assert.Equal(t, 3, m.StockFor("M", "black"))
		})
	}
}

func TestParseResolutionOrder(t *testing.T) {
	current := json.RawMessage(`[{"size":"XL","colorStocks":[{"color":"green","stock":1}]}]`)

	tests := []struct {
		name       string
		raw        RawProduct
		wantSource Source
		wantSizes  []SizeStock
	}{
		{
			name: "sizes beat sizeColorVariants",
			raw: RawProduct{
				Sizes:             json.RawMessage(`[{"size":"S","stock":2}]`),
				SizeColorVariants: current,
			},
			wantSource: SourceLegacySizes,
			wantSizes:  []SizeStock{{Size: "S", Stock: 2}},
		},
		{
			name: "malformed sizes fall through to sizeColorVariants",
			raw: RawProduct{
				Sizes:             json.RawMessage(`"[{\"size\":"`),
				SizeColorVariants: current,
			},
			wantSource: SourceSizeColorVariants,
			wantSizes:  []SizeStock{{Size: "XL", Stock: 1}},
		},
		{
			name: "empty sizes array fall through",
			raw: RawProduct{
				Sizes:             json.RawMessage(`[]`),
				SizeColorVariants: jsonString(t, []map[string]interface{}{{"size": "XL", "colorStocks": []map[string]interface{}{{"color": "green", "stock": 1}}}}),
			},
			wantSource: SourceSizeColorVariants,
			wantSizes:  []SizeStock{{Size: "XL", Stock: 1}},
		},
		{
			name: "sizes of plain strings are not a breakdown",
			raw: RawProduct{
				Sizes:  json.RawMessage(`["S","M"]`),
				Colors: json.RawMessage(`["navy"]`),
			},
			wantSource: SourceNone,
			wantSizes:  []SizeStock{},
		},
		{
			name:       "nothing usable",
			raw:        RawProduct{Sizes: json.RawMessage(`{not json`), SizeColorVariants: json.RawMessage(`null`)},
			wantSource: SourceNone,
			wantSizes:  []SizeStock{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.raw)
			assert.Equal(t, tt.wantSource, m.Source)
			assert.Equal(t, tt.wantSizes, m.AvailableSizes())
		})
	}
}

func TestParseFlatColors(t *testing.T) {
	tests := []struct {
		name string
		raw  RawProduct
		want []string
	}{
		{
			name: "colors array",
			raw:  RawProduct{Colors: json.RawMessage(`["red","blue","red"]`), ProductColor: json.RawMessage(`"green"`)},
			want: []string{"red", "blue"},
		},
		{
			name: "colors comma separated",
			raw:  RawProduct{Colors: json.RawMessage(`"red, blue ,,"`)},
			want: []string{"red", "blue"},
		},
		{
			name: "colors array encoded as string",
			raw:  RawProduct{Colors: json.RawMessage(`"[\"red\",\"blue\"]"`)},
			want: []string{"red", "blue"},
		},
		{
			name: "blank colors fall back to productcolor",
			raw:  RawProduct{Colors: json.RawMessage(`["", "  "]`), ProductColor: json.RawMessage(`"green"`)},
			want: []string{"green"},
		},
		{
			name: "productcolor with embedded commas",
			raw:  RawProduct{ProductColor: json.RawMessage(`"black,white, grey"`)},
			want: []string{"black", "white", "grey"},
		},
		{
			name: "no colour data",
			raw:  RawProduct{},
			want: []string{SentinelColor},
		},
		{
			name: "malformed colors",
			raw:  RawProduct{Colors: json.RawMessage(`{"a":1}`)},
			want: []string{SentinelColor},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.raw)
			assert.Equal(t, tt.want, m.FlatColors)
			assert.Equal(t, tt.want, m.AvailableColors(""))
		})
	}
}

func TestFlatColorsIgnoredWhenSizesExist(t *testing.T) {
	m := Parse(RawProduct{
		Sizes:  json.RawMessage(`[{"size":"M","colorStocks":[{"color":"black","stock":0}]}]`),
		Colors: json.RawMessage(`["red"]`),
	})

	assert.True(t, m.HasSizes())
	assert.Nil(t, m.FlatColors)
	assert.Empty(t, m.AvailableColors(""))
	assert.Empty(t, m.AvailableSizes())
}

func TestParseDuplicateEntries(t *testing.T) {
	m := Parse(RawProduct{
		Sizes: json.RawMessage(`[
			{"size":"M","colorStocks":[{"color":"red","stock":0},{"color":"red","stock":5},{"color":"blue","stock":1}]},
			{"size":"L","colorStocks":[{"color":"red","stock":2}]},
			{"size":"M","colorStocks":[{"color":"blue","stock":9},{"color":"green","stock":4}]}
		]`),
	})

	require.Len(t, m.Variants, 2)
	assert.Equal(t, "M", m.Variants[0].Size)
	assert.Equal(t, 0, m.StockFor("M", "red"))
	assert.Equal(t, 1, m.StockFor("M", "blue"))
	assert.Equal(t, 4, m.StockFor("M", "green"))
	assert.Equal(t, 5, m.StockFor("M", ""))
	assert.Equal(t, []string{"blue", "green", "red"}, m.AvailableColors(""))
}

func TestParseStockValues(t *testing.T) {
	m := Parse(RawProduct{
		Sizes: json.RawMessage(`[
			{"size":"S","stock":"4"},
			{"size":"M","stock":-3},
			{"size":"L","stock":2.9},
			{"size":"XL","stock":"lots"},
			{"size":42,"stock":1},
			{"size":"","stock":8}
		]`),
	})

	assert.Equal(t, []SizeStock{
		{Size: "S", Stock: 4},
		{Size: "L", Stock: 2},
		{Size: "42", Stock: 1},
	}, m.AvailableSizes())
}

func TestParsePrecomputedTotals(t *testing.T) {
	tests := []struct {
		name string
		raw  RawProduct
		want *int
	}{
		{"available stock preferred", RawProduct{TotalStock: json.RawMessage(`9`), TotalAvailableStock: json.RawMessage(`4`)}, intPtr(4)},
		{"total stock used alone", RawProduct{TotalStock: json.RawMessage(`9`)}, intPtr(9)},
		{"numeric string", RawProduct{TotalAvailableStock: json.RawMessage(`"7"`)}, intPtr(7)},
		{"malformed falls back", RawProduct{TotalAvailableStock: json.RawMessage(`"n/a"`), TotalStock: json.RawMessage(`3`)}, intPtr(3)},
		{"null is absent", RawProduct{TotalAvailableStock: json.RawMessage(`null`)}, nil},
		{"absent", RawProduct{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw).PrecomputedTotal)
		})
	}
}

func TestTotalStock(t *testing.T) {
	sized := Parse(RawProduct{Sizes: json.RawMessage(`[{"size":"S","stock":2},{"size":"M","stock":3}]`)})
	flat := Parse(RawProduct{Colors: json.RawMessage(`"red"`)})

	assert.Equal(t, 5, sized.TotalStock(nil, intPtr(100)))
	assert.Equal(t, 8, sized.TotalStock(intPtr(8), nil))
	assert.Equal(t, 0, sized.TotalStock(intPtr(-1), nil))
	assert.Equal(t, 6, flat.TotalStock(nil, intPtr(6)))
	assert.Equal(t, 0, flat.TotalStock(nil, nil))
	assert.True(t, flat.InStock(intPtr(1)))
	assert.False(t, flat.InStock(nil))
}

func TestValidate(t *testing.T) {
	sized := Parse(RawProduct{
		Sizes: json.RawMessage(`[
			{"size":"S","colorStocks":[{"color":"red","stock":2},{"color":"blue","stock":1}]},
			{"size":"M","colorStocks":[{"color":"red","stock":0}]}
		]`),
	})
	legacy := Parse(RawProduct{Sizes: json.RawMessage(`[{"size":"S","stock":3}]`)})
	flat := Parse(RawProduct{Colors: json.RawMessage(`["red","blue"]`), TotalStock: json.RawMessage(`5`)})
	bare := Parse(RawProduct{})

	tests := []struct {
		name     string
		model    *Model
		purchase Purchase
		flatQty  *int
		check    func(error) bool
	}{
		{"valid sized purchase", sized, Purchase{Size: "S", Color: "red", Quantity: 2}, nil, nil},
		{"missing size", sized, Purchase{Color: "red", Quantity: 1}, nil, IsIncompatibleSelectionError},
		{"sold out size", sized, Purchase{Size: "M", Color: "red", Quantity: 1}, nil, IsIncompatibleSelectionError},
		{"missing color", sized, Purchase{Size: "S", Quantity: 1}, nil, IsIncompatibleSelectionError},
		{"color not offered for size", sized, Purchase{Size: "S", Color: "green", Quantity: 1}, nil, IsIncompatibleSelectionError},
		{"zero quantity", sized, Purchase{Size: "S", Color: "red", Quantity: 0}, nil, IsInvalidQuantityError},
		{"negative quantity", sized, Purchase{Size: "S", Color: "blue", Quantity: -2}, nil, IsInvalidQuantityError},
		{"too many", sized, Purchase{Size: "S", Color: "blue", Quantity: 2}, nil, IsInsufficientStockError},
		{"legacy without color", legacy, Purchase{Size: "S", Quantity: 3}, nil, nil},
		{"legacy with color", legacy, Purchase{Size: "S", Color: "red", Quantity: 1}, nil, IsIncompatibleSelectionError},
		{"flat uses caller quantity", flat, Purchase{Color: "red", Quantity: 2}, intPtr(2), nil},
		{"flat caller quantity exceeded", flat, Purchase{Color: "red", Quantity: 3}, intPtr(2), IsInsufficientStockError},
		{"flat falls back to precomputed", flat, Purchase{Quantity: 5}, nil, nil},
		{"flat unknown color", flat, Purchase{Color: "green", Quantity: 1}, nil, IsIncompatibleSelectionError},
		{"flat with size", flat, Purchase{Size: "S", Quantity: 1}, nil, IsIncompatibleSelectionError},
		{"no data has no stock", bare, Purchase{Quantity: 1}, nil, IsInsufficientStockError},
		{"sentinel accepts any color", bare, Purchase{Color: "red", Quantity: 1}, intPtr(1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.model.Validate(tt.purchase, tt.flatQty)
			if tt.check == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.purchase, got)
				return
			}
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type %T: %v", err, err)
		})
	}
}

func TestRoundTripThroughStringEncodedSizes(t *testing.T) {
	m := Parse(RawProduct{
		Sizes: json.RawMessage(`[
			{"size":"S","colorStocks":[{"color":"red","stock":2},{"color":"blue","stock":0}]},
			{"size":"M","colorStocks":[{"color":"black","stock":4},{"color":"red","stock":1}]}
		]`),
	})

	again := Parse(RawProduct{Sizes: jsonString(t, m.Variants)})

	assert.Equal(t, m, again)
}

func TestColorStockNeverExceedsSizeStock(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	colors := []string{"red", "blue", "black", "white", ""}

	for i := 0; i < 200; i++ {
		var sizes []map[string]interface{}
		sizeCount := rng.Intn(5) + 1
		for s := 0; s < sizeCount; s++ {
			var stocks []map[string]interface{}
			colorCount := rng.Intn(4)
			for c := 0; c < colorCount; c++ {
				stocks = append(stocks, map[string]interface{}{
					"color": colors[rng.Intn(len(colors))],
					"stock": rng.Intn(10) - 2,
				})
			}
			sizes = append(sizes, map[string]interface{}{
				"size":        fmt.Sprintf("S%d", rng.Intn(4)),
				"colorStocks": stocks,
			})
		}

		m := Parse(RawProduct{Sizes: jsonString(t, sizes)})
		for _, v := range m.Variants {
			sizeTotal := m.StockFor(v.Size, "")
			assert.Greater(t, sizeTotal, 0)
			for _, color := range colors {
				assert.LessOrEqual(t, m.StockFor(v.Size, color), sizeTotal)
			}
		}
		for _, s := range m.AvailableSizes() {
			assert.Equal(t, m.StockFor(s.Size, ""), s.Stock)
		}
	}
}
