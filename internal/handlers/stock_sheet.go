package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/variants"
)

// sheetProduct collects the rows of one SKU
type sheetProduct struct {
	sku      string
	name     string
	price    string
	firstRow int

	sized     []variants.Variant
	sizeIndex map[string]int
	seen      map[[2]string]int

	flatColors   []string
	flatQuantity int
	flatRows     int
}

func newSheetProduct(sku string, rowNum int) *sheetProduct {
	return &sheetProduct{
		sku:       sku,
		firstRow:  rowNum,
		sizeIndex: make(map[string]int),
		seen:      make(map[[2]string]int),
	}
}

// toProduct writes sized rows in the current sizes format and the single
// unsized row as a flat colour list plus quantity.
func (p *sheetProduct) toProduct(tenantID string) (*models.Product, error) {
	product := &models.Product{
		TenantID: tenantID,
		SKU:      p.sku,
		Name:     p.name,
		Price:    p.price,
		Status:   models.ProductStatusDraft,
	}

	if len(p.sized) > 0 {
		data, err := json.Marshal(p.sized)
		if err != nil {
			return nil, fmt.Errorf("failed to encode sizes for %s: %w", p.sku, err)
		}
		sizes := string(data)
		product.Sizes = &sizes
		return product, nil
	}

	if len(p.flatColors) > 0 {
		data, err := json.Marshal(p.flatColors)
		if err != nil {
			return nil, fmt.Errorf("failed to encode colors for %s: %w", p.sku, err)
		}
		colors := string(data)
		product.Colors = &colors
	}
	quantity := p.flatQuantity
	product.Quantity = &quantity
	return product, nil
}

// stockSheet groups parsed rows by SKU, keeping first-seen order
type stockSheet struct {
	products []*sheetProduct
	bySKU    map[string]*sheetProduct
	errors   []models.ImportRowError
}

func (s *stockSheet) addError(rowNum int, column, code, message string) {
	s.errors = append(s.errors, models.ImportRowError{
		Row:     rowNum,
		Column:  column,
		Code:    code,
		Message: message,
	})
}

// failedRows counts distinct rows with at least one error
func (s *stockSheet) failedRows() int {
	rows := make(map[int]bool, len(s.errors))
	for _, e := range s.errors {
		rows[e.Row] = true
	}
	return len(rows)
}

// parseStockSheet validates rows and groups them into products. Rows keep
// their "_row" line number for error reporting.
func parseStockSheet(rows []map[string]string) *stockSheet {
	sheet := &stockSheet{bySKU: make(map[string]*sheetProduct)}

	for i, row := range rows {
		rowNum, err := strconv.Atoi(row["_row"])
		if err != nil {
			rowNum = i + 2
		}

		sku := row["sku"]
		if sku == "" {
			sheet.addError(rowNum, "sku", "REQUIRED", "SKU is required")
			continue
		}

		stockText := row["stock"]
		if stockText == "" {
			sheet.addError(rowNum, "stock", "REQUIRED", "Stock is required")
			continue
		}
		stock, err := strconv.Atoi(stockText)
		if err != nil || stock < 0 {
			sheet.addError(rowNum, "stock", "INVALID", "Stock must be a whole number of zero or more")
			continue
		}

		if price := row["price"]; price != "" {
			if _, err := strconv.ParseFloat(price, 64); err != nil {
				sheet.addError(rowNum, "price", "INVALID", "Price must be a valid number")
				continue
			}
		}

		product, ok := sheet.bySKU[sku]
		if !ok {
			product = newSheetProduct(sku, rowNum)
			sheet.bySKU[sku] = product
			sheet.products = append(sheet.products, product)
		}
		if product.name == "" {
			product.name = row["name"]
		}
		if product.price == "" {
			product.price = row["price"]
		}

		sheet.addRow(product, rowNum, row["size"], row["color"], stock)
	}

	for _, product := range sheet.products {
		if product.name == "" {
			sheet.addError(product.firstRow, "name", "REQUIRED", fmt.Sprintf("Product name is required for SKU %s", product.sku))
		}
	}

	return sheet
}

func (s *stockSheet) addRow(p *sheetProduct, rowNum int, size, color string, stock int) {
	key := [2]string{size, color}
	if first, dup := p.seen[key]; dup {
		s.addError(rowNum, "color", "DUPLICATE", fmt.Sprintf("SKU %s size %q color %q already given on row %d", p.sku, size, color, first))
		return
	}
	p.seen[key] = rowNum

	if size == "" {
		if len(p.sized) > 0 {
			s.addError(rowNum, "size", "MIXED_ROWS", fmt.Sprintf("SKU %s mixes rows with and without sizes", p.sku))
			return
		}
		// one shared quantity backs every colour of an unsized product
		if p.flatRows > 0 {
			s.addError(rowNum, "color", "FLAT_STOCK", fmt.Sprintf("SKU %s has no sizes, so its stock belongs on a single row; list its colours in that row's color cell", p.sku))
			return
		}
		p.flatRows++
		p.flatQuantity = stock
		if stock > 0 {
			p.flatColors = splitColorCell(color)
		}
		return
	}

	if p.flatRows > 0 {
		s.addError(rowNum, "size", "MIXED_ROWS", fmt.Sprintf("SKU %s mixes rows with and without sizes", p.sku))
		return
	}

	i, ok := p.sizeIndex[size]
	if ok {
		for _, cs := range p.sized[i].ColorStocks {
			if (cs.Color == "") != (color == "") {
				s.addError(rowNum, "color", "MIXED_ROWS", fmt.Sprintf("SKU %s size %s mixes rows with and without colours", p.sku, size))
				return
			}
		}
	} else {
		i = len(p.sized)
		p.sizeIndex[size] = i
		p.sized = append(p.sized, variants.Variant{Size: size, ColorStocks: []variants.ColorStock{}})
	}
	p.sized[i].ColorStocks = append(p.sized[i].ColorStocks, variants.ColorStock{Color: color, Stock: stock})
}

// splitColorCell reads "red, blue" style cells into distinct colours
func splitColorCell(cell string) []string {
	var colors []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(cell, ",") {
		color := strings.TrimSpace(part)
		if color == "" || seen[color] {
			continue
		}
		seen[color] = true
		colors = append(colors, color)
	}
	return colors
}
