package models

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the result of a stock sheet import
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	ProductCount int              `json:"productCount"`
	CreatedCount int              `json:"createdCount"`
	UpdatedCount int              `json:"updatedCount"`
	FailedCount  int              `json:"failedCount"`
	ValidateOnly bool             `json:"validateOnly"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	CreatedIDs   []string         `json:"createdIds,omitempty"`
	UpdatedIDs   []string         `json:"updatedIds,omitempty"`
}

// StockSheetColumns returns the column definitions for the stock sheet. One
// row is one size/colour of one product; rows sharing a SKU are grouped.
func StockSheetColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "sku", Description: "Product SKU, rows with the same SKU form one product", Required: true, Type: "string", Example: "TSH-001"},
		{Name: "name", Description: "Product name, required on the first row of a SKU", Required: false, Type: "string", Example: "Cotton T-Shirt"},
		{Name: "price", Description: "Product price", Required: false, Type: "number", Example: "29.99"},
		{Name: "size", Description: "Size label, leave empty for products without sizes", Required: false, Type: "string", Example: "M"},
		{Name: "color", Description: "Colour name, leave empty for size-only stock. Unsized products list all colours here, comma separated", Required: false, Type: "string", Example: "black"},
		{Name: "stock", Description: "Units in stock for this size/colour", Required: true, Type: "number", Example: "12"},
	}
}

// StockSheetTemplate returns the template definition for stock sheets
func StockSheetTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "product_stock",
		Version: "2.0",
		Columns: StockSheetColumns(),
		SampleData: []map[string]string{
			{"sku": "TSH-001", "name": "Cotton T-Shirt", "price": "29.99", "size": "M", "color": "black", "stock": "12"},
			{"sku": "TSH-001", "size": "M", "color": "white", "stock": "4"},
			{"sku": "TSH-001", "size": "L", "color": "black", "stock": "0"},
			{"sku": "MUG-010", "name": "Enamel Mug", "price": "12.00", "color": "red, blue", "stock": "30"},
		},
	}
}
