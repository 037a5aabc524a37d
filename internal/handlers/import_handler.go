package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const stockSheetName = "Stock"

type ImportHandler struct {
	store     ProductStore
	publisher EventPublisher
	maxRows   int
	logger    *logrus.Entry
}

func NewImportHandler(store ProductStore, publisher EventPublisher, maxRows int, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		store:     store,
		publisher: publisher,
		maxRows:   maxRows,
		logger:    logger.WithField("component", "import_handler"),
	}
}

// GetImportTemplate returns the stock sheet template definition or file
// GET /api/v1/products/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.StockSheetTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=stock_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	if err := writer.Write(headers); err != nil {
		h.logger.WithError(err).Warn("Failed to write CSV template")
	}
}

// generateXLSXTemplate generates and downloads an Excel template with the
// sample rows and an instructions sheet
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", stockSheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(stockSheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(stockSheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(stockSheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(stockSheetName, colName, colName, 18)

		for r, sample := range template.SampleData {
			sampleCell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			f.SetCellValue(stockSheetName, sampleCell, sample[col.Name])
		}
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Stock Sheet Instructions")
	f.SetCellValue("Instructions", "A3", "One row per size and colour. Rows with the same SKU form one product.")
	f.SetCellValue("Instructions", "A4", "Leave size empty for products sold by colour only. Such a product has one row; list its colours in the color cell, e.g. \"red, blue\".")
	f.SetCellValue("Instructions", "A5", "Leave color empty for size-only stock. A size has either one colourless row or named colours, never both. Rows with stock 0 are kept but hidden from shoppers.")
	f.SetCellValue("Instructions", "A6", "Existing SKUs have their size and colour stock replaced.")

	f.SetCellValue("Instructions", "A8", "Column")
	f.SetCellValue("Instructions", "B8", "Description")
	f.SetCellValue("Instructions", "C8", "Required")
	f.SetCellValue("Instructions", "D8", "Type")
	f.SetCellValue("Instructions", "E8", "Example")

	for i, col := range template.Columns {
		row := i + 9
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 20)
	f.SetColWidth("Instructions", "B", "B", 70)
	f.SetColWidth("Instructions", "C", "E", 15)

	sheetIdx, _ := f.GetSheetIndex(stockSheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=stock_import_template.xlsx")

	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Warn("Failed to write XLSX template")
	}
}

// ImportProducts imports a stock sheet from a CSV or Excel file. The whole
// sheet is validated first; nothing is written when any row fails.
// POST /api/v1/products/import
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "FILE_REQUIRED", "Please upload a CSV or Excel file", "file")
		return
	}
	defer file.Close()

	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	var format models.ImportFormat
	filename := strings.ToLower(header.Filename)
	switch {
	case strings.HasSuffix(filename, ".csv"):
		format = models.ImportFormatCSV
	case strings.HasSuffix(filename, ".xlsx"):
		format = models.ImportFormatXLSX
	default:
		errorJSON(c, http.StatusBadRequest, "INVALID_FORMAT", "Only CSV and XLSX files are supported", "file")
		return
	}

	var rows []map[string]string
	if format == models.ImportFormatCSV {
		rows, err = parseCSV(file)
	} else {
		rows, err = parseXLSX(file)
	}
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "PARSE_ERROR", err.Error(), "file")
		return
	}

	if len(rows) == 0 {
		errorJSON(c, http.StatusBadRequest, "EMPTY_FILE", "The file contains no data rows", "file")
		return
	}
	if h.maxRows > 0 && len(rows) > h.maxRows {
		errorJSON(c, http.StatusBadRequest, "TOO_MANY_ROWS", fmt.Sprintf("A stock sheet may have at most %d rows", h.maxRows), "file")
		return
	}

	sheet := parseStockSheet(rows)
	result := &models.ImportResult{
		TotalRows:    len(rows),
		ProductCount: len(sheet.products),
		ValidateOnly: validateOnly,
		Errors:       sheet.errors,
		FailedCount:  sheet.failedRows(),
	}

	logger := h.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"format":    format,
		"rows":      len(rows),
		"products":  len(sheet.products),
	})

	if len(sheet.errors) > 0 {
		logger.WithField("failed_rows", result.FailedCount).Info("Stock sheet rejected")
		c.JSON(http.StatusOK, result)
		return
	}
	if validateOnly {
		result.Success = true
		c.JSON(http.StatusOK, result)
		return
	}

	products := make([]*models.Product, 0, len(sheet.products))
	for _, p := range sheet.products {
		product, err := p.toProduct(tenantID)
		if err != nil {
			logger.WithError(err).Error("Failed to build product from stock sheet")
			errorJSON(c, http.StatusInternalServerError, "IMPORT_FAILED", "Failed to import stock sheet", "")
			return
		}
		products = append(products, product)
	}

	upserted, err := h.store.UpsertBySKU(c.Request.Context(), tenantID, products)
	if err != nil {
		logger.WithError(err).Error("Failed to save stock sheet")
		errorJSON(c, http.StatusInternalServerError, "IMPORT_FAILED", "Failed to import stock sheet", "")
		return
	}

	result.Success = true
	result.CreatedCount = len(upserted.Created)
	result.UpdatedCount = len(upserted.Updated)
	for _, p := range upserted.Created {
		result.CreatedIDs = append(result.CreatedIDs, p.ID.String())
	}
	for _, p := range upserted.Updated {
		result.UpdatedIDs = append(result.UpdatedIDs, p.ID.String())
	}

	changed := append(append([]*models.Product{}, upserted.Created...), upserted.Updated...)
	if err := h.publisher.PublishStockImported(c.Request.Context(), tenantID, changed); err != nil {
		logger.WithError(err).Warn("Failed to publish stock import event")
	}

	logger.WithFields(logrus.Fields{
		"created": result.CreatedCount,
		"updated": result.UpdatedCount,
	}).Info("Stock sheet imported")
	c.JSON(http.StatusOK, result)
}

// normalizeHeaders lowercases headers and drops the required marker
func normalizeHeaders(headers []string) {
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}
}

// parseCSV parses a CSV file into rows
func parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	normalizeHeaders(headers)

	var rows []map[string]string
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}
		lineNum++

		row := make(map[string]string)
		blank := true
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
				blank = blank && row[headers[i]] == ""
			}
		}
		if blank {
			continue
		}
		row["_row"] = strconv.Itoa(lineNum)
		rows = append(rows, row)
	}

	return rows, nil
}

// parseXLSX parses an Excel file into rows, preferring a sheet named Stock
func parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, stockSheetName) {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	normalizeHeaders(headers)

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		blank := true
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
				blank = blank && row[headers[i]] == ""
			}
		}
		if blank {
			continue
		}
		row["_row"] = strconv.Itoa(rowIdx + 2)
		rows = append(rows, row)
	}

	return rows, nil
}
