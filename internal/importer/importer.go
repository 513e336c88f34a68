package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"contract-discovery/internal/models"
)

// ParseContractsFile reads contract notices from a CSV, XLSX or ODS file.
// The first row is a header; recognised columns are matched by name and
// unknown columns are ignored. Rows missing a notice id or title are
// skipped with a log line, not an error.
func ParseContractsFile(filePath string) ([]models.Contract, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".csv":
		return parseCSV(filePath)
	case ".xlsx":
		return parseXLSX(filePath)
	case ".ods":
		return parseODS(filePath)
	default:
		return nil, fmt.Errorf("unsupported contracts file format: %s", ext)
	}
}

func parseCSV(filePath string) ([]models.Contract, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rowsToContracts(rows), nil
}

func parseXLSX(filePath string) ([]models.Contract, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	if len(f.Sheets) == 0 {
		return nil, nil
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		var cells []string
		for _, cell := range row.Cells {
			cells = append(cells, cell.String())
		}
		rows = append(rows, cells)
	}
	return rowsToContracts(rows), nil
}

func parseODS(filePath string) ([]models.Contract, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return rowsToContracts(rows), nil
}

func rowsToContracts(rows [][]string) []models.Contract {
	if len(rows) < 2 {
		return nil
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var contracts []models.Contract
	for _, row := range rows[1:] {
		contract := models.Contract{
			NoticeID:      cellValue(row, columns, "notice_id"),
			Title:         cellValue(row, columns, "title"),
			Description:   cellValue(row, columns, "description"),
			BuyerName:     cellValue(row, columns, "buyer_name"),
			Region:        cellValue(row, columns, "region"),
			Value:         parseValue(cellValue(row, columns, "value")),
			PublishedDate: parseDate(cellValue(row, columns, "published_date")),
			ClosingDate:   parseDate(cellValue(row, columns, "closing_date")),
		}
		if codes := cellValue(row, columns, "cpv_codes"); codes != "" {
			for _, code := range strings.Split(codes, ";") {
				if code = strings.TrimSpace(code); code != "" {
					contract.CPVCodes = append(contract.CPVCodes, code)
				}
			}
		}
		if contract.NoticeID == "" || contract.Title == "" {
			log.Debug().Strs("row", row).Msg("Skipping contract row without notice_id or title")
			continue
		}
		contracts = append(contracts, contract)
	}
	return contracts
}

func cellValue(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseValue handles currency formatting like "£1,250,000.50"
func parseValue(raw string) float64 {
	if raw == "" {
		return 0
	}
	cleaned := strings.NewReplacer("£", "", "$", "", "€", "", ",", "", " ", "").Replace(raw)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "02/01/2006"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
