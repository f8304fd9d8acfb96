package catalog

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"leasing-backend/internal/money"

	"github.com/xuri/excelize/v2"
)

// Column order used when the sheet has no header row.
var defaultColumns = []string{colSupplier, colReference, colDescription, colCategory, colPrice}

const (
	colSupplier    = "supplier"
	colReference   = "reference"
	colDescription = "description"
	colCategory    = "category"
	colPrice       = "price"
)

var headerAliases = map[string]string{
	"supplier":            colSupplier,
	"fournisseur":         colSupplier,
	"reference":           colReference,
	"référence":           colReference,
	"ref":                 colReference,
	"description":         colDescription,
	"designation":         colDescription,
	"désignation":         colDescription,
	"category":            colCategory,
	"categorie":           colCategory,
	"catégorie":           colCategory,
	"price":               colPrice,
	"unit_price":          colPrice,
	"unit price":          colPrice,
	"prix":                colPrice,
	"montant ht":          colPrice,
	"prix unitaire ht":    colPrice,
	"unit_price_excl_tax": colPrice,
}

var ErrEmptySheet = errors.New("the workbook has no catalog rows")

type RowError struct {
	Row    int    `json:"row"` // 1-based sheet row
	Reason string `json:"reason"`
}

type ImportResult struct {
	Items  []Item     `json:"items"`
	Errors []RowError `json:"errors"`
}

// ReadXLSX reads catalog items from the first sheet of a workbook. A header
// row is detected by its column names; without one the columns are
// supplier, reference, description, category, price. Rows missing a
// supplier, reference or description are reported and skipped.
func ReadXLSX(r io.Reader) (ImportResult, error) {
	res := ImportResult{Items: []Item{}, Errors: []RowError{}}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return res, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return res, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return res, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	columns := defaultColumns
	start := 0
	if len(rows) > 0 {
		if header, ok := detectHeader(rows[0]); ok {
			columns = header
			start = 1
		}
	}

	seen := make(map[string]int)
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		rec := make(map[string]string, len(columns))
		for ci, name := range columns {
			if name != "" && ci < len(row) {
				rec[name] = strings.TrimSpace(row[ci])
			}
		}

		item := Item{
			Supplier:         rec[colSupplier],
			Reference:        rec[colReference],
			Description:      rec[colDescription],
			Category:         rec[colCategory],
			UnitPriceExclTax: money.ParseAmount(rec[colPrice]),
		}
		switch {
		case item.Supplier == "":
			res.Errors = append(res.Errors, RowError{Row: i + 1, Reason: "missing supplier"})
			continue
		case item.Reference == "":
			res.Errors = append(res.Errors, RowError{Row: i + 1, Reason: "missing reference"})
			continue
		case item.Description == "":
			res.Errors = append(res.Errors, RowError{Row: i + 1, Reason: "missing description"})
			continue
		case item.UnitPriceExclTax.IsNegative():
			res.Errors = append(res.Errors, RowError{Row: i + 1, Reason: "negative price"})
			continue
		}

		// a later row for the same supplier and reference wins
		key := item.Supplier + "\x00" + item.Reference
		if idx, dup := seen[key]; dup {
			res.Items[idx] = item
			continue
		}
		seen[key] = len(res.Items)
		res.Items = append(res.Items, item)
	}

	if len(res.Items) == 0 && len(res.Errors) == 0 {
		return res, ErrEmptySheet
	}
	return res, nil
}

func detectHeader(row []string) ([]string, bool) {
	cols := make([]string, len(row))
	found := 0
	for i, cell := range row {
		if name, ok := headerAliases[strings.ToLower(strings.TrimSpace(cell))]; ok {
			cols[i] = name
			found++
		}
	}
	return cols, found >= 2
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteXLSX writes items with a header row, in the layout ReadXLSX accepts.
func WriteXLSX(w io.Writer, items []Item) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Catalogue"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := []any{"Fournisseur", "Référence", "Désignation", "Catégorie", "Prix unitaire HT"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		price, _ := it.UnitPriceExclTax.Float64()
		row := []any{it.Supplier, it.Reference, it.Description, it.Category, price}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
