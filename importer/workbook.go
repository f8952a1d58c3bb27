package importer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
)

var ErrUnreadableWorkbook = errors.New("workbook could not be read")

type workbookKind int

const (
	kindUnknown workbookKind = iota
	kindXLS
	kindXLSX
	kindHTML
)

// sniffWorkbook decides the container from the leading bytes; .xls files are
// often HTML tables saved with a spreadsheet extension.
func sniffWorkbook(content []byte) workbookKind {
	switch {
	case bytes.HasPrefix(content, oleMagic):
		return kindXLS
	case bytes.HasPrefix(content, zipMagic):
		return kindXLSX
	case looksLikeHTML(content):
		return kindHTML
	}
	return kindUnknown
}

func looksLikeHTML(content []byte) bool {
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.ToLower(bytes.TrimSpace(bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))))
	for _, marker := range [][]byte{[]byte("<!doctype html"), []byte("<html"), []byte("<table"), []byte("<?xml")} {
		if bytes.Contains(head, marker) {
			return true
		}
	}
	return false
}

// ParseWorkbook reads the first sheet, starts after the first row whose
// first cell mentions "item" (or at row 0 when none does) and maps each row
// positionally with the rich columns.
func ParseWorkbook(content []byte, opts Options) ([]Ingredient, error) {
	var (
		rows [][]string
		err  error
	)
	switch sniffWorkbook(content) {
	case kindXLSX:
		rows, err = xlsxRows(content)
	case kindXLS:
		rows, err = xlsRows(content)
	case kindHTML:
		return ParseHTML(bytes.NewReader(content), opts)
	default:
		return nil, ErrUnreadableWorkbook
	}
	if err != nil {
		return nil, err
	}
	rows = padRows(rows)
	return walkRows(rows, dataStart(rows), workbookShape), nil
}

func xlsxRows(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	// raw values, so number formats cannot round prices
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	return rows, nil
}

func xlsRows(content []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	if wb == nil {
		return nil, ErrUnreadableWorkbook
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}
	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		// cells written without a ROW record report LastCol 0
		width := max(row.LastCol(), len(workbookShape.Columns))
		cells := make([]string, width)
		for c := range cells {
			cells[c] = row.Col(c)
		}
		rows = append(rows, trimTrailingBlanks(cells))
	}
	return rows, nil
}

// sheetRow returns nil for rows the sheet never wrote; xls.WorkSheet.Row
// dereferences a nil entry for those.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func trimTrailingBlanks(cells []string) []string {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	return cells[:n]
}

// padRows widens every row to the sheet width so blank trailing cells read as "".
func padRows(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	for i, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		}
	}
	return rows
}

func dataStart(rows [][]string) int {
	for i, r := range rows {
		if len(r) > 0 && strings.Contains(strings.ToLower(r[0]), "item") {
			return i + 1
		}
	}
	return 0
}
