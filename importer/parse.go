package importer

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type, upload .html, .htm, .xls or .xlsx")
	ErrNoValidIngredients  = errors.New("no valid ingredients found in file")
)

// SupportedExtension reports whether fileName can be imported.
func SupportedExtension(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".html", ".htm", ".xls", ".xlsx":
		return true
	}
	return false
}

// Parse dispatches on the file extension, then drops duplicate item codes.
// An empty result is reported as ErrNoValidIngredients.
func Parse(fileName string, content []byte, opts Options) ([]Ingredient, error) {
	var (
		rows []Ingredient
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".html", ".htm":
		rows, err = ParseHTML(bytes.NewReader(content), opts)
	case ".xls", ".xlsx":
		rows, err = ParseWorkbook(content, opts)
	default:
		return nil, ErrUnsupportedFileType
	}
	if err != nil {
		return nil, err
	}
	rows = Dedupe(rows)
	if len(rows) == 0 {
		return nil, ErrNoValidIngredients
	}
	return rows, nil
}

// Dedupe keeps one row per item code. The last occurrence supplies the
// values; the first occurrence keeps its position.
func Dedupe(rows []Ingredient) []Ingredient {
	seen := make(map[string]int, len(rows))
	out := make([]Ingredient, 0, len(rows))
	for _, r := range rows {
		if i, ok := seen[r.ItemCode]; ok {
			out[i] = r
			continue
		}
		seen[r.ItemCode] = len(out)
		out = append(out, r)
	}
	return out
}
