package google

import (
	"strconv"
	"strings"

	"lunchreports/internal/render"
)

// tableValues flattens tables into a values matrix: the heading, then each
// table's title, header and rows separated by a blank row. Numeric cells
// are written as numbers so sheet formulas can sum them.
func tableValues(heading string, tables []render.Table) [][]interface{} {
	values := [][]interface{}{{heading}}
	for _, t := range tables {
		values = append(values, []interface{}{})
		if t.Title != "" {
			values = append(values, []interface{}{t.Title})
		}
		values = append(values, row(t.Header))
		for _, r := range t.Rows {
			values = append(values, row(r.Cells))
		}
	}
	return values
}

func row(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		if n, err := strconv.Atoi(c); err == nil {
			out[i] = n
			continue
		}
		out[i] = c
	}
	return out
}

func width(values [][]interface{}) int {
	w := 1
	for _, r := range values {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// columnName converts a 1-based column index to A1 letters (1 -> A, 27 -> AA).
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
