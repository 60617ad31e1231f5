// Package render turns lunch reports into printable tables and writes them
// as PDF documents or terminal text.
package render

import (
	"strconv"

	"lunchreports/internal/core"
)

// RowKind tells renderers how to style a row.
type RowKind int

const (
	RowLine RowKind = iota
	RowGroup
	RowTotal
)

type (
	Row struct {
		Kind  RowKind
		Cells []string
	}

	Table struct {
		Title  string
		Header []string
		Rows   []Row
	}
)

// ItemTables lays out a single-item report: one table per item, one group
// row per teacher followed by that group's customers.
func ItemTables(r *core.SingleItemReport) []Table {
	tables := make([]Table, 0, len(r.Items))
	for _, item := range r.Items {
		t := Table{
			Title:  item.Name + " (total " + strconv.Itoa(r.Total(item.Name)) + ")",
			Header: []string{"Teacher", "Customer", "Quantity"},
		}
		for _, group := range core.Entries(r.Groups(item.Name)) {
			t.Rows = append(t.Rows, Row{
				Kind:  RowGroup,
				Cells: []string{group.Key, "", strconv.Itoa(group.Value.GroupQuantity)},
			})
			for _, c := range core.Entries(group.Value.Customers) {
				t.Rows = append(t.Rows, Row{
					Kind:  RowLine,
					Cells: []string{"", c.Key, strconv.Itoa(c.Value)},
				})
			}
		}
		t.Rows = append(t.Rows, Row{
			Kind:  RowTotal,
			Cells: []string{"Total", "", strconv.Itoa(r.Total(item.Name))},
		})
		tables = append(tables, t)
	}
	return tables
}

// CombinedTable lays out the roster against the selected items: one row
// per name, a subtotal after each roster group and a grand total last.
func CombinedTable(r *core.CombinedReport) Table {
	t := Table{
		Title:  r.Title,
		Header: []string{"Teacher", "Name"},
	}
	for _, item := range r.Items {
		t.Header = append(t.Header, item.Name)
	}

	for _, group := range core.Entries(r.Roster) {
		for i, name := range group.Value {
			cells := []string{"", name}
			if i == 0 {
				cells[0] = group.Key
			}
			for _, item := range r.Items {
				cells = append(cells, quantityCell(r.QuantityFor(item.Name, group.Key, name)))
			}
			t.Rows = append(t.Rows, Row{Kind: RowLine, Cells: cells})
		}
		cells := []string{group.Key, "Subtotal"}
		for _, item := range r.Items {
			cells = append(cells, strconv.Itoa(r.GroupQuantity(item.Name, group.Key)))
		}
		t.Rows = append(t.Rows, Row{Kind: RowGroup, Cells: cells})
	}

	cells := []string{"Total", ""}
	for _, item := range r.Items {
		cells = append(cells, strconv.Itoa(r.Total(item.Name)))
	}
	t.Rows = append(t.Rows, Row{Kind: RowTotal, Cells: cells})
	return t
}

// quantityCell leaves cells blank for names that ordered nothing.
func quantityCell(qty int) string {
	if qty == 0 {
		return ""
	}
	return strconv.Itoa(qty)
}
