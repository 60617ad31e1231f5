package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunchreports/internal/core"
)

func pizzaReport() *core.CombinedReport {
	items := []core.LunchItem{{ID: 1, Name: "Pizza"}, {ID: 2, Name: "Water"}}
	single := core.NewSingleItemReport(items)
	single.Totals.Set("Pizza", 8)
	single.Totals.Set("Water", 0)
	single.GroupedOrders.Set("Pizza", core.GroupOrders([]core.OrderLine{
		{Customer: "Ann", GroupKey: "Ms. Lee", Quantity: 2},
		{Customer: "Ann", GroupKey: "Ms. Lee", Quantity: 1},
		{Customer: "Bo", GroupKey: "Ms. Lee", Quantity: 1},
		{Customer: "Cy", GroupKey: core.Unassigned, Quantity: 3},
		{Customer: "Ms. Lee", GroupKey: "Ms. Lee", Quantity: 1},
	}))
	single.GroupedOrders.Set("Water", core.GroupOrders(nil))
	return &core.CombinedReport{
		SingleItemReport: *single,
		Title:            core.ReportTitle(items),
		Roster: core.BuildRoster(
			[]core.TeacherRoster{{TeacherName: "Ms. Lee", StudentNames: []string{"Ann", "Bo"}}},
			[]string{"Cy"},
		),
	}
}

func cells(rows []Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Cells
	}
	return out
}

func TestItemTables(t *testing.T) {
	report := pizzaReport()
	tables := ItemTables(&report.SingleItemReport)
	require.Len(t, tables, 2)

	pizza := tables[0]
	assert.Equal(t, "Pizza (total 8)", pizza.Title)
	assert.Equal(t, [][]string{
		{"Ms. Lee", "", "5"},
		{"", "Ann", "3"},
		{"", "Bo", "1"},
		{"", "Ms. Lee", "1"},
		{"-", "", "3"},
		{"", "Cy", "3"},
		{"Total", "", "8"},
	}, cells(pizza.Rows))
	assert.Equal(t, RowGroup, pizza.Rows[0].Kind)
	assert.Equal(t, RowLine, pizza.Rows[1].Kind)
	assert.Equal(t, RowTotal, pizza.Rows[6].Kind)

	water := tables[1]
	assert.Equal(t, [][]string{{"Total", "", "0"}}, cells(water.Rows))
}

func TestCombinedTable(t *testing.T) {
	table := CombinedTable(pizzaReport())
	assert.Equal(t, "Pizza, Water Report", table.Title)
	assert.Equal(t, []string{"Teacher", "Name", "Pizza", "Water"}, table.Header)
	assert.Equal(t, [][]string{
		{"Ms. Lee", "Ann", "3", ""},
		{"", "Bo", "1", ""},
		{"", "Ms. Lee", "1", ""},
		{"Ms. Lee", "Subtotal", "5", "0"},
		{"-", "Cy", "3", ""},
		{"-", "Subtotal", "3", "0"},
		{"Total", "", "8", "0"},
	}, cells(table.Rows))
}

func TestCombinedTable_EmptyUnassignedGroup(t *testing.T) {
	report := pizzaReport()
	report.Roster = core.BuildRoster([]core.TeacherRoster{{TeacherName: "Ms. Lee"}}, nil)
	table := CombinedTable(report)
	assert.Equal(t, [][]string{
		{"Ms. Lee", "Ms. Lee", "1", ""},
		{"Ms. Lee", "Subtotal", "5", "0"},
		{"-", "Subtotal", "3", "0"},
		{"Total", "", "8", "0"},
	}, cells(table.Rows))
}

func TestPDF(t *testing.T) {
	report := pizzaReport()
	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, report.Title, []Table{CombinedTable(report)}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)

	buf.Reset()
	require.NoError(t, PDF(&buf, core.KindSingleItem.AttachmentName(), ItemTables(&report.SingleItemReport)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDF_NoTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, " Report", nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestText(t *testing.T) {
	report := pizzaReport()
	out := Text(report.Title, []Table{CombinedTable(report)})
	assert.Contains(t, out, "Pizza, Water Report")
	assert.Contains(t, out, "Subtotal")
	assert.Less(t, strings.Index(out, "Ms. Lee"), strings.Index(out, "Cy"))
}

func TestColumnWidths(t *testing.T) {
	w := columnWidths(4, 180)
	assert.InDelta(t, 45, w[0], 0.001)
	assert.InDelta(t, 45, w[2], 0.001)
	sum := 0.0
	for _, x := range columnWidths(9, 180) {
		sum += x
	}
	assert.InDelta(t, 180, sum, 0.001)
	assert.Empty(t, columnWidths(0, 180))
}
