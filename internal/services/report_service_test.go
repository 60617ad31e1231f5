package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunchreports/internal/core"
	"lunchreports/internal/seed"
	"lunchreports/internal/storage/memory"
)

const pizzaSchoolSeed = `
items: [Pizza, Water]
teachers:
  - name: Ms. Lee
    students: [Ann, Bo]
  - name: Mr. Park
students: [Cy]
orders:
  - {item: Pizza, student: Ann, quantity: 2}
  - {item: Pizza, student: Ann}
  - {item: Pizza, student: Bo}
  - {item: Pizza, student: Cy, quantity: 3}
  - {item: Pizza, teacher: Ms. Lee}
`

func pizzaSchool(t *testing.T) *memory.Store {
	t.Helper()
	f, err := seed.Parse([]byte(pizzaSchoolSeed))
	require.NoError(t, err)
	store := memory.New()
	require.NoError(t, seed.Apply(context.Background(), store, f))
	return store
}

func itemNames(items []core.LunchItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func TestSelectItems(t *testing.T) {
	svc := NewReportService(pizzaSchool(t), nil)
	ctx := context.Background()

	cases := []struct {
		name      string
		requested []string
		want      []string
	}{
		{"subset", []string{"Water"}, []string{"Water"}},
		{"natural order", []string{"Water", "Pizza"}, []string{"Pizza", "Water"}},
		{"nothing requested", nil, []string{"Pizza", "Water"}},
		{"nothing matched", []string{"Soup"}, []string{"Pizza", "Water"}},
		{"partial match", []string{"Soup", "Pizza"}, []string{"Pizza"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := svc.SelectItems(ctx, tc.requested)
			require.NoError(t, err)
			assert.Equal(t, tc.want, itemNames(items))
		})
	}
}

func TestBuildSingleItemReport(t *testing.T) {
	svc := NewReportService(pizzaSchool(t), nil)
	report, err := svc.BuildSingleItemReport(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Pizza", "Water"}, itemNames(report.Items))
	assert.Equal(t, []core.Entry[int]{{Key: "Pizza", Value: 8}, {Key: "Water", Value: 0}}, core.Entries(report.Totals))

	pizza := report.Groups("Pizza")
	require.NotNil(t, pizza)
	assert.Equal(t, []string{"Ms. Lee", core.Unassigned}, core.Keys(pizza))
	lee, _ := pizza.Get("Ms. Lee")
	assert.Equal(t, 5, lee.GroupQuantity)
	assert.Equal(t, []core.Entry[int]{{Key: "Ann", Value: 3}, {Key: "Bo", Value: 1}, {Key: "Ms. Lee", Value: 1}}, core.Entries(lee.Customers))
	assert.Equal(t, 3, report.GroupQuantity("Pizza", core.Unassigned))

	water := report.Groups("Water")
	require.NotNil(t, water)
	assert.Zero(t, water.Len())
}

func TestGroupingPreservesTotals(t *testing.T) {
	svc := NewReportService(pizzaSchool(t), nil)
	report, err := svc.BuildSingleItemReport(context.Background(), nil)
	require.NoError(t, err)

	for _, item := range report.Items {
		sum := 0
		for _, g := range core.Entries(report.Groups(item.Name)) {
			sum += g.Value.GroupQuantity
		}
		assert.Equal(t, report.Total(item.Name), sum, item.Name)
	}
}

func TestBuildCombinedReport(t *testing.T) {
	svc := NewReportService(pizzaSchool(t), nil)
	report, err := svc.BuildCombinedReport(context.Background(), []string{"Pizza"})
	require.NoError(t, err)

	assert.Equal(t, "Pizza Report", report.Title)
	assert.Equal(t, []string{"Ms. Lee", "Mr. Park", core.Unassigned}, core.Keys(report.Roster))
	lee, _ := report.Roster.Get("Ms. Lee")
	assert.Equal(t, []string{"Ann", "Bo", "Ms. Lee"}, lee)
	park, _ := report.Roster.Get("Mr. Park")
	assert.Equal(t, []string{"Mr. Park"}, park)
	dash, _ := report.Roster.Get(core.Unassigned)
	assert.Equal(t, []string{"Cy"}, dash)
	assert.Equal(t, 8, report.Total("Pizza"))
}

// failingReader fails the named read and delegates the rest.
type failingReader struct {
	*memory.Store
	failOn string
}

var errBoom = errors.New("boom")

func (f failingReader) SumQuantityForItem(ctx context.Context, id int64) (int, error) {
	if f.failOn == "sum" {
		return 0, errBoom
	}
	return f.Store.SumQuantityForItem(ctx, id)
}

func (f failingReader) ListOrdersForItem(ctx context.Context, id int64) ([]core.OrderLine, error) {
	if f.failOn == "orders" {
		return nil, errBoom
	}
	return f.Store.ListOrdersForItem(ctx, id)
}

func (f failingReader) ListStudentsWithoutTeacher(ctx context.Context) ([]string, error) {
	if f.failOn == "roster" {
		return nil, errBoom
	}
	return f.Store.ListStudentsWithoutTeacher(ctx)
}

func TestReportBuildIsAllOrNothing(t *testing.T) {
	for _, failOn := range []string{"sum", "orders", "roster"} {
		t.Run(failOn, func(t *testing.T) {
			svc := NewReportService(failingReader{Store: pizzaSchool(t), failOn: failOn}, nil)
			report, err := svc.BuildCombinedReport(context.Background(), nil)
			assert.ErrorIs(t, err, errBoom)
			assert.Nil(t, report)
		})
	}
}

func TestReportStorageUnavailable(t *testing.T) {
	store := pizzaSchool(t)
	require.NoError(t, store.Close())
	svc := NewReportService(store, nil)

	_, err := svc.BuildSingleItemReport(context.Background(), []string{"Pizza"})
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	_, err = svc.BuildCombinedReport(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
}

func TestTables(t *testing.T) {
	svc := NewReportService(pizzaSchool(t), nil)
	ctx := context.Background()

	heading, tables, err := svc.Tables(ctx, core.KindSingleItem, []string{"Pizza"})
	require.NoError(t, err)
	assert.Equal(t, "Lunch Order Report by Item", heading)
	require.Len(t, tables, 1)
	assert.Equal(t, "Pizza (total 8)", tables[0].Title)

	heading, tables, err = svc.Tables(ctx, core.KindCombined, []string{"Pizza"})
	require.NoError(t, err)
	assert.Equal(t, "Pizza Report", heading)
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"Teacher", "Name", "Pizza"}, tables[0].Header)

	_, _, err = svc.Tables(ctx, core.ReportKind("weekly"), nil)
	assert.ErrorContains(t, err, "unknown report kind")
}
