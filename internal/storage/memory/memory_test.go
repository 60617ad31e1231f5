package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunchreports/internal/core"
)

func TestStoreOrdersAndLines(t *testing.T) {
	ctx := context.Background()
	s := New()

	pizza, err := s.CreateItem(ctx, " Pizza ")
	require.NoError(t, err)
	assert.Equal(t, "Pizza", pizza.Name)

	lee, err := s.CreateTeacher(ctx, "Ms. Lee")
	require.NoError(t, err)
	ann, err := s.CreateStudent(ctx, "Ann", &lee.ID)
	require.NoError(t, err)
	cy, err := s.CreateStudent(ctx, "Cy", nil)
	require.NoError(t, err)

	for _, o := range []core.Order{
		{Orderer: core.StudentOrderer{StudentID: ann.ID}, ItemID: pizza.ID, Quantity: 2},
		{Orderer: core.StudentOrderer{StudentID: cy.ID}, ItemID: pizza.ID, Quantity: 3},
		{Orderer: core.TeacherOrderer{TeacherID: lee.ID}, ItemID: pizza.ID, Quantity: 1},
	} {
		_, err := s.CreateOrder(ctx, o)
		require.NoError(t, err)
	}

	total, err := s.SumQuantityForItem(ctx, pizza.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, total)

	lines, err := s.ListOrdersForItem(ctx, pizza.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.OrderLine{
		{Customer: "Ann", GroupKey: "Ms. Lee", Quantity: 2},
		{Customer: "Cy", GroupKey: core.Unassigned, Quantity: 3},
		{Customer: "Ms. Lee", GroupKey: "Ms. Lee", Quantity: 1},
	}, lines)

	roster, err := s.ListTeachersWithStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.TeacherRoster{{TeacherName: "Ms. Lee", StudentNames: []string{"Ann"}}}, roster)

	unassigned, err := s.ListStudentsWithoutTeacher(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cy"}, unassigned)
}

func TestStoreItemLookups(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, name := range []string{"Pizza", "Water", "Cookie"} {
		_, err := s.CreateItem(ctx, name)
		require.NoError(t, err)
	}

	items, err := s.FindItemsByName(ctx, []string{"Cookie", "Pizza", "Ghost"})
	require.NoError(t, err)
	// Natural order, not request order.
	assert.Equal(t, "Pizza", items[0].Name)
	assert.Equal(t, "Cookie", items[1].Name)
	assert.Len(t, items, 2)

	_, err = s.CreateItem(ctx, "Pizza")
	assert.ErrorIs(t, err, core.ErrDuplicateName)

	_, err = s.FindItemByName(ctx, "Ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)

	total, err := s.SumQuantityForItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStoreRejectsBadOrders(t *testing.T) {
	ctx := context.Background()
	s := New()
	pizza, _ := s.CreateItem(ctx, "Pizza")

	_, err := s.CreateOrder(ctx, core.Order{ItemID: pizza.ID, Quantity: 1})
	assert.ErrorIs(t, err, core.ErrMissingOrderer)

	_, err = s.CreateOrder(ctx, core.Order{Orderer: core.StudentOrderer{StudentID: 99}, ItemID: pizza.ID, Quantity: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)

	lee, _ := s.CreateTeacher(ctx, "Ms. Lee")
	_, err = s.CreateOrder(ctx, core.Order{Orderer: core.TeacherOrderer{TeacherID: lee.ID}, ItemID: 99, Quantity: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)

	missing := int64(42)
	_, err = s.CreateStudent(ctx, "Ann", &missing)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.CreateTeacher(ctx, "")
	assert.ErrorIs(t, err, core.ErrEmptyName)

	_, err = s.CreateTeacher(ctx, "Ms. Lee")
	assert.ErrorIs(t, err, core.ErrDuplicateName)
	_, err = s.CreateStudent(ctx, "Bo", nil)
	require.NoError(t, err)
	_, err = s.CreateStudent(ctx, "Bo", &lee.ID)
	assert.ErrorIs(t, err, core.ErrDuplicateName)
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Ping(ctx), core.ErrStorageUnavailable)
	_, err := s.ListItems(ctx)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	_, err = s.ListOrdersForItem(ctx, 1)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
}

func TestNewFromFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFromFile(ctx, filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	items, _ := s.ListItems(ctx)
	assert.Empty(t, items)

	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items: [Pizza]\nstudents: [Cy]\norders: [{item: Pizza, student: Cy}]\n"), 0o644))
	s, err = NewFromFile(ctx, path)
	require.NoError(t, err)
	pizza, err := s.FindItemByName(ctx, "Pizza")
	require.NoError(t, err)
	total, _ := s.SumQuantityForItem(ctx, pizza.ID)
	assert.Equal(t, 1, total)

	require.NoError(t, os.WriteFile(path, []byte("items: [Pizza, Pizza]\n"), 0o644))
	_, err = NewFromFile(ctx, path)
	assert.Error(t, err)
}
