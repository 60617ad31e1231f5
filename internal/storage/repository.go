package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"lunchreports/internal/core"
	"lunchreports/internal/ports"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	closed  atomic.Bool
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the main connection pool is opened.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", errors.Join(core.ErrStorageUnavailable, err))
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func dsn(path string) string {
	return filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if r.closed.Load() {
		return core.ErrStorageUnavailable
	}
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", errors.Join(core.ErrStorageUnavailable, err))
	}
	return nil
}

// wrap maps driver failures onto core errors. Anything that means the
// database cannot be reached becomes core.ErrStorageUnavailable.
func (r *SQLiteRepository) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case r.closed.Load(),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, driver.ErrBadConn),
		isBusy(err):
		return fmt.Errorf("%s: %w", op, errors.Join(core.ErrStorageUnavailable, err))
	case errors.Is(err, sql.ErrNoRows), isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func sqliteCode(err error) (int, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	return sqliteErr.Code(), true
}

func isBusy(err error) bool {
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED || code == sqlite3.SQLITE_CANTOPEN)
}

func isUniqueViolation(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "UNIQUE"))
}

func isForeignKeyViolation(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	return code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
		(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "FOREIGN KEY"))
}

func (r *SQLiteRepository) guard() error {
	if r.closed.Load() {
		return core.ErrStorageUnavailable
	}
	return nil
}

func toCoreItems(rows []LunchItem) []core.LunchItem {
	items := make([]core.LunchItem, len(rows))
	for i, row := range rows {
		items[i] = core.LunchItem{ID: row.ID, Name: row.Name}
	}
	return items
}

func (r *SQLiteRepository) FindItemsByName(ctx context.Context, names []string) ([]core.LunchItem, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	rows, err := r.queries.GetItemsByNames(ctx, names)
	if err != nil {
		return nil, r.wrap("find items by name", err)
	}
	return toCoreItems(rows), nil
}

func (r *SQLiteRepository) ListItems(ctx context.Context) ([]core.LunchItem, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListItems(ctx)
	if err != nil {
		return nil, r.wrap("list items", err)
	}
	return toCoreItems(rows), nil
}

func (r *SQLiteRepository) SumQuantityForItem(ctx context.Context, itemID int64) (int, error) {
	if err := r.guard(); err != nil {
		return 0, err
	}
	total, err := r.queries.SumQuantityForItem(ctx, itemID)
	if err != nil {
		return 0, r.wrap("sum quantity", err)
	}
	return int(total), nil
}

func (r *SQLiteRepository) ListOrdersForItem(ctx context.Context, itemID int64) ([]core.OrderLine, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListOrderLinesForItem(ctx, itemID)
	if err != nil {
		return nil, r.wrap("list order lines", err)
	}
	lines := make([]core.OrderLine, len(rows))
	for i, row := range rows {
		lines[i] = core.OrderLine{Customer: row.Customer, GroupKey: row.GroupKey, Quantity: int(row.Quantity)}
	}
	return lines, nil
}

func (r *SQLiteRepository) ListTeachersWithStudents(ctx context.Context) ([]core.TeacherRoster, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListTeachersWithStudents(ctx)
	if err != nil {
		return nil, r.wrap("list teachers", err)
	}
	var out []core.TeacherRoster
	lastID := int64(-1)
	for _, row := range rows {
		if row.TeacherID != lastID {
			out = append(out, core.TeacherRoster{TeacherName: row.TeacherName})
			lastID = row.TeacherID
		}
		if row.StudentName.Valid {
			cur := &out[len(out)-1]
			cur.StudentNames = append(cur.StudentNames, row.StudentName.String)
		}
	}
	return out, nil
}

func (r *SQLiteRepository) ListStudentsWithoutTeacher(ctx context.Context) ([]string, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	names, err := r.queries.ListStudentsWithoutTeacher(ctx)
	if err != nil {
		return nil, r.wrap("list unassigned students", err)
	}
	return names, nil
}

func (r *SQLiteRepository) FindItemByName(ctx context.Context, name string) (core.LunchItem, error) {
	if err := r.guard(); err != nil {
		return core.LunchItem{}, err
	}
	row, err := r.queries.GetItemByName(ctx, name)
	if err != nil {
		return core.LunchItem{}, r.wrap(fmt.Sprintf("lunch item %q", name), err)
	}
	return core.LunchItem{ID: row.ID, Name: row.Name}, nil
}

func (r *SQLiteRepository) FindTeacherByName(ctx context.Context, name string) (core.Teacher, error) {
	if err := r.guard(); err != nil {
		return core.Teacher{}, err
	}
	row, err := r.queries.GetTeacherByName(ctx, name)
	if err != nil {
		return core.Teacher{}, r.wrap(fmt.Sprintf("teacher %q", name), err)
	}
	return core.Teacher{ID: row.ID, Name: row.Name}, nil
}

func (r *SQLiteRepository) FindStudentByName(ctx context.Context, name string) (core.Student, error) {
	if err := r.guard(); err != nil {
		return core.Student{}, err
	}
	row, err := r.queries.GetStudentByName(ctx, name)
	if err != nil {
		return core.Student{}, r.wrap(fmt.Sprintf("student %q", name), err)
	}
	return toCoreStudent(row), nil
}

func toCoreStudent(row Student) core.Student {
	st := core.Student{ID: row.ID, Name: row.Name}
	if row.TeacherID.Valid {
		id := row.TeacherID.Int64
		st.TeacherID = &id
	}
	return st
}

func (r *SQLiteRepository) CreateItem(ctx context.Context, name string) (core.LunchItem, error) {
	name, err := core.ValidateName(name)
	if err != nil {
		return core.LunchItem{}, err
	}
	if err := r.guard(); err != nil {
		return core.LunchItem{}, err
	}
	row, err := r.queries.CreateItem(ctx, name)
	if err != nil {
		return core.LunchItem{}, r.wrap(fmt.Sprintf("create lunch item %q", name), err)
	}
	slog.InfoContext(ctx, "Lunch item created", "id", row.ID, "name", row.Name)
	return core.LunchItem{ID: row.ID, Name: row.Name}, nil
}

func (r *SQLiteRepository) CreateTeacher(ctx context.Context, name string) (core.Teacher, error) {
	name, err := core.ValidateName(name)
	if err != nil {
		return core.Teacher{}, err
	}
	if err := r.guard(); err != nil {
		return core.Teacher{}, err
	}
	row, err := r.queries.CreateTeacher(ctx, name)
	if err != nil {
		return core.Teacher{}, r.wrap(fmt.Sprintf("create teacher %q", name), err)
	}
	slog.InfoContext(ctx, "Teacher created", "id", row.ID, "name", row.Name)
	return core.Teacher{ID: row.ID, Name: row.Name}, nil
}

func (r *SQLiteRepository) CreateStudent(ctx context.Context, name string, teacherID *int64) (core.Student, error) {
	name, err := core.ValidateName(name)
	if err != nil {
		return core.Student{}, err
	}
	if err := r.guard(); err != nil {
		return core.Student{}, err
	}
	params := CreateStudentParams{Name: name}
	if teacherID != nil {
		params.TeacherID = sql.NullInt64{Int64: *teacherID, Valid: true}
	}
	row, err := r.queries.CreateStudent(ctx, params)
	if err != nil {
		return core.Student{}, r.wrap(fmt.Sprintf("create student %q", name), err)
	}
	slog.InfoContext(ctx, "Student created", "id", row.ID, "name", row.Name, "teacher_id", row.TeacherID.Int64)
	return toCoreStudent(row), nil
}

func (r *SQLiteRepository) CreateOrder(ctx context.Context, o core.Order) (core.Order, error) {
	if err := o.Validate(); err != nil {
		return core.Order{}, err
	}
	if err := r.guard(); err != nil {
		return core.Order{}, err
	}
	params := CreateOrderParams{LunchItemID: o.ItemID, Quantity: int64(o.Quantity)}
	switch or := o.Orderer.(type) {
	case core.StudentOrderer:
		params.StudentID = sql.NullInt64{Int64: or.StudentID, Valid: true}
	case core.TeacherOrderer:
		params.TeacherID = sql.NullInt64{Int64: or.TeacherID, Valid: true}
	}
	row, err := r.queries.CreateOrder(ctx, params)
	if err != nil {
		return core.Order{}, r.wrap("create order", err)
	}
	o.ID = row.ID
	slog.InfoContext(ctx, "Lunch order saved to SQLite",
		"id", row.ID,
		"item_id", row.LunchItemID,
		"student_id", row.StudentID.Int64,
		"teacher_id", row.TeacherID.Int64,
		"quantity", row.Quantity)
	return o, nil
}
