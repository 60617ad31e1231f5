package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type (
	LunchItem struct {
		ID   int64
		Name string
	}

	Teacher struct {
		ID   int64
		Name string
	}

	Student struct {
		ID        int64
		Name      string
		TeacherID sql.NullInt64
	}

	LunchItemOrder struct {
		ID          int64
		LunchItemID int64
		StudentID   sql.NullInt64
		TeacherID   sql.NullInt64
		Quantity    int64
	}

	OrderLineRow struct {
		Customer string
		GroupKey string
		Quantity int64
	}

	TeacherStudentRow struct {
		TeacherID   int64
		TeacherName string
		StudentName sql.NullString
	}

	CreateStudentParams struct {
		Name      string
		TeacherID sql.NullInt64
	}

	CreateOrderParams struct {
		LunchItemID int64
		StudentID   sql.NullInt64
		TeacherID   sql.NullInt64
		Quantity    int64
	}
)

const listItems = `SELECT id, name FROM lunch_items ORDER BY id`

func (q *Queries) ListItems(ctx context.Context) ([]LunchItem, error) {
	return q.queryItems(ctx, listItems)
}

const getItemsByNames = `SELECT id, name FROM lunch_items WHERE name IN (/*SLICE:names*/?) ORDER BY id`

func (q *Queries) GetItemsByNames(ctx context.Context, names []string) ([]LunchItem, error) {
	if len(names) == 0 {
		return []LunchItem{}, nil
	}
	query := strings.Replace(getItemsByNames, "/*SLICE:names*/?", strings.Repeat(",?", len(names))[1:], 1)
	args := make([]interface{}, len(names))
	for i, n := range names {
		args[i] = n
	}
	return q.queryItems(ctx, query, args...)
}

func (q *Queries) queryItems(ctx context.Context, query string, args ...interface{}) ([]LunchItem, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LunchItem{}
	for rows.Next() {
		var i LunchItem
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getItemByName = `SELECT id, name FROM lunch_items WHERE name = ?`

func (q *Queries) GetItemByName(ctx context.Context, name string) (LunchItem, error) {
	var i LunchItem
	err := q.db.QueryRowContext(ctx, getItemByName, name).Scan(&i.ID, &i.Name)
	return i, err
}

const getTeacherByName = `SELECT id, name FROM teachers WHERE name = ?`

func (q *Queries) GetTeacherByName(ctx context.Context, name string) (Teacher, error) {
	var t Teacher
	err := q.db.QueryRowContext(ctx, getTeacherByName, name).Scan(&t.ID, &t.Name)
	return t, err
}

const getStudentByName = `SELECT id, name, teacher_id FROM students WHERE name = ?`

func (q *Queries) GetStudentByName(ctx context.Context, name string) (Student, error) {
	var s Student
	err := q.db.QueryRowContext(ctx, getStudentByName, name).Scan(&s.ID, &s.Name, &s.TeacherID)
	return s, err
}

const sumQuantityForItem = `SELECT COALESCE(SUM(quantity), 0) FROM lunch_item_orders WHERE lunch_item_id = ?`

func (q *Queries) SumQuantityForItem(ctx context.Context, itemID int64) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, sumQuantityForItem, itemID).Scan(&total)
	return total, err
}

// A student order is filed under the student's teacher, or '-' when the
// student has none. A teacher order is filed under the teacher.
const listOrderLinesForItem = `
SELECT
    COALESCE(s.name, t.name) AS customer,
    CASE WHEN o.student_id IS NOT NULL THEN COALESCE(st.name, '-') ELSE t.name END AS group_key,
    o.quantity
FROM lunch_item_orders o
LEFT JOIN students s  ON s.id = o.student_id
LEFT JOIN teachers st ON st.id = s.teacher_id
LEFT JOIN teachers t  ON t.id = o.teacher_id
WHERE o.lunch_item_id = ?
ORDER BY o.id`

func (q *Queries) ListOrderLinesForItem(ctx context.Context, itemID int64) ([]OrderLineRow, error) {
	rows, err := q.db.QueryContext(ctx, listOrderLinesForItem, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []OrderLineRow{}
	for rows.Next() {
		var l OrderLineRow
		if err := rows.Scan(&l.Customer, &l.GroupKey, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

const listTeachersWithStudents = `
SELECT t.id, t.name, s.name
FROM teachers t
LEFT JOIN students s ON s.teacher_id = t.id
ORDER BY t.id, s.id`

func (q *Queries) ListTeachersWithStudents(ctx context.Context) ([]TeacherStudentRow, error) {
	rows, err := q.db.QueryContext(ctx, listTeachersWithStudents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TeacherStudentRow{}
	for rows.Next() {
		var r TeacherStudentRow
		if err := rows.Scan(&r.TeacherID, &r.TeacherName, &r.StudentName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const listStudentsWithoutTeacher = `SELECT name FROM students WHERE teacher_id IS NULL ORDER BY id`

func (q *Queries) ListStudentsWithoutTeacher(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listStudentsWithoutTeacher)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

const createItem = `INSERT INTO lunch_items (name) VALUES (?) RETURNING id, name`

func (q *Queries) CreateItem(ctx context.Context, name string) (LunchItem, error) {
	var i LunchItem
	err := q.db.QueryRowContext(ctx, createItem, name).Scan(&i.ID, &i.Name)
	return i, err
}

const createTeacher = `INSERT INTO teachers (name) VALUES (?) RETURNING id, name`

func (q *Queries) CreateTeacher(ctx context.Context, name string) (Teacher, error) {
	var t Teacher
	err := q.db.QueryRowContext(ctx, createTeacher, name).Scan(&t.ID, &t.Name)
	return t, err
}

const createStudent = `INSERT INTO students (name, teacher_id) VALUES (?, ?) RETURNING id, name, teacher_id`

func (q *Queries) CreateStudent(ctx context.Context, arg CreateStudentParams) (Student, error) {
	var s Student
	err := q.db.QueryRowContext(ctx, createStudent, arg.Name, arg.TeacherID).Scan(&s.ID, &s.Name, &s.TeacherID)
	return s, err
}

const createOrder = `
INSERT INTO lunch_item_orders (lunch_item_id, student_id, teacher_id, quantity)
VALUES (?, ?, ?, ?)
RETURNING id, lunch_item_id, student_id, teacher_id, quantity`

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (LunchItemOrder, error) {
	var o LunchItemOrder
	err := q.db.QueryRowContext(ctx, createOrder, arg.LunchItemID, arg.StudentID, arg.TeacherID, arg.Quantity).
		Scan(&o.ID, &o.LunchItemID, &o.StudentID, &o.TeacherID, &o.Quantity)
	return o, err
}
