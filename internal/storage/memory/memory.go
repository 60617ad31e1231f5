package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"lunchreports/internal/core"
	"lunchreports/internal/ports"
	"lunchreports/internal/seed"
)

var _ ports.Store = (*Store)(nil)

// Store keeps the whole school in memory. Natural order is creation order.
type Store struct {
	mu       sync.Mutex
	items    []core.LunchItem
	teachers []core.Teacher
	students []core.Student
	orders   []core.Order
	lastID   int64
	closed   bool
}

func New() *Store {
	return &Store{}
}

// NewFromFile returns a store seeded from a YAML seed file. A missing file
// yields an empty store.
func NewFromFile(ctx context.Context, path string) (*Store, error) {
	s := New()
	f, err := seed.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if err := seed.Apply(ctx, s, f); err != nil {
		return nil, fmt.Errorf("apply seed %s: %w", path, err)
	}
	return s, nil
}

// Close makes every later call fail with core.ErrStorageUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkOpen()
}

func (s *Store) checkOpen() error {
	if s.closed {
		return core.ErrStorageUnavailable
	}
	return nil
}

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *Store) FindItemsByName(_ context.Context, names []string) ([]core.LunchItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var out []core.LunchItem
	for _, item := range s.items {
		if slices.Contains(names, item.Name) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Store) ListItems(_ context.Context) ([]core.LunchItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return slices.Clone(s.items), nil
}

func (s *Store) SumQuantityForItem(_ context.Context, itemID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	total := 0
	for _, o := range s.orders {
		if o.ItemID == itemID {
			total += o.Quantity
		}
	}
	return total, nil
}

func (s *Store) ListOrdersForItem(_ context.Context, itemID int64) ([]core.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var lines []core.OrderLine
	for _, o := range s.orders {
		if o.ItemID != itemID {
			continue
		}
		line := core.OrderLine{Quantity: o.Quantity}
		switch or := o.Orderer.(type) {
		case core.StudentOrderer:
			st, _ := s.student(or.StudentID)
			line.Customer = st.Name
			line.GroupKey = core.Unassigned
			if st.TeacherID != nil {
				if t, ok := s.teacher(*st.TeacherID); ok {
					line.GroupKey = t.Name
				}
			}
		case core.TeacherOrderer:
			t, _ := s.teacher(or.TeacherID)
			line.Customer = t.Name
			line.GroupKey = t.Name
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Store) ListTeachersWithStudents(_ context.Context) ([]core.TeacherRoster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]core.TeacherRoster, 0, len(s.teachers))
	for _, t := range s.teachers {
		r := core.TeacherRoster{TeacherName: t.Name}
		for _, st := range s.students {
			if st.TeacherID != nil && *st.TeacherID == t.ID {
				r.StudentNames = append(r.StudentNames, st.Name)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) ListStudentsWithoutTeacher(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var out []string
	for _, st := range s.students {
		if st.TeacherID == nil {
			out = append(out, st.Name)
		}
	}
	return out, nil
}

func (s *Store) FindItemByName(_ context.Context, name string) (core.LunchItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return core.LunchItem{}, err
	}
	for _, item := range s.items {
		if item.Name == name {
			return item, nil
		}
	}
	return core.LunchItem{}, fmt.Errorf("lunch item %q: %w", name, core.ErrNotFound)
}

func (s *Store) FindTeacherByName(_ context.Context, name string) (core.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return core.Teacher{}, err
	}
	if t, ok := s.teacherByName(name); ok {
		return t, nil
	}
	return core.Teacher{}, fmt.Errorf("teacher %q: %w", name, core.ErrNotFound)
}

func (s *Store) FindStudentByName(_ context.Context, name string) (core.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return core.Student{}, err
	}
	if st, ok := s.studentByName(name); ok {
		return st, nil
	}
	return core.Student{}, fmt.Errorf("student %q: %w", name, core.ErrNotFound)
}

func (s *Store) CreateItem(_ context.Context, name string) (core.LunchItem, error) {
	name, err := core.ValidateName(name)
	if err != nil {
		return core.LunchItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return core.LunchItem{}, err
	}
	for _, item := range s.items {
		if item.Name == name {
			return core.LunchItem{}, fmt.Errorf("lunch item %q: %w", name, core.ErrDuplicateName)
		}
	}
	item := core.LunchItem{ID: s.nextID(), Name: name}
	s.items = append(s.items, item)
	return item, nil
}

func (s *Store) CreateTeacher(_ context.Context, name string) (core.Teacher, error) {
	name, err := core.ValidateName(name)
	if err != nil {
		return core.Teacher{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return core.Teacher{}, err
	}
	if _, ok := s.teacherByName(name); ok {
		return core.Teacher{}, fmt.Errorf("teacher %q: %w", name, core.ErrDuplicateName)
	}
	t := core.Teacher{ID: s.nextID(), Name: name}
	s.teachers = append(s.teachers, t)
	return t, nil
}

func (s *Store) CreateStudent(_ context.Context, name string, teacherID *int64) (core.Student, error) {
	name, err := core.ValidateName(name)
	if err != nil {
		return core.Student{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return core.Student{}, err
	}
	if _, ok := s.studentByName(name); ok {
		return core.Student{}, fmt.Errorf("student %q: %w", name, core.ErrDuplicateName)
	}
	st := core.Student{ID: s.nextID(), Name: name}
	if teacherID != nil {
		if _, ok := s.teacher(*teacherID); !ok {
			return core.Student{}, fmt.Errorf("teacher %d: %w", *teacherID, core.ErrNotFound)
		}
		id := *teacherID
		st.TeacherID = &id
	}
	s.students = append(s.students, st)
	return st, nil
}

func (s *Store) CreateOrder(_ context.Context, o core.Order) (core.Order, error) {
	if err := o.Validate(); err != nil {
		return core.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return core.Order{}, err
	}
	if !slices.ContainsFunc(s.items, func(item core.LunchItem) bool { return item.ID == o.ItemID }) {
		return core.Order{}, fmt.Errorf("lunch item %d: %w", o.ItemID, core.ErrNotFound)
	}
	switch or := o.Orderer.(type) {
	case core.StudentOrderer:
		if _, ok := s.student(or.StudentID); !ok {
			return core.Order{}, fmt.Errorf("student %d: %w", or.StudentID, core.ErrNotFound)
		}
	case core.TeacherOrderer:
		if _, ok := s.teacher(or.TeacherID); !ok {
			return core.Order{}, fmt.Errorf("teacher %d: %w", or.TeacherID, core.ErrNotFound)
		}
	}
	o.ID = s.nextID()
	s.orders = append(s.orders, o)
	return o, nil
}

func (s *Store) student(id int64) (core.Student, bool) {
	for _, st := range s.students {
		if st.ID == id {
			return st, true
		}
	}
	return core.Student{}, false
}

func (s *Store) teacher(id int64) (core.Teacher, bool) {
	for _, t := range s.teachers {
		if t.ID == id {
			return t, true
		}
	}
	return core.Teacher{}, false
}

func (s *Store) studentByName(name string) (core.Student, bool) {
	for _, st := range s.students {
		if st.Name == name {
			return st, true
		}
	}
	return core.Student{}, false
}

func (s *Store) teacherByName(name string) (core.Teacher, bool) {
	for _, t := range s.teachers {
		if t.Name == name {
			return t, true
		}
	}
	return core.Teacher{}, false
}
