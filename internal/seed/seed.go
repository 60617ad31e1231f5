// Package seed loads school rosters and lunch orders from YAML files.
//
// A seed file looks like:
//
//	items: [Pizza, Water]
//	teachers:
//	  - name: Ms. Lee
//	    students: [Ann, Bo]
//	students: [Cy]          # students without a teacher
//	orders:
//	  - {item: Pizza, student: Ann, quantity: 2}
//	  - {item: Pizza, teacher: Ms. Lee}
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"lunchreports/internal/core"
	"lunchreports/internal/ports"
)

type (
	File struct {
		Items    []string       `yaml:"items"`
		Teachers []TeacherEntry `yaml:"teachers"`
		Students []string       `yaml:"students"`
		Orders   []OrderEntry   `yaml:"orders"`
	}

	TeacherEntry struct {
		Name     string   `yaml:"name"`
		Students []string `yaml:"students"`
	}

	// OrderEntry names exactly one of Student or Teacher. A zero Quantity
	// means core.DefaultQuantity.
	OrderEntry struct {
		Item     string `yaml:"item"`
		Student  string `yaml:"student,omitempty"`
		Teacher  string `yaml:"teacher,omitempty"`
		Quantity int    `yaml:"quantity,omitempty"`
	}

	// Target is what a seed file is applied to.
	Target interface {
		ports.CatalogWriter
		ports.Directory
	}
)

// Load reads and validates a seed file. A missing file returns an error
// wrapping os.ErrNotExist.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks names are present and unique. Teachers and students share
// one namespace because orders refer to people by name.
func (f *File) Validate() error {
	var errs []error

	items := map[string]bool{}
	for _, name := range f.Items {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			errs = append(errs, errors.New("item with empty name"))
		case items[name]:
			errs = append(errs, fmt.Errorf("item %q listed twice", name))
		}
		items[name] = true
	}

	people := map[string]bool{}
	addPerson := func(kind, name string) {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("%s with empty name", kind))
		case people[name]:
			errs = append(errs, fmt.Errorf("%s %q: name used twice", kind, name))
		}
		people[name] = true
	}
	for _, t := range f.Teachers {
		addPerson("teacher", t.Name)
		for _, s := range t.Students {
			addPerson("student", s)
		}
	}
	for _, s := range f.Students {
		addPerson("student", s)
	}

	for i, o := range f.Orders {
		if strings.TrimSpace(o.Item) == "" {
			errs = append(errs, fmt.Errorf("order %d: missing item", i+1))
		}
		hasStudent := strings.TrimSpace(o.Student) != ""
		hasTeacher := strings.TrimSpace(o.Teacher) != ""
		if hasStudent == hasTeacher {
			errs = append(errs, fmt.Errorf("order %d: exactly one of student or teacher is required", i+1))
		}
		if o.Quantity < 0 {
			errs = append(errs, fmt.Errorf("order %d: %w", i+1, core.ErrInvalidQuantity))
		}
	}

	return errors.Join(errs...)
}

// Apply creates the file's items, teachers, students and orders in order.
// Orders may also refer to entities that already exist in the target.
func Apply(ctx context.Context, target Target, f *File) error {
	items := map[string]int64{}
	teachers := map[string]int64{}
	students := map[string]int64{}

	for _, name := range f.Items {
		item, err := target.CreateItem(ctx, name)
		if err != nil {
			return fmt.Errorf("create item %q: %w", name, err)
		}
		items[item.Name] = item.ID
	}

	for _, entry := range f.Teachers {
		t, err := target.CreateTeacher(ctx, entry.Name)
		if err != nil {
			return fmt.Errorf("create teacher %q: %w", entry.Name, err)
		}
		teachers[t.Name] = t.ID
		for _, name := range entry.Students {
			teacherID := t.ID
			st, err := target.CreateStudent(ctx, name, &teacherID)
			if err != nil {
				return fmt.Errorf("create student %q: %w", name, err)
			}
			students[st.Name] = st.ID
		}
	}

	for _, name := range f.Students {
		st, err := target.CreateStudent(ctx, name, nil)
		if err != nil {
			return fmt.Errorf("create student %q: %w", name, err)
		}
		students[st.Name] = st.ID
	}

	for i, entry := range f.Orders {
		order, err := resolveOrder(ctx, target, entry, items, teachers, students)
		if err != nil {
			return fmt.Errorf("order %d: %w", i+1, err)
		}
		if _, err := target.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("order %d: %w", i+1, err)
		}
	}
	return nil
}

func resolveOrder(ctx context.Context, dir ports.Directory, entry OrderEntry, items, teachers, students map[string]int64) (core.Order, error) {
	order := core.Order{Quantity: entry.Quantity}
	if order.Quantity == 0 {
		order.Quantity = core.DefaultQuantity
	}

	itemName := strings.TrimSpace(entry.Item)
	if id, ok := items[itemName]; ok {
		order.ItemID = id
	} else {
		item, err := dir.FindItemByName(ctx, itemName)
		if err != nil {
			return core.Order{}, err
		}
		order.ItemID = item.ID
	}

	if name := strings.TrimSpace(entry.Student); name != "" {
		id, ok := students[name]
		if !ok {
			st, err := dir.FindStudentByName(ctx, name)
			if err != nil {
				return core.Order{}, err
			}
			id = st.ID
		}
		order.Orderer = core.StudentOrderer{StudentID: id}
		return order, nil
	}

	name := strings.TrimSpace(entry.Teacher)
	id, ok := teachers[name]
	if !ok {
		t, err := dir.FindTeacherByName(ctx, name)
		if err != nil {
			return core.Order{}, err
		}
		id = t.ID
	}
	order.Orderer = core.TeacherOrderer{TeacherID: id}
	return order, nil
}
