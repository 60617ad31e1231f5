package core

import (
	"errors"
	"strings"
)

// Unassigned is the group key used for students without a teacher.
const Unassigned = "-"

type (
	// LunchItem is something that can be ordered (pizza, water, cookie...).
	LunchItem struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Teacher struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	// Student belongs to at most one teacher. A nil TeacherID means unassigned.
	Student struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		TeacherID *int64 `json:"teacher_id,omitempty"`
	}

	// Order is a single order row. The same orderer may place several
	// orders for the same item; they are summed when reporting.
	Order struct {
		ID       int64
		Orderer  Orderer
		ItemID   int64
		Quantity int
	}

	// OrderLine is an order joined with its display name and group key.
	OrderLine struct {
		Customer string
		GroupKey string
		Quantity int
	}

	// TeacherRoster lists a teacher with the names of their students.
	TeacherRoster struct {
		TeacherName  string
		StudentNames []string
	}
)

// Orderer is either a StudentOrderer or a TeacherOrderer, never both.
type Orderer interface {
	isOrderer()
}

type StudentOrderer struct {
	StudentID int64
}

type TeacherOrderer struct {
	TeacherID int64
}

func (StudentOrderer) isOrderer() {}
func (TeacherOrderer) isOrderer() {}

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateName      = errors.New("name already exists")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrMissingOrderer     = errors.New("order needs a student or a teacher")
)

// DefaultQuantity is used when an order is placed without a quantity.
const DefaultQuantity = 1

// Validate checks an order before it is written. Reporting never validates.
func (o Order) Validate() error {
	switch or := o.Orderer.(type) {
	case StudentOrderer:
		if or.StudentID <= 0 {
			return ErrMissingOrderer
		}
	case TeacherOrderer:
		if or.TeacherID <= 0 {
			return ErrMissingOrderer
		}
	default:
		return ErrMissingOrderer
	}
	if o.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// ValidateName trims a display name and rejects blank or overlong values.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > 255 {
		return "", errors.New("name too long (max 255 characters)")
	}
	return name, nil
}
