package ports

import (
	"context"

	"lunchreports/internal/core"
)

// Ports for outbound adapters.
type (
	// ItemReader resolves orderable lunch items. Both methods return items
	// in the store's natural order.
	ItemReader interface {
		FindItemsByName(ctx context.Context, names []string) ([]core.LunchItem, error)
		ListItems(ctx context.Context) ([]core.LunchItem, error)
	}

	// OrderReader aggregates the orders placed for one item.
	OrderReader interface {
		// SumQuantityForItem returns 0 when the item has no orders.
		SumQuantityForItem(ctx context.Context, itemID int64) (int, error)
		// ListOrdersForItem returns one line per order row, oldest first.
		ListOrdersForItem(ctx context.Context, itemID int64) ([]core.OrderLine, error)
	}

	RosterReader interface {
		ListTeachersWithStudents(ctx context.Context) ([]core.TeacherRoster, error)
		ListStudentsWithoutTeacher(ctx context.Context) ([]string, error)
	}

	ReportReader interface {
		ItemReader
		OrderReader
		RosterReader
	}

	// Directory looks entities up by their display name.
	Directory interface {
		FindItemByName(ctx context.Context, name string) (core.LunchItem, error)
		FindTeacherByName(ctx context.Context, name string) (core.Teacher, error)
		FindStudentByName(ctx context.Context, name string) (core.Student, error)
	}

	CatalogWriter interface {
		CreateItem(ctx context.Context, name string) (core.LunchItem, error)
		CreateTeacher(ctx context.Context, name string) (core.Teacher, error)
		CreateStudent(ctx context.Context, name string, teacherID *int64) (core.Student, error)
		CreateOrder(ctx context.Context, o core.Order) (core.Order, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Store is everything a backend provides.
	Store interface {
		ReportReader
		Directory
		CatalogWriter
		Pinger
	}

	// ExportPublisher queues a report export for the worker.
	ExportPublisher interface {
		PublishReportExport(ctx context.Context, kind core.ReportKind, items []string) error
	}
)
