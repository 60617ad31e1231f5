package services

import (
	"context"
	"fmt"
	"strings"

	"lunchreports/internal/core"
	"lunchreports/internal/log"
	"lunchreports/internal/ports"
)

// OrderRequest names the item and exactly one of Student or Teacher.
// A zero Quantity means core.DefaultQuantity.
type OrderRequest struct {
	Item     string
	Student  string
	Teacher  string
	Quantity int
}

type orderStore interface {
	ports.Directory
	ports.CatalogWriter
}

// OrderService places lunch orders by display name.
type OrderService struct {
	store  orderStore
	events *log.StructuredLogger
}

func NewOrderService(store orderStore, logger *log.Logger) *OrderService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &OrderService{
		store:  store,
		events: log.NewStructuredLogger(logger.WithComponent(log.ComponentOrder)),
	}
}

func (s *OrderService) PlaceOrder(ctx context.Context, req OrderRequest) (core.Order, error) {
	studentName := strings.TrimSpace(req.Student)
	teacherName := strings.TrimSpace(req.Teacher)
	if (studentName == "") == (teacherName == "") {
		return core.Order{}, core.ErrMissingOrderer
	}
	qty := req.Quantity
	if qty == 0 {
		qty = core.DefaultQuantity
	}
	if qty < 1 {
		return core.Order{}, core.ErrInvalidQuantity
	}

	item, err := s.store.FindItemByName(ctx, strings.TrimSpace(req.Item))
	if err != nil {
		return core.Order{}, fmt.Errorf("find item: %w", err)
	}

	order := core.Order{ItemID: item.ID, Quantity: qty}
	customer := studentName
	if studentName != "" {
		st, err := s.store.FindStudentByName(ctx, studentName)
		if err != nil {
			return core.Order{}, fmt.Errorf("find student: %w", err)
		}
		order.Orderer = core.StudentOrderer{StudentID: st.ID}
	} else {
		t, err := s.store.FindTeacherByName(ctx, teacherName)
		if err != nil {
			return core.Order{}, fmt.Errorf("find teacher: %w", err)
		}
		order.Orderer = core.TeacherOrderer{TeacherID: t.ID}
		customer = teacherName
	}

	created, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		s.events.LogError(ctx, "Failed to create lunch order", err, log.ComponentOrder, log.OpCreate,
			log.NewFields().WithOrder(item.Name, customer, qty))
		return core.Order{}, fmt.Errorf("create order: %w", err)
	}
	s.events.LogOrderCreated(ctx, item.Name, customer, qty)
	return created, nil
}
