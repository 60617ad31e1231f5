package http

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"lunchreports/internal/core"
	"lunchreports/internal/log"
)

type orderResponse struct {
	ID       int64  `json:"id"`
	Item     string `json:"item"`
	Customer string `json:"customer"`
	Quantity int    `json:"quantity"`
}

// handleCreateOrder places an order from a form or JSON body. HTMX gets a
// fragment, JSON clients get 201 and plain forms are redirected home.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Order body rejected", log.FieldError, err.Error())
		BadRequestError("Invalid request format").Write(w)
		return
	}
	req, err := ParseOrderRequest(parser)
	if err != nil {
		s.orderFailed(w, r, err)
		return
	}

	order, err := s.orders.PlaceOrder(ctx, req)
	if err != nil {
		s.orderFailed(w, r, err)
		return
	}

	s.appMetrics.ordersCreated.Add(1)
	s.invalidateReports()

	customer := req.Student
	if customer == "" {
		customer = req.Teacher
	}

	switch {
	case parser.IsJSON():
		NewHTMXResponse().
			Status(http.StatusCreated).
			BodyJSON(orderResponse{ID: order.ID, Item: req.Item, Customer: customer, Quantity: order.Quantity}).
			Write(w)
	case isHTMX(r):
		NewHTMXResponse().
			TriggerOrderCreated(req.Item, customer, order.Quantity).
			TriggerFormReset().
			TriggerSuccessNotification("Order saved").
			BodyHTML(fmt.Sprintf(`<div class="success">Ordered %d x %s for %s (#%d)</div>`,
				order.Quantity,
				template.HTMLEscapeString(req.Item),
				template.HTMLEscapeString(customer),
				order.ID)).
			Write(w)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// invalidateReports drops every cached rendering; any order can change
// any report.
func (s *Server) invalidateReports() {
	s.cacheGen.Add(1)
	if n := s.reportCache.Purge(); n > 0 {
		s.logger.Debug("Report cache purged", "entries_removed", n)
	}
}

func (s *Server) orderFailed(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.events.LogError(r.Context(), "Order creation failed", err, log.ComponentOrder, log.OpCreate, log.NewFields())
	} else {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Order rejected",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeOf(err))
	}
	msg := userMessage(status)
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}

// handleQueueExport asks the worker to export a report to the spreadsheet.
func (s *Server) handleQueueExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	if s.publisher == nil {
		ErrorResponse(http.StatusServiceUnavailable, "Exports are not configured").Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	kind := core.ReportKind(strings.ToLower(parser.Get("kind")))
	if kind == "" {
		kind = core.KindSingleItem
	}
	if !kind.Valid() {
		BadRequestError(fmt.Sprintf("unknown report kind %q", kind)).Write(w)
		return
	}
	items := core.ParseItemNames(parser.GetAll("lunch_items"))

	if err := s.publisher.PublishReportExport(ctx, kind, items); err != nil {
		s.events.LogError(ctx, "Export publish failed", err, log.ComponentAMQP, log.OpExport,
			log.NewFields().WithReport(string(kind), items))
		ErrorResponse(http.StatusServiceUnavailable, "Export queue is unavailable").Write(w)
		return
	}
	s.appMetrics.exportsQueued.Add(1)
	log.FromContext(ctx).InfoContext(ctx, "Report export queued",
		log.NewFields().WithReport(string(kind), items).ToSlice()...)

	switch {
	case parser.IsJSON():
		NewHTMXResponse().
			Status(http.StatusAccepted).
			BodyJSON(map[string]interface{}{"status": "queued", "kind": kind, "items": items}).
			Write(w)
	case isHTMX(r):
		NewHTMXResponse().
			Status(http.StatusAccepted).
			TriggerExportQueued(kind, items).
			TriggerSuccessNotification("Export queued").
			BodyHTML(`<div class="success">Export queued</div>`).
			Write(w)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
