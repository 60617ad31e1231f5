package services

import (
	"context"
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"lunchreports/internal/core"
	"lunchreports/internal/log"
	"lunchreports/internal/ports"
	"lunchreports/internal/render"
)

// ReportService builds lunch order reports from a read-only store. Every
// build is all-or-nothing: the first failed read aborts it.
type ReportService struct {
	reader ports.ReportReader
	logger *log.Logger
}

func NewReportService(reader ports.ReportReader, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReportService{
		reader: reader,
		logger: logger.WithComponent(log.ComponentReport),
	}
}

// SelectItems returns the items whose name is in names, falling back to
// every item when nothing was requested or nothing matched.
func (s *ReportService) SelectItems(ctx context.Context, names []string) ([]core.LunchItem, error) {
	if len(names) > 0 {
		items, err := s.reader.FindItemsByName(ctx, names)
		if err != nil {
			return nil, fmt.Errorf("find items: %w", err)
		}
		if len(items) > 0 {
			return items, nil
		}
		s.logger.DebugContext(ctx, "No requested item matched, using all items", log.FieldItems, names)
	}
	items, err := s.reader.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ListItems returns every orderable item.
func (s *ReportService) ListItems(ctx context.Context) ([]core.LunchItem, error) {
	items, err := s.reader.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// TotalQuantities maps each item name to its total ordered quantity.
func (s *ReportService) TotalQuantities(ctx context.Context, items []core.LunchItem) (*core.Quantities, error) {
	totals := core.NewQuantities()
	for _, item := range items {
		total, err := s.reader.SumQuantityForItem(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("total for %q: %w", item.Name, err)
		}
		totals.Set(item.Name, total)
	}
	return totals, nil
}

// GroupedOrders maps each item name to its orders grouped by teacher.
func (s *ReportService) GroupedOrders(ctx context.Context, items []core.LunchItem) (*orderedmap.OrderedMap[string, *core.Grouping], error) {
	grouped := orderedmap.New[string, *core.Grouping]()
	for _, item := range items {
		lines, err := s.reader.ListOrdersForItem(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("orders for %q: %w", item.Name, err)
		}
		grouped.Set(item.Name, core.GroupOrders(lines))
	}
	return grouped, nil
}

// Roster maps every teacher to their students plus themselves, with
// unassigned students under "-".
func (s *ReportService) Roster(ctx context.Context) (*core.Roster, error) {
	teachers, err := s.reader.ListTeachersWithStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	unassigned, err := s.reader.ListStudentsWithoutTeacher(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unassigned students: %w", err)
	}
	return core.BuildRoster(teachers, unassigned), nil
}

func (s *ReportService) BuildSingleItemReport(ctx context.Context, names []string) (*core.SingleItemReport, error) {
	start := time.Now()
	report, err := s.buildSingleItemReport(ctx, names)
	if err != nil {
		s.logFailure(ctx, core.KindSingleItem, names, err)
		return nil, err
	}
	s.logBuilt(ctx, core.KindSingleItem, report.Items, start)
	return report, nil
}

func (s *ReportService) buildSingleItemReport(ctx context.Context, names []string) (*core.SingleItemReport, error) {
	items, err := s.SelectItems(ctx, names)
	if err != nil {
		return nil, err
	}
	totals, err := s.TotalQuantities(ctx, items)
	if err != nil {
		return nil, err
	}
	grouped, err := s.GroupedOrders(ctx, items)
	if err != nil {
		return nil, err
	}
	return &core.SingleItemReport{Items: items, Totals: totals, GroupedOrders: grouped}, nil
}

func (s *ReportService) BuildCombinedReport(ctx context.Context, names []string) (*core.CombinedReport, error) {
	start := time.Now()
	single, err := s.buildSingleItemReport(ctx, names)
	if err != nil {
		s.logFailure(ctx, core.KindCombined, names, err)
		return nil, err
	}
	roster, err := s.Roster(ctx)
	if err != nil {
		s.logFailure(ctx, core.KindCombined, names, err)
		return nil, err
	}
	s.logBuilt(ctx, core.KindCombined, single.Items, start)
	return &core.CombinedReport{
		SingleItemReport: *single,
		Title:            core.ReportTitle(single.Items),
		Roster:           roster,
	}, nil
}

func (s *ReportService) logBuilt(ctx context.Context, kind core.ReportKind, items []core.LunchItem, start time.Time) {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	log.NewStructuredLogger(s.logger).LogReportBuilt(ctx, string(kind), names, time.Since(start).Milliseconds())
}

func (s *ReportService) logFailure(ctx context.Context, kind core.ReportKind, names []string, err error) {
	s.logger.ErrorContext(ctx, "Report build failed",
		log.NewFields().
			WithReport(string(kind), names).
			WithOperation(log.OpBuild).
			WithError(err).
			ToSlice()...)
}

// Tables builds the report of the given kind and lays it out for
// rendering. The heading is the combined report title, or the attachment
// name for single-item reports.
func (s *ReportService) Tables(ctx context.Context, kind core.ReportKind, names []string) (string, []render.Table, error) {
	switch kind {
	case core.KindSingleItem:
		report, err := s.BuildSingleItemReport(ctx, names)
		if err != nil {
			return "", nil, err
		}
		return kind.AttachmentName(), render.ItemTables(report), nil
	case core.KindCombined:
		report, err := s.BuildCombinedReport(ctx, names)
		if err != nil {
			return "", nil, err
		}
		return report.Title, []render.Table{render.CombinedTable(report)}, nil
	default:
		return "", nil, fmt.Errorf("unknown report kind %q", kind)
	}
}
