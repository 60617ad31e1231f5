package core

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Report mappings keep insertion order; renderers iterate them as built.
type (
	// Quantities maps a name (item or customer) to a quantity.
	Quantities = orderedmap.OrderedMap[string, int]

	// Grouping maps a group key (teacher name or "-") to its orders.
	Grouping = orderedmap.OrderedMap[string, *OrderGroup]

	// Roster maps a teacher name (or "-") to the names filed under it.
	Roster = orderedmap.OrderedMap[string, []string]

	OrderGroup struct {
		GroupQuantity int         `json:"group_quantity"`
		Customers     *Quantities `json:"customers"`
	}

	SingleItemReport struct {
		Items         []LunchItem                               `json:"items"`
		Totals        *Quantities                               `json:"totals"`
		GroupedOrders *orderedmap.OrderedMap[string, *Grouping] `json:"grouped_orders"`
	}

	CombinedReport struct {
		SingleItemReport
		Title  string  `json:"title"`
		Roster *Roster `json:"roster"`
	}

	// Entry is a key/value pair read out of an ordered mapping.
	Entry[V any] struct {
		Key   string
		Value V
	}
)

func NewQuantities() *Quantities {
	return orderedmap.New[string, int]()
}

func NewGrouping() *Grouping {
	return orderedmap.New[string, *OrderGroup]()
}

func NewRoster() *Roster {
	return orderedmap.New[string, []string]()
}

// NewSingleItemReport returns an empty report for items.
func NewSingleItemReport(items []LunchItem) *SingleItemReport {
	return &SingleItemReport{
		Items:         items,
		Totals:        NewQuantities(),
		GroupedOrders: orderedmap.New[string, *Grouping](),
	}
}

// Entries copies an ordered mapping into a slice, oldest key first.
func Entries[V any](m *orderedmap.OrderedMap[string, V]) []Entry[V] {
	if m == nil {
		return nil
	}
	out := make([]Entry[V], 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Entry[V]{Key: pair.Key, Value: pair.Value})
	}
	return out
}

// Keys returns the keys of an ordered mapping, oldest first.
func Keys[V any](m *orderedmap.OrderedMap[string, V]) []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// GroupOrders files order lines under their group key, summing quantities
// per group and per customer. Groups and customers keep first-seen order,
// except the unassigned group which always comes last.
func GroupOrders(lines []OrderLine) *Grouping {
	groups := NewGrouping()
	for _, line := range lines {
		group, ok := groups.Get(line.GroupKey)
		if !ok {
			group = &OrderGroup{Customers: NewQuantities()}
			groups.Set(line.GroupKey, group)
		}
		group.GroupQuantity += line.Quantity
		prev, _ := group.Customers.Get(line.Customer)
		group.Customers.Set(line.Customer, prev+line.Quantity)
	}
	if _, ok := groups.Get(Unassigned); ok {
		_ = groups.MoveToBack(Unassigned)
	}
	return groups
}

// BuildRoster maps every teacher to their students followed by the
// teacher's own name, then adds the unassigned students under "-".
func BuildRoster(teachers []TeacherRoster, unassigned []string) *Roster {
	roster := NewRoster()
	for _, t := range teachers {
		names := make([]string, 0, len(t.StudentNames)+1)
		names = append(names, t.StudentNames...)
		names = append(names, t.TeacherName)
		roster.Set(t.TeacherName, names)
	}
	// Set on an existing key keeps its position, so delete first.
	roster.Delete(Unassigned)
	roster.Set(Unassigned, append([]string{}, unassigned...))
	return roster
}

// ReportTitle joins item names into the combined report heading.
func ReportTitle(items []LunchItem) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return strings.Join(names, ", ") + " Report"
}

// ParseItemNames flattens request values where each value may itself be a
// comma-separated list. Blank names are dropped.
func ParseItemNames(values []string) []string {
	var names []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// Total returns the aggregate quantity for an item, 0 if unknown.
func (r *SingleItemReport) Total(item string) int {
	if r == nil || r.Totals == nil {
		return 0
	}
	total, _ := r.Totals.Get(item)
	return total
}

// Groups returns the grouping for an item, or nil.
func (r *SingleItemReport) Groups(item string) *Grouping {
	if r == nil || r.GroupedOrders == nil {
		return nil
	}
	g, _ := r.GroupedOrders.Get(item)
	return g
}

// GroupQuantity returns the quantity ordered for item within group.
func (r *SingleItemReport) GroupQuantity(item, group string) int {
	groups := r.Groups(item)
	if groups == nil {
		return 0
	}
	g, ok := groups.Get(group)
	if !ok {
		return 0
	}
	return g.GroupQuantity
}

// QuantityFor returns what customer ordered of item, filed under group.
func (r *SingleItemReport) QuantityFor(item, group, customer string) int {
	groups := r.Groups(item)
	if groups == nil {
		return 0
	}
	g, ok := groups.Get(group)
	if !ok {
		return 0
	}
	qty, _ := g.Customers.Get(customer)
	return qty
}

// ReportKind names one of the two report shapes.
type ReportKind string

const (
	KindSingleItem ReportKind = "item"
	KindCombined   ReportKind = "combined"
)

func (k ReportKind) Valid() bool {
	return k == KindSingleItem || k == KindCombined
}

// AttachmentName is the file name offered for a rendered report.
func (k ReportKind) AttachmentName() string {
	if k == KindCombined {
		return "Combined Lunch Order Report"
	}
	return "Lunch Order Report by Item"
}
