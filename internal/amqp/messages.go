package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"lunchreports/internal/core"
)

// ReportExportMessage asks the worker to build a report and export it.
// Empty Items means every item, like an unfiltered report request.
type ReportExportMessage struct {
	Kind        core.ReportKind `json:"kind"`
	Items       []string        `json:"items,omitempty"`
	RequestedAt time.Time       `json:"requested_at"`
}

// NewReportExportMessage creates an export request stamped with the current time
func NewReportExportMessage(kind core.ReportKind, items []string) *ReportExportMessage {
	return &ReportExportMessage{
		Kind:        kind,
		Items:       items,
		RequestedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportExportMessageFromJSON decodes and validates a message body
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("unknown report kind %q", msg.Kind)
	}
	return &msg, nil
}
