package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunchreports/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{63, 30 * time.Second}, // no shift overflow
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"amqp closed", fmt.Errorf("message channel closed: %w", amqp091.ErrClosed), true},
		{"handler error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestReportExportMessage_JSON(t *testing.T) {
	msg := NewReportExportMessage(core.KindCombined, []string{"Pizza", "Water"})
	assert.WithinDuration(t, time.Now(), msg.RequestedAt, time.Minute)

	body, err := msg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"kind":"combined"`)

	decoded, err := ReportExportMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, msg.Kind, decoded.Kind)
	assert.Equal(t, msg.Items, decoded.Items)
	assert.True(t, msg.RequestedAt.Equal(decoded.RequestedAt))
}

func TestReportExportMessage_Invalid(t *testing.T) {
	_, err := ReportExportMessageFromJSON([]byte("not json"))
	assert.Error(t, err)

	_, err = ReportExportMessageFromJSON([]byte(`{"kind":"weekly"}`))
	assert.ErrorContains(t, err, `unknown report kind "weekly"`)

	msg, err := ReportExportMessageFromJSON([]byte(`{"kind":"item"}`))
	require.NoError(t, err)
	assert.Empty(t, msg.Items)
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	valid, err := NewReportExportMessage(core.KindSingleItem, []string{"Pizza"}).ToJSON()
	require.NoError(t, err)

	var got *ReportExportMessage
	ok := func(_ context.Context, m *ReportExportMessage) error { got = m; return nil }
	fail := func(context.Context, *ReportExportMessage) error { return errors.New("sheets down") }

	assert.Equal(t, ack, process(ctx, valid, ok))
	require.NotNil(t, got)
	assert.Equal(t, []string{"Pizza"}, got.Items)

	assert.Equal(t, requeue, process(ctx, valid, fail))
	assert.Equal(t, reject, process(ctx, []byte("{"), ok))
	assert.Equal(t, reject, process(ctx, []byte(`{"kind":"nope"}`), ok))
}

func TestPublishRejectsUnknownKind(t *testing.T) {
	c := &Client{exchangeName: "lunchreports", queueName: "report_exports"}
	err := c.PublishReportExport(context.Background(), "weekly", nil)
	assert.ErrorContains(t, err, "unknown report kind")
}

func TestPublishWithoutChannel(t *testing.T) {
	c := &Client{exchangeName: "lunchreports", queueName: "report_exports"}
	err := c.PublishReportExport(context.Background(), core.KindCombined, nil)
	assert.ErrorIs(t, err, amqp091.ErrClosed)
	assert.NoError(t, c.Close())
}
