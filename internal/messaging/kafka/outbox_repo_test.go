package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() OutboxEvent {
	return OutboxEvent{
		ID:        "9f2e1a40-0b1c-4a77-9f51-2f4f3f6f8e01",
		RequestID: "req-123",
		LeaveID:   "4b1d9c02-7e6f-4d3a-8a21-0c9e5d7b6a10",
		EventType: "LEAVE_CREATED",
		Topic:     "smartlogx.leave.notifications",
		Payload:   []byte(`{"leave_id":"x"}`),
		Status:    OutboxStatusPending,
	}
}

func TestValidateOutboxEvent(t *testing.T) {
	assert.NoError(t, ValidateOutboxEvent(validEvent()))

	cases := []struct {
		name   string
		mutate func(*OutboxEvent)
	}{
		{"missing id", func(e *OutboxEvent) { e.ID = "" }},
		{"missing leave id", func(e *OutboxEvent) { e.LeaveID = "" }},
		{"missing topic", func(e *OutboxEvent) { e.Topic = "" }},
		{"empty payload", func(e *OutboxEvent) { e.Payload = nil }},
		{"bad status", func(e *OutboxEvent) { e.Status = "delivering" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validEvent()
			tc.mutate(&e)
			assert.Error(t, ValidateOutboxEvent(e))
		})
	}
}

func TestOutboxRepository_Enqueue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	event := validEvent()
	mock.ExpectExec("INSERT INTO notification_outbox").
		WithArgs(event.ID, event.RequestID, event.LeaveID, event.EventType, event.Topic, event.Payload, event.Status).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewOutboxRepository(db)
	require.NoError(t, repo.Enqueue(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_Enqueue_RejectsInvalid(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	event := validEvent()
	event.Payload = nil

	repo := NewOutboxRepository(db)
	assert.Error(t, repo.Enqueue(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_ListDeliverable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "leave_id", "event_type", "topic", "payload", "status", "retry_count", "next_retry_at",
	}).
		AddRow("id-1", "leave-1", "LEAVE_CREATED", "smartlogx.leave.notifications", []byte(`{}`), OutboxStatusPending, 0, created).
		AddRow("id-2", "leave-2", "LEAVE_APPROVED", "smartlogx.leave.notifications", []byte(`{}`), OutboxStatusFailed, 2, created.Add(time.Minute))

	mock.ExpectQuery("SELECT(.|\n)+FROM notification_outbox(.|\n)+FOR UPDATE SKIP LOCKED").
		WithArgs(OutboxStatusPending, OutboxStatusFailed, 50).
		WillReturnRows(rows)

	repo := NewOutboxRepository(db)
	events, err := repo.ListDeliverable(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "LEAVE_CREATED", events[0].EventType)
	assert.Equal(t, 2, events[1].RetryCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkSentAndFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE notification_outbox").
		WithArgs("id-1", OutboxStatusSent).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE notification_outbox").
		WithArgs("id-2", OutboxStatusFailed, "broker unreachable").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewOutboxRepository(db)
	require.NoError(t, repo.MarkSent(context.Background(), "id-1"))
	require.NoError(t, repo.MarkFailed(context.Background(), "id-2", "broker unreachable"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
