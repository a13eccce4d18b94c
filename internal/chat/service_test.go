package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

type staticMembers struct {
	ok  bool
	err error
}

func (m staticMembers) IsMember(_ context.Context, _, _ string) (bool, error) {
	return m.ok, m.err
}

func TestSendRequiresMembership(t *testing.T) {
	svc := NewService(nil, NewHub(nil), staticMembers{ok: false})
	_, err := svc.Send(context.Background(), Message{TripID: "trip-1", UserID: "mallory", Content: "hi"})
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestSendEmptyMessage(t *testing.T) {
	svc := NewService(nil, NewHub(nil), staticMembers{ok: true})
	if _, err := svc.Send(context.Background(), Message{TripID: "trip-1", UserID: "alice"}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSendPersistsAndBroadcasts(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO trip_messages`).
		WithArgs(pgxmock.AnyArg(), "trip-1", "alice", "ready to roll", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	hub := NewHub(nil)
	listener := hub.Register("trip-1", "bob")
	defer hub.Unregister(listener)

	svc := NewService(mock, hub, staticMembers{ok: true})
	msg, err := svc.Send(context.Background(), Message{TripID: "trip-1", UserID: "alice", Content: "ready to roll"})
	if err != nil || msg.ID == "" {
		t.Fatalf("send: %v", err)
	}

	select {
	case payload := <-listener.Send:
		if len(payload) == 0 {
			t.Fatalf("empty broadcast payload")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("expected broadcast to connected client")
	}
}

func TestMessagesRequiresMembership(t *testing.T) {
	svc := NewService(nil, NewHub(nil), staticMembers{ok: false})
	if _, err := svc.Messages(context.Background(), "trip-1", "mallory", 0, 0); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestMessagesHistory(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM trip_messages WHERE trip_id=\$1`).
		WithArgs("trip-1", 50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "user_id", "content", "media_url", "created_at"}).
			AddRow("m1", "trip-1", "alice", "first", "", now.Add(-time.Minute)).
			AddRow("m2", "trip-1", "bob", "second", "", now))

	svc := NewService(mock, NewHub(nil), staticMembers{ok: true})
	msgs, err := svc.Messages(context.Background(), "trip-1", "alice", 0, 0)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("messages: %v (%d)", err, len(msgs))
	}
	if msgs[0].Content != "first" {
		t.Fatalf("expected oldest first, got %+v", msgs[0])
	}
}
