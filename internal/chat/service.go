package chat

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Agnijit02/OnTwoWheelz/internal/db"

	"github.com/google/uuid"
)

var (
	ErrNotParticipant = errors.New("not a participant of this trip")
	ErrEmptyMessage   = errors.New("message content required")
)

// MembershipChecker reports whether a user may read or write a trip's chat.
type MembershipChecker interface {
	IsMember(ctx context.Context, tripID, userID string) (bool, error)
}

type Service struct {
	db      db.Querier
	hub     *Hub
	members MembershipChecker
}

func NewService(querier db.Querier, hub *Hub, members MembershipChecker) *Service {
	return &Service{db: querier, hub: hub, members: members}
}

// Send persists the message and broadcasts it to connected clients. The
// caller must be on the trip roster or be the organizer.
func (s *Service) Send(ctx context.Context, msg Message) (Message, error) {
	if msg.Content == "" && msg.MediaURL == "" {
		return Message{}, ErrEmptyMessage
	}
	ok, err := s.members.IsMember(ctx, msg.TripID, msg.UserID)
	if err != nil {
		return Message{}, err
	}
	if !ok {
		return Message{}, ErrNotParticipant
	}

	msg.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO trip_messages (id, trip_id, user_id, content, media_url)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, msg.ID, msg.TripID, msg.UserID, msg.Content, msg.MediaURL)
	if err := row.Scan(&msg.CreatedAt); err != nil {
		return Message{}, err
	}

	if payload, err := json.Marshal(msg); err == nil {
		s.hub.Broadcast(msg.TripID, payload)
	}
	return msg, nil
}

// Messages returns the trip's history oldest first.
func (s *Service) Messages(ctx context.Context, tripID, userID string, limit, offset int) ([]Message, error) {
	ok, err := s.members.IsMember(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, user_id, content, media_url, created_at
		FROM trip_messages WHERE trip_id=$1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, tripID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.TripID, &m.UserID, &m.Content, &m.MediaURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
