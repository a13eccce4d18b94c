package notification

import (
	"context"

	"github.com/Agnijit02/OnTwoWheelz/internal/db"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

// Notify is best effort. A notification that fails to persist is logged and
// dropped; the action that triggered it has already succeeded and must not
// be rolled back over a missed bell icon.
func (s *Service) Notify(ctx context.Context, userID, actorID, kind, subjectID, message string) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, actor_id, kind, subject_id, message)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, uuid.NewString(), userID, actorID, kind, subjectID, message)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("kind", kind).Msg("notification insert failed")
	}
}

// List returns the user's notifications newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, actor_id, kind, subject_id, message, read, created_at
		FROM notifications WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.ActorID, &n.Kind, &n.SubjectID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// MarkRead is scoped to the owner, a foreign id is a no-op.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET read=TRUE WHERE id=$1 AND user_id=$2
	`, id, userID)
	return err
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE notifications SET read=TRUE WHERE user_id=$1 AND read=FALSE
	`, userID)
	return err
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read=FALSE
	`, userID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
