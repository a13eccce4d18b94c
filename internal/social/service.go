package social

import (
	"context"
	"errors"

	"github.com/Agnijit02/OnTwoWheelz/internal/db"
)

var ErrSelfFollow = errors.New("cannot follow yourself")

// Notifier is satisfied by the notification service. Delivery is best-effort
// and never fails the follow itself.
type Notifier interface {
	Notify(ctx context.Context, userID, actorID, kind, subjectID, message string)
}

type Service struct {
	db       db.Querier
	notifier Notifier
}

func NewService(querier db.Querier, notifier Notifier) *Service {
	return &Service{db: querier, notifier: notifier}
}

// Follow inserts the directed edge, then recomputes both riders' counters
// from the edge table and overwrites the stored values. The edge insert and
// the counter refresh are not one transaction; a stale counter self-heals on
// the next mutation or stats read. Duplicate follows are absorbed by the
// (follower, following) uniqueness constraint.
func (s *Service) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return ErrSelfFollow
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_follows (follower_id, following_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, followerID, followingID)
	if err != nil {
		return err
	}

	if err := s.refreshFollowCounts(ctx, followerID); err != nil {
		return err
	}
	if err := s.refreshFollowCounts(ctx, followingID); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, followingID, followerID, "follow", followerID, "started following you")
	}
	return nil
}

func (s *Service) Unfollow(ctx context.Context, followerID, followingID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM user_follows WHERE follower_id=$1 AND following_id=$2
	`, followerID, followingID)
	if err != nil {
		return err
	}
	if err := s.refreshFollowCounts(ctx, followerID); err != nil {
		return err
	}
	return s.refreshFollowCounts(ctx, followingID)
}

func (s *Service) refreshFollowCounts(ctx context.Context, userID string) error {
	row := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_follows WHERE following_id=$1),
			(SELECT COUNT(*) FROM user_follows WHERE follower_id=$1)
	`, userID)
	var followers, following int
	if err := row.Scan(&followers, &following); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO profile_stats (user_id, followers, following)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id) DO UPDATE SET followers=EXCLUDED.followers, following=EXCLUDED.following
	`, userID, followers, following)
	return err
}

func (s *Service) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_follows WHERE follower_id=$1 AND following_id=$2)
	`, followerID, followingID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Service) Followers(ctx context.Context, userID string) ([]FollowerProfile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.user_id, p.username, p.display_name, p.avatar_url
		FROM user_follows f
		JOIN profiles p ON p.user_id = f.follower_id
		WHERE f.following_id=$1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (s *Service) Following(ctx context.Context, userID string) ([]FollowerProfile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.user_id, p.username, p.display_name, p.avatar_url
		FROM user_follows f
		JOIN profiles p ON p.user_id = f.following_id
		WHERE f.follower_id=$1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProfiles(rows)
}

type rowIterator interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectProfiles(rows rowIterator) ([]FollowerProfile, error) {
	var out []FollowerProfile
	for rows.Next() {
		var p FollowerProfile
		if err := rows.Scan(&p.UserID, &p.Username, &p.DisplayName, &p.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
