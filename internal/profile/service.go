package profile

import (
	"context"
	"errors"

	"github.com/Agnijit02/OnTwoWheelz/internal/db"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

const profileColumns = `user_id, username, display_name, bio, avatar_url, location, experience_level, riding_style, created_at, updated_at`

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles WHERE user_id=$1
	`, userID)
	return scanProfile(row)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles WHERE username=$1
	`, username)
	return scanProfile(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.Location, &p.ExperienceLevel, &p.RidingStyle, &p.CreatedAt, &p.UpdatedAt)
	if db.IsNotFound(err) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, userID string, patch Profile) (Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if patch.Username != "" {
		p.Username = patch.Username
	}
	if patch.DisplayName != "" {
		p.DisplayName = patch.DisplayName
	}
	if patch.Bio != "" {
		p.Bio = patch.Bio
	}
	if patch.AvatarURL != "" {
		p.AvatarURL = patch.AvatarURL
	}
	if patch.Location != "" {
		p.Location = patch.Location
	}
	if patch.ExperienceLevel != "" {
		p.ExperienceLevel = patch.ExperienceLevel
	}
	if patch.RidingStyle != "" {
		p.RidingStyle = patch.RidingStyle
	}

	_, err = s.db.Exec(ctx, `
		UPDATE profiles
		SET username=$2, display_name=$3, bio=$4, avatar_url=$5, location=$6, experience_level=$7, riding_style=$8, updated_at=NOW()
		WHERE user_id=$1
	`, p.UserID, p.Username, p.DisplayName, p.Bio, p.AvatarURL, p.Location, p.ExperienceLevel, p.RidingStyle)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Profile{}, ErrUsernameTaken
		}
		return Profile{}, err
	}
	return p, nil
}

// RefreshStats recomputes every counter from its source-of-truth table and
// overwrites the stored row. Follower counts come from the follow edge table,
// the rest from adventures.
func (s *Service) RefreshStats(ctx context.Context, userID string) (Stats, error) {
	row := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_follows WHERE following_id=$1),
			(SELECT COUNT(*) FROM user_follows WHERE follower_id=$1),
			(SELECT COUNT(*) FROM adventures WHERE user_id=$1),
			(SELECT COALESCE(SUM(distance_miles),0) FROM adventures WHERE user_id=$1),
			(SELECT COALESCE(SUM(duration_hours),0) FROM adventures WHERE user_id=$1)
	`, userID)

	stats := Stats{UserID: userID}
	if err := row.Scan(&stats.Followers, &stats.Following, &stats.Adventures, &stats.TotalMiles, &stats.RidingHours); err != nil {
		return Stats{}, err
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO profile_stats (user_id, followers, following, adventures, total_miles, riding_hours)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id) DO UPDATE SET
			followers=EXCLUDED.followers,
			following=EXCLUDED.following,
			adventures=EXCLUDED.adventures,
			total_miles=EXCLUDED.total_miles,
			riding_hours=EXCLUDED.riding_hours
	`, stats.UserID, stats.Followers, stats.Following, stats.Adventures, stats.TotalMiles, stats.RidingHours)
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}
