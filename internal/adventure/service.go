package adventure

import (
	"context"
	"errors"

	"github.com/Agnijit02/OnTwoWheelz/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("adventure not found")

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

const adventureColumns = `id, user_id, title, story, location, distance_miles, duration_hours, cover_url, visibility, featured, ridden_at, created_at`

func (s *Service) Create(ctx context.Context, input Adventure) (Adventure, error) {
	if input.Title == "" || input.UserID == "" {
		return Adventure{}, errors.New("title and user_id required")
	}
	input.ID = uuid.NewString()
	if input.Visibility == "" {
		input.Visibility = "public"
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO adventures (id, user_id, title, story, location, distance_miles, duration_hours, cover_url, visibility, featured, ridden_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at
	`, input.ID, input.UserID, input.Title, input.Story, input.Location, input.DistanceMiles, input.DurationHours, input.CoverURL, input.Visibility, input.Featured, riddenAtOrNil(input))
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Adventure{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id, viewerID string) (Adventure, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+adventureColumns+`
		FROM adventures WHERE id=$1
	`, id)
	a, err := scanAdventure(row)
	if err != nil {
		return Adventure{}, err
	}
	// a private adventure is visible to its owner only
	if a.Visibility != "public" && a.UserID != viewerID {
		return Adventure{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) ListByUser(ctx context.Context, userID, viewerID string) ([]Adventure, error) {
	sql := `
		SELECT ` + adventureColumns + `
		FROM adventures WHERE user_id=$1
		ORDER BY ridden_at DESC`
	if userID != viewerID {
		sql = `
		SELECT ` + adventureColumns + `
		FROM adventures WHERE user_id=$1 AND visibility='public'
		ORDER BY ridden_at DESC`
	}
	rows, err := s.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAdventures(rows)
}

// Featured returns the owner's featured public adventures, newest ride first.
func (s *Service) Featured(ctx context.Context, userID string) ([]Adventure, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+adventureColumns+`
		FROM adventures
		WHERE user_id=$1 AND featured AND visibility='public'
		ORDER BY ridden_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAdventures(rows)
}

func (s *Service) Update(ctx context.Context, id, userID string, patch Adventure) (Adventure, error) {
	a, err := s.Get(ctx, id, userID)
	if err != nil {
		return Adventure{}, err
	}
	if a.UserID != userID {
		return Adventure{}, ErrNotFound
	}
	if patch.Title != "" {
		a.Title = patch.Title
	}
	if patch.Story != "" {
		a.Story = patch.Story
	}
	if patch.Location != "" {
		a.Location = patch.Location
	}
	if patch.DistanceMiles != 0 {
		a.DistanceMiles = patch.DistanceMiles
	}
	if patch.DurationHours != 0 {
		a.DurationHours = patch.DurationHours
	}
	if patch.CoverURL != "" {
		a.CoverURL = patch.CoverURL
	}
	if patch.Visibility != "" {
		a.Visibility = patch.Visibility
	}

	_, err = s.db.Exec(ctx, `
		UPDATE adventures
		SET title=$2, story=$3, location=$4, distance_miles=$5, duration_hours=$6, cover_url=$7, visibility=$8
		WHERE id=$1
	`, a.ID, a.Title, a.Story, a.Location, a.DistanceMiles, a.DurationHours, a.CoverURL, a.Visibility)
	if err != nil {
		return Adventure{}, err
	}
	return a, nil
}

func (s *Service) SetFeatured(ctx context.Context, id, userID string, featured bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE adventures SET featured=$3 WHERE id=$1 AND user_id=$2
	`, id, userID, featured)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAdventure(row pgx.Row) (Adventure, error) {
	var a Adventure
	err := row.Scan(&a.ID, &a.UserID, &a.Title, &a.Story, &a.Location, &a.DistanceMiles, &a.DurationHours, &a.CoverURL, &a.Visibility, &a.Featured, &a.RiddenAt, &a.CreatedAt)
	if db.IsNotFound(err) {
		return Adventure{}, ErrNotFound
	}
	if err != nil {
		return Adventure{}, err
	}
	return a, nil
}

func collectAdventures(rows pgx.Rows) ([]Adventure, error) {
	var out []Adventure
	for rows.Next() {
		var a Adventure
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.Story, &a.Location, &a.DistanceMiles, &a.DurationHours, &a.CoverURL, &a.Visibility, &a.Featured, &a.RiddenAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// riddenAtOrNil lets the database default apply when no ride date was sent.
func riddenAtOrNil(a Adventure) any {
	if a.RiddenAt.IsZero() {
		return nil
	}
	return a.RiddenAt
}
