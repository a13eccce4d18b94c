package garage

import (
	"context"
	"errors"

	"github.com/Agnijit02/OnTwoWheelz/internal/db"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("bike not found")

var validate = validator.New()

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

func (s *Service) Add(ctx context.Context, input Bike) (Bike, error) {
	if err := validate.Struct(input); err != nil {
		return Bike{}, err
	}
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO bikes (id, user_id, make, model, year, nickname, image_url, is_primary)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, input.ID, input.UserID, input.Make, input.Model, input.Year, input.Nickname, input.ImageURL, input.IsPrimary)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Bike{}, err
	}
	if input.IsPrimary {
		if err := s.clearOtherPrimaries(ctx, input.UserID, input.ID); err != nil {
			return Bike{}, err
		}
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Bike, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, make, model, year, nickname, image_url, is_primary, created_at
		FROM bikes WHERE id=$1
	`, id)
	var b Bike
	err := row.Scan(&b.ID, &b.UserID, &b.Make, &b.Model, &b.Year, &b.Nickname, &b.ImageURL, &b.IsPrimary, &b.CreatedAt)
	if db.IsNotFound(err) {
		return Bike{}, ErrNotFound
	}
	if err != nil {
		return Bike{}, err
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Bike, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, make, model, year, nickname, image_url, is_primary, created_at
		FROM bikes WHERE user_id=$1
		ORDER BY is_primary DESC, created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bikes []Bike
	for rows.Next() {
		var b Bike
		if err := rows.Scan(&b.ID, &b.UserID, &b.Make, &b.Model, &b.Year, &b.Nickname, &b.ImageURL, &b.IsPrimary, &b.CreatedAt); err != nil {
			return nil, err
		}
		bikes = append(bikes, b)
	}
	return bikes, nil
}

func (s *Service) Update(ctx context.Context, id, userID string, patch Bike) (Bike, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return Bike{}, err
	}
	if b.UserID != userID {
		return Bike{}, ErrNotFound
	}
	if patch.Make != "" {
		b.Make = patch.Make
	}
	if patch.Model != "" {
		b.Model = patch.Model
	}
	if patch.Year != 0 {
		b.Year = patch.Year
	}
	if patch.Nickname != "" {
		b.Nickname = patch.Nickname
	}
	if patch.ImageURL != "" {
		b.ImageURL = patch.ImageURL
	}

	_, err = s.db.Exec(ctx, `
		UPDATE bikes
		SET make=$2, model=$3, year=$4, nickname=$5, image_url=$6
		WHERE id=$1
	`, b.ID, b.Make, b.Model, b.Year, b.Nickname, b.ImageURL)
	if err != nil {
		return Bike{}, err
	}
	return b, nil
}

// SetPrimary flags one bike primary and clears the flag on the owner's
// others. At most one primary per garage.
func (s *Service) SetPrimary(ctx context.Context, id, userID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE bikes SET is_primary=TRUE WHERE id=$1 AND user_id=$2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return s.clearOtherPrimaries(ctx, userID, id)
}

func (s *Service) clearOtherPrimaries(ctx context.Context, userID, keepID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE bikes SET is_primary=FALSE WHERE user_id=$1 AND id<>$2 AND is_primary
	`, userID, keepID)
	return err
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM bikes WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
