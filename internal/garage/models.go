package garage

import "time"

type Bike struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Make      string    `json:"make" validate:"required,max=100"`
	Model     string    `json:"model" validate:"required,max=100"`
	Year      int       `json:"year" validate:"omitempty,min=1900,max=2100"`
	Nickname  string    `json:"nickname"`
	ImageURL  string    `json:"image_url"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}
