package adventure

import "time"

// Adventure is a logged past ride. Visibility is "public" or "private";
// featured public adventures surface on the owner's profile.
type Adventure struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Story         string    `json:"story"`
	Location      string    `json:"location"`
	DistanceMiles float64   `json:"distance_miles"`
	DurationHours float64   `json:"duration_hours"`
	CoverURL      string    `json:"cover_url"`
	Visibility    string    `json:"visibility"`
	Featured      bool      `json:"featured"`
	RiddenAt      time.Time `json:"ridden_at"`
	CreatedAt     time.Time `json:"created_at"`
}
