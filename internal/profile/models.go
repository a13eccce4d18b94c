package profile

import "time"

type Profile struct {
	UserID          string    `json:"user_id"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"display_name"`
	Bio             string    `json:"bio"`
	AvatarURL       string    `json:"avatar_url"`
	Location        string    `json:"location"`
	ExperienceLevel string    `json:"experience_level"`
	RidingStyle     string    `json:"riding_style"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Stats are denormalized counters. They are recomputed from the source tables
// on every read and overwritten, so a stale value self-heals on the next
// fetch rather than drifting.
type Stats struct {
	UserID      string  `json:"user_id"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
	Adventures  int     `json:"adventures"`
	TotalMiles  float64 `json:"total_miles"`
	RidingHours float64 `json:"riding_hours"`
}
