package trip

import "time"

type Trip struct {
	ID          string     `json:"id"`
	OrganizerID string     `json:"organizer_id"`
	Title       string     `json:"title" validate:"required,max=140"`
	Description string     `json:"description"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	Capacity    int        `json:"capacity" validate:"required,min=1,max=500"`
	Status      string     `json:"status"`
	Waypoints   []Waypoint `json:"waypoints,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Waypoint is a named stop on the planned route, ordered by Position.
type Waypoint struct {
	ID       string  `json:"id"`
	TripID   string  `json:"trip_id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Position int     `json:"position"`
}

type Participant struct {
	TripID   string    `json:"trip_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}
