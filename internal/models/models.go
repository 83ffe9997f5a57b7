package models

// User is the wire shape for GET /users/{id} and POST /users/new.
type User struct {
	ID        uint32 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	BirthDate int64  `json:"birth_date"`
}

// Visit is the wire shape for GET /visits/{id} and POST /visits/new.
type Visit struct {
	ID        uint32 `json:"id"`
	User      uint32 `json:"user"`
	Location  uint32 `json:"location"`
	Mark      uint8  `json:"mark"`
	VisitedAt int64  `json:"visited_at"`
}

// Location is the wire shape for GET /locations/{id} and POST /locations/new.
type Location struct {
	ID       uint32 `json:"id"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Place    string `json:"place"`
	Distance uint32 `json:"distance"`
}

// UserVisit is a single row of GET /users/{id}/visits.
type UserVisit struct {
	Mark      uint8  `json:"mark"`
	VisitedAt int64  `json:"visited_at"`
	Place     string `json:"place"`
}

// UserVisits wraps the visit rows, ordered ascending by visit date.
type UserVisits struct {
	Visits []UserVisit `json:"visits"`
}

// LocationAvg is the body of GET /locations/{id}/avg.
type LocationAvg struct {
	Avg float64 `json:"avg"`
}
