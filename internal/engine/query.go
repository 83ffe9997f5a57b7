package engine

import (
	"math"
	"sort"

	"travelog/internal/models"
)

// VisitsFilter narrows a user's visit listing. Nil fields are absent.
type VisitsFilter struct {
	FromDate   *int64
	ToDate     *int64
	Country    *string
	ToDistance *uint32
}

// AvgFilter narrows a location's average-mark computation. Nil fields are
// absent.
type AvgFilter struct {
	FromDate *int64
	ToDate   *int64
	FromAge  *int
	ToAge    *int
	Gender   *string
}

// GetUser returns the user by id with dictionary ids resolved back to
// strings.
func (s *Store) GetUser(id uint32) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.users) {
		return models.User{}, ErrNotFound
	}
	u := &s.users[id]
	firstName, _ := s.firstNames.Get(u.FirstName)
	lastName, _ := s.lastNames.Get(u.LastName)
	return models.User{
		ID:        id,
		Email:     u.Email,
		FirstName: firstName,
		LastName:  lastName,
		Gender:    u.Gender.String(),
		BirthDate: u.BirthDate,
	}, nil
}

// GetVisit returns the visit by id.
func (s *Store) GetVisit(id uint32) (models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.visits) {
		return models.Visit{}, ErrNotFound
	}
	v := &s.visits[id]
	return models.Visit{
		ID:        id,
		User:      v.User,
		Location:  v.Location,
		Mark:      v.Mark,
		VisitedAt: v.VisitedAt,
	}, nil
}

// GetLocation returns the location by id with dictionary ids resolved.
func (s *Store) GetLocation(id uint32) (models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.locations) {
		return models.Location{}, ErrNotFound
	}
	l := &s.locations[id]
	country, _ := s.countries.Get(l.Country)
	city, _ := s.cities.Get(l.City)
	place, _ := s.places.Get(l.Place)
	return models.Location{
		ID:       id,
		Country:  country,
		City:     city,
		Place:    place,
		Distance: l.Distance,
	}, nil
}

// UserVisits lists a user's visits inside the filter's date window,
// ascending by date. The window is found by binary search over the
// user's sorted sequence; country and distance are checked per entry.
func (s *Store) UserVisits(id uint32, f VisitsFilter) ([]models.UserVisit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.users) {
		return nil, ErrNotFound
	}

	var countryID uint32
	if f.Country != nil {
		if *f.Country == "" {
			return nil, ErrEmptyFilter
		}
		if !s.countries.Exists(*f.Country) {
			return nil, ErrNotFound
		}
		countryID, _ = s.countries.ID(*f.Country)
	}

	refs := s.users[id].Visits
	start, end := dateWindow(refs, f.FromDate, f.ToDate)

	out := make([]models.UserVisit, 0, end-start)
	for _, ref := range refs[start:end] {
		v := &s.visits[ref.ID]
		l := &s.locations[v.Location]

		if f.Country != nil && l.Country != countryID {
			continue
		}
		if f.ToDistance != nil && l.Distance >= *f.ToDistance {
			continue
		}

		place, _ := s.places.Get(l.Place)
		out = append(out, models.UserVisit{
			Mark:      v.Mark,
			VisitedAt: v.VisitedAt,
			Place:     place,
		})
	}
	return out, nil
}

// LocationAvg averages the marks of a location's visits inside the date
// window, filtered by visitor age and gender. An empty result is 0, not
// an error. The mean is rounded half away from zero to 5 decimals.
func (s *Store) LocationAvg(id uint32, f AvgFilter) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.locations) {
		return 0, ErrNotFound
	}

	var gender Gender
	genderKnown := false
	if f.Gender != nil {
		gender, genderKnown = ParseGender(*f.Gender)
	}

	refs := s.locations[id].Visits
	start, end := dateWindow(refs, f.FromDate, f.ToDate)

	var total, count int64
	for _, ref := range refs[start:end] {
		v := &s.visits[ref.ID]
		u := &s.users[v.User]

		if f.FromAge != nil && u.Age <= *f.FromAge {
			continue
		}
		if f.ToAge != nil && u.Age >= *f.ToAge {
			continue
		}
		if f.Gender != nil && (!genderKnown || u.Gender != gender) {
			continue
		}

		total += int64(v.Mark)
		count++
	}

	if count == 0 {
		return 0, nil
	}
	avg := float64(total) / float64(count)
	return math.Round(avg*100000) / 100000, nil
}

// dateWindow returns the [start, end) slice bounds for the optional date
// range: start is the first entry dated strictly after from, end the
// first entry dated at or after to.
func dateWindow(refs []VisitRef, from, to *int64) (int, int) {
	start, end := 0, len(refs)
	if from != nil {
		start = sort.Search(len(refs), func(i int) bool {
			return refs[i].VisitedAt > *from
		})
	}
	if to != nil {
		end = sort.Search(len(refs), func(i int) bool {
			return refs[i].VisitedAt >= *to
		})
	}
	if end < start {
		end = start
	}
	return start, end
}
