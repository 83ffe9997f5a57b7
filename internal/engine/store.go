package engine

import (
	"sort"
	"sync"
	"time"
)

// Gender is stored as a small enum; the wire tokens are "m" and "f".
type Gender uint8

const (
	GenderMale Gender = iota
	GenderFemale
)

// ParseGender maps a wire token to a Gender. Anything other than "m" or
// "f" is rejected, never coerced.
func ParseGender(s string) (Gender, bool) {
	switch s {
	case "m":
		return GenderMale, true
	case "f":
		return GenderFemale, true
	}
	return 0, false
}

func (g Gender) String() string {
	if g == GenderFemale {
		return "f"
	}
	return "m"
}

// VisitRef points a user or a location at one of its visits. The owning
// sequences are kept sorted ascending by VisitedAt.
type VisitRef struct {
	ID        uint32
	VisitedAt int64
}

// User holds dictionary-encoded name ids rather than strings. Age is
// derived once at creation time against the store's reference time.
type User struct {
	Email     string
	FirstName uint32
	LastName  uint32
	BirthDate int64
	Age       int
	Gender    Gender
	Visits    []VisitRef
}

type Visit struct {
	User      uint32
	Location  uint32
	Mark      uint8
	VisitedAt int64
}

type Location struct {
	Country  uint32
	City     uint32
	Place    uint32
	Distance uint32
	Visits   []VisitRef
}

// Store is the in-memory dataset: three dense, append-only entity tables,
// five string dictionaries and the global email set. Entity ids are array
// indexes; adding entity N is legal only when the table holds exactly N
// entries.
//
// A single RWMutex guards the whole store. Creations take the write lock
// for the table append plus the secondary-index insertions, so a reader
// never sees one without the other.
type Store struct {
	mu sync.RWMutex

	users     []User
	visits    []Visit
	locations []Location

	emails map[string]struct{}

	firstNames *Dict
	lastNames  *Dict
	countries  *Dict
	cities     *Dict
	places     *Dict

	// refTime is the fixed point age is computed against. The dataset is
	// historical, so this comes from configuration, not the wall clock.
	refTime time.Time
}

func NewStore(referenceTime time.Time) *Store {
	return &Store{
		emails:     make(map[string]struct{}),
		firstNames: NewDict(),
		lastNames:  NewDict(),
		countries:  NewDict(),
		cities:     NewDict(),
		places:     NewDict(),
		refTime:    referenceTime,
	}
}

// ReferenceTime returns the timestamp user ages are computed against.
func (s *Store) ReferenceTime() time.Time {
	return s.refTime
}

// Counts returns the current table sizes.
func (s *Store) Counts() (users, locations, visits int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), len(s.locations), len(s.visits)
}

// CreateLocation appends a location. id must equal the current location
// count.
func (s *Store) CreateLocation(id uint32, country, city, place string, distance uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(id) != len(s.locations) {
		return ErrOutOfOrderID
	}

	s.locations = append(s.locations, Location{
		Country:  s.countries.Put(country),
		City:     s.cities.Put(city),
		Place:    s.places.Put(place),
		Distance: distance,
	})
	return nil
}

// CreateUser appends a user. id must equal the current user count, email
// must be unused and gender must parse. All checks run before the first
// mutation so a failure leaves the store untouched.
func (s *Store) CreateUser(id uint32, email, firstName, lastName string, birthDate int64, gender string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(id) != len(s.users) {
		return ErrOutOfOrderID
	}
	g, ok := ParseGender(gender)
	if !ok {
		return ErrInvalidGender
	}
	if _, dup := s.emails[email]; dup {
		return ErrDuplicateEmail
	}

	s.emails[email] = struct{}{}
	s.users = append(s.users, User{
		Email:     email,
		FirstName: s.firstNames.Put(firstName),
		LastName:  s.lastNames.Put(lastName),
		BirthDate: birthDate,
		Age:       ageAt(time.Unix(birthDate, 0).UTC(), s.refTime),
		Gender:    g,
	})
	return nil
}

// CreateVisit appends a visit and inserts a reference into the owning
// user's and location's date-sorted sequences, all under one write lock.
// id must equal the current visit count and both references must exist.
func (s *Store) CreateVisit(id, userID, locationID uint32, visitedAt int64, mark uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(id) != len(s.visits) {
		return ErrOutOfOrderID
	}
	if int(userID) >= len(s.users) || int(locationID) >= len(s.locations) {
		return ErrUnknownReference
	}

	s.visits = append(s.visits, Visit{
		User:      userID,
		Location:  locationID,
		Mark:      mark,
		VisitedAt: visitedAt,
	})

	ref := VisitRef{ID: id, VisitedAt: visitedAt}
	u := &s.users[userID]
	u.Visits = insertRef(u.Visits, ref)
	l := &s.locations[locationID]
	l.Visits = insertRef(l.Visits, ref)
	return nil
}

// insertRef places ref at the first position whose date is not strictly
// less than ref's, so an entry sharing a date with existing ones lands
// ahead of them.
func insertRef(refs []VisitRef, ref VisitRef) []VisitRef {
	i := sort.Search(len(refs), func(i int) bool {
		return refs[i].VisitedAt >= ref.VisitedAt
	})
	refs = append(refs, VisitRef{})
	copy(refs[i+1:], refs[i:])
	refs[i] = ref
	return refs
}

// ageAt returns whole years between birth and ref, truncating when the
// birthday has not yet occurred in ref's year.
func ageAt(birth, ref time.Time) int {
	years := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() ||
		(ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		years--
	}
	return years
}
