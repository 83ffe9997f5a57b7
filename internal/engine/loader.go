package engine

import (
	"archive/zip"
	"bufio"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/buger/jsonparser"
	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// The archive is a zip of users_N.json, locations_N.json and
// visits_N.json entries, each wrapping an array under a single key, plus
// an options.txt whose first line is the dataset generation timestamp.
//
// Files are parsed concurrently, then replayed into the store in id order
// so the append-only contract holds regardless of how records are spread
// across files. Visits go last: they reference the other two tables.

// LoadStats summarizes a completed bulk load.
type LoadStats struct {
	Users     int
	Locations int
	Visits    int
	Elapsed   time.Duration
}

type rawUser struct {
	id        uint32
	email     string
	firstName string
	lastName  string
	gender    string
	birthDate int64
}

type rawLocation struct {
	id       uint32
	country  string
	city     string
	place    string
	distance uint32
}

type rawVisit struct {
	id        uint32
	user      uint32
	location  uint32
	mark      uint8
	visitedAt int64
}

// GeneratedAt reads the dataset generation timestamp from the archive's
// options.txt. ok is false when the entry is missing or malformed.
func GeneratedAt(archivePath string) (time.Time, bool) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return time.Time{}, false
	}
	defer zr.Close()

	for _, f := range zr.File {
		if path.Base(f.Name) != "options.txt" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return time.Time{}, false
		}
		sc := bufio.NewScanner(rc)
		if !sc.Scan() {
			rc.Close()
			return time.Time{}, false
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(sc.Text()), 10, 64)
		rc.Close()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// LoadArchive ingests the archive into s. Any unreadable entry or
// malformed record aborts the load; the caller must not start serving
// after a failed load.
func LoadArchive(archivePath string, s *Store, log *zap.Logger) (LoadStats, error) {
	start := time.Now()

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return LoadStats{}, errors.Wrapf(err, "open archive %s", archivePath)
	}
	defer zr.Close()
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	var userFiles, locationFiles, visitFiles []*zip.File
	for _, f := range zr.File {
		name := path.Base(f.Name)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		switch {
		case strings.HasPrefix(name, "users"):
			userFiles = append(userFiles, f)
		case strings.HasPrefix(name, "locations"):
			locationFiles = append(locationFiles, f)
		case strings.HasPrefix(name, "visits"):
			visitFiles = append(visitFiles, f)
		}
	}

	var (
		users     []rawUser
		locations []rawLocation
		visits    []rawVisit
		mu        sync.Mutex
	)

	var g errgroup.Group
	for _, f := range locationFiles {
		f := f
		g.Go(func() error {
			recs, err := parseLocations(f)
			if err != nil {
				return err
			}
			mu.Lock()
			locations = append(locations, recs...)
			mu.Unlock()
			return nil
		})
	}
	for _, f := range userFiles {
		f := f
		g.Go(func() error {
			recs, err := parseUsers(f)
			if err != nil {
				return err
			}
			mu.Lock()
			users = append(users, recs...)
			mu.Unlock()
			return nil
		})
	}
	for _, f := range visitFiles {
		f := f
		g.Go(func() error {
			recs, err := parseVisits(f)
			if err != nil {
				return err
			}
			mu.Lock()
			visits = append(visits, recs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LoadStats{}, err
	}

	sort.Slice(locations, func(i, j int) bool { return locations[i].id < locations[j].id })
	sort.Slice(users, func(i, j int) bool { return users[i].id < users[j].id })
	sort.Slice(visits, func(i, j int) bool { return visits[i].id < visits[j].id })

	for _, l := range locations {
		if err := s.CreateLocation(l.id, l.country, l.city, l.place, l.distance); err != nil {
			return LoadStats{}, errors.Wrapf(err, "load location %d", l.id)
		}
	}
	for _, u := range users {
		if err := s.CreateUser(u.id, u.email, u.firstName, u.lastName, u.birthDate, u.gender); err != nil {
			return LoadStats{}, errors.Wrapf(err, "load user %d", u.id)
		}
	}
	for _, v := range visits {
		if err := s.CreateVisit(v.id, v.user, v.location, v.visitedAt, v.mark); err != nil {
			return LoadStats{}, errors.Wrapf(err, "load visit %d", v.id)
		}
	}

	stats := LoadStats{
		Users:     len(users),
		Locations: len(locations),
		Visits:    len(visits),
		Elapsed:   time.Since(start),
	}
	log.Info("bulk load complete",
		zap.Int("users", stats.Users),
		zap.Int("locations", stats.Locations),
		zap.Int("visits", stats.Visits),
		zap.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", f.Name)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", f.Name)
	}
	return data, nil
}

func parseUsers(f *zip.File) ([]rawUser, error) {
	data, err := readEntry(f)
	if err != nil {
		return nil, err
	}
	var recs []rawUser
	var parseErr error
	_, err = jsonparser.ArrayEach(data, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}
		id, err := jsonparser.GetInt(value, "id")
		if err != nil {
			parseErr = err
			return
		}
		email, err := jsonparser.GetString(value, "email")
		if err != nil {
			parseErr = err
			return
		}
		firstName, err := jsonparser.GetString(value, "first_name")
		if err != nil {
			parseErr = err
			return
		}
		lastName, err := jsonparser.GetString(value, "last_name")
		if err != nil {
			parseErr = err
			return
		}
		gender, err := jsonparser.GetString(value, "gender")
		if err != nil {
			parseErr = err
			return
		}
		birthDate, err := jsonparser.GetInt(value, "birth_date")
		if err != nil {
			parseErr = err
			return
		}
		recs = append(recs, rawUser{
			id:        uint32(id),
			email:     email,
			firstName: firstName,
			lastName:  lastName,
			gender:    gender,
			birthDate: birthDate,
		})
	}, "users")
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", f.Name)
	}
	if parseErr != nil {
		return nil, errors.Wrapf(parseErr, "parse %s", f.Name)
	}
	return recs, nil
}

func parseLocations(f *zip.File) ([]rawLocation, error) {
	data, err := readEntry(f)
	if err != nil {
		return nil, err
	}
	var recs []rawLocation
	var parseErr error
	_, err = jsonparser.ArrayEach(data, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}
		id, err := jsonparser.GetInt(value, "id")
		if err != nil {
			parseErr = err
			return
		}
		country, err := jsonparser.GetString(value, "country")
		if err != nil {
			parseErr = err
			return
		}
		city, err := jsonparser.GetString(value, "city")
		if err != nil {
			parseErr = err
			return
		}
		place, err := jsonparser.GetString(value, "place")
		if err != nil {
			parseErr = err
			return
		}
		distance, err := jsonparser.GetInt(value, "distance")
		if err != nil {
			parseErr = err
			return
		}
		recs = append(recs, rawLocation{
			id:       uint32(id),
			country:  country,
			city:     city,
			place:    place,
			distance: uint32(distance),
		})
	}, "locations")
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", f.Name)
	}
	if parseErr != nil {
		return nil, errors.Wrapf(parseErr, "parse %s", f.Name)
	}
	return recs, nil
}

func parseVisits(f *zip.File) ([]rawVisit, error) {
	data, err := readEntry(f)
	if err != nil {
		return nil, err
	}
	var recs []rawVisit
	var parseErr error
	_, err = jsonparser.ArrayEach(data, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}
		id, err := jsonparser.GetInt(value, "id")
		if err != nil {
			parseErr = err
			return
		}
		user, err := jsonparser.GetInt(value, "user")
		if err != nil {
			parseErr = err
			return
		}
		location, err := jsonparser.GetInt(value, "location")
		if err != nil {
			parseErr = err
			return
		}
		mark, err := jsonparser.GetInt(value, "mark")
		if err != nil {
			parseErr = err
			return
		}
		visitedAt, err := jsonparser.GetInt(value, "visited_at")
		if err != nil {
			parseErr = err
			return
		}
		recs = append(recs, rawVisit{
			id:        uint32(id),
			user:      uint32(user),
			location:  uint32(location),
			mark:      uint8(mark),
			visitedAt: visitedAt,
		})
	}, "visits")
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", f.Name)
	}
	if parseErr != nil {
		return nil, errors.Wrapf(parseErr, "parse %s", f.Name)
	}
	return recs, nil
}
