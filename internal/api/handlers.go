package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"travelog/internal/engine"
	"travelog/internal/models"
)

type Handler struct {
	store *engine.Store
	log   *zap.Logger
}

func NewHandler(store *engine.Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/users/:id", h.GetUser)
	e.GET("/users/:id/visits", h.GetUserVisits)
	e.GET("/visits/:id", h.GetVisit)
	e.GET("/locations/:id", h.GetLocation)
	e.GET("/locations/:id/avg", h.GetLocationAvg)

	e.POST("/users/new", h.CreateUser)
	e.POST("/locations/new", h.CreateLocation)
	e.POST("/visits/new", h.CreateVisit)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// entityID parses the :id path segment. A non-numeric id names no
// resource, so the caller answers 404.
func entityID(c echo.Context) (uint32, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}

func optionalInt64(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalUint32(c echo.Context, name string) (*uint32, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	u := uint32(v)
	return &u, nil
}

func optionalInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// storeError maps an engine error to its HTTP status.
func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return c.NoContent(http.StatusNotFound)
	case errors.Is(err, engine.ErrDuplicateEmail), errors.Is(err, engine.ErrInvalidGender):
		return c.JSON(http.StatusConflict, struct{}{})
	default:
		return c.NoContent(http.StatusBadRequest)
	}
}

func (h *Handler) GetUser(c echo.Context) error {
	id, ok := entityID(c)
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	user, err := h.store.GetUser(id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, ok := entityID(c)
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	visit, err := h.store.GetVisit(id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, visit)
}

func (h *Handler) GetLocation(c echo.Context) error {
	id, ok := entityID(c)
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	location, err := h.store.GetLocation(id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, location)
}

func (h *Handler) GetUserVisits(c echo.Context) error {
	id, ok := entityID(c)
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}

	var f engine.VisitsFilter
	var err error
	if f.FromDate, err = optionalInt64(c, "fromDate"); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if f.ToDate, err = optionalInt64(c, "toDate"); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if f.ToDistance, err = optionalUint32(c, "toDistance"); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if _, present := c.QueryParams()["country"]; present {
		country := c.QueryParam("country")
		f.Country = &country
	}

	visits, err := h.store.UserVisits(id, f)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, models.UserVisits{Visits: visits})
}

func (h *Handler) GetLocationAvg(c echo.Context) error {
	id, ok := entityID(c)
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}

	var f engine.AvgFilter
	var err error
	if f.FromDate, err = optionalInt64(c, "fromDate"); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if f.ToDate, err = optionalInt64(c, "toDate"); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if f.FromAge, err = optionalInt(c, "fromAge"); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if f.ToAge, err = optionalInt(c, "toAge"); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if _, present := c.QueryParams()["gender"]; present {
		gender := c.QueryParam("gender")
		f.Gender = &gender
	}

	avg, err := h.store.LocationAvg(id, f)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, models.LocationAvg{Avg: avg})
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req models.User
	if err := c.Bind(&req); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if err := h.store.CreateUser(req.ID, req.Email, req.FirstName, req.LastName, req.BirthDate, req.Gender); err != nil {
		h.log.Debug("create user rejected", zap.Uint32("id", req.ID), zap.Error(err))
		return storeError(c, err)
	}
	usersTotal.Inc()
	return c.JSON(http.StatusOK, struct{}{})
}

func (h *Handler) CreateLocation(c echo.Context) error {
	var req models.Location
	if err := c.Bind(&req); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if err := h.store.CreateLocation(req.ID, req.Country, req.City, req.Place, req.Distance); err != nil {
		h.log.Debug("create location rejected", zap.Uint32("id", req.ID), zap.Error(err))
		return storeError(c, err)
	}
	locationsTotal.Inc()
	return c.JSON(http.StatusOK, struct{}{})
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var req models.Visit
	if err := c.Bind(&req); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if err := h.store.CreateVisit(req.ID, req.User, req.Location, req.VisitedAt, req.Mark); err != nil {
		h.log.Debug("create visit rejected", zap.Uint32("id", req.ID), zap.Error(err))
		return storeError(c, err)
	}
	visitsTotal.Inc()
	return c.JSON(http.StatusOK, struct{}{})
}
