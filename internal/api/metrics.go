package api

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travelog_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "status"})

	usersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "travelog_users",
		Help: "Users in the store.",
	})
	locationsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "travelog_locations",
		Help: "Locations in the store.",
	})
	visitsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "travelog_visits",
		Help: "Visits in the store.",
	})
)

// SetStoreSizes seeds the table gauges after the bulk load; the create
// handlers keep them current afterwards.
func SetStoreSizes(users, locations, visits int) {
	usersTotal.Set(float64(users))
	locationsTotal.Set(float64(locations))
	visitsTotal.Set(float64(visits))
}

// Metrics counts requests per registered route and response status.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			requestsTotal.WithLabelValues(c.Path(), strconv.Itoa(c.Response().Status)).Inc()
			return err
		}
	}
}
