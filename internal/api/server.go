package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gommonlog "github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// NewServer wires the handler into an echo instance with the dashboard's
// middleware stack. rateLimit is the per-client request rate on /api.
func NewServer(h *Handler, rateLimit float64, log *logrus.Entry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(gommonlog.WARN)
	e.JSONSerializer = JSONSerializer{}
	e.Renderer = NewRenderer()

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger(log))

	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(rateLimit)))
	h.RegisterRoutes(e, limiter)
	return e
}

func requestLogger(log *logrus.Entry) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	})
}
