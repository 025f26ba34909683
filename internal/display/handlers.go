package display

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rouletteai/roulette-client/frontend"
	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/prefs"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

func (s *Server) setupRoutes() {
	s.echo.GET("/", s.serveIndex)
	s.echo.StaticFS("/static", frontend.DistFS)
	s.echo.GET("/health", s.healthCheck)
	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	api := s.echo.Group("/api/v1")
	api.GET("/state", s.getState)
	api.POST("/spins", s.postSpin)
	api.POST("/selection", s.postSelection)
	api.DELETE("/selection", s.deleteSelection)
	api.GET("/inspection", s.getInspection)
	api.POST("/clear", s.postClear)
	api.GET("/preferences/live-url", s.getLiveURL)
	api.PUT("/preferences/live-url", s.putLiveURL)
	api.GET("/ws", s.hub.ServeWS)
}

func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"ws_clients":     s.hub.Clients(),
		"stale_dropped":  s.session.StaleDropped(),
	})
}

func (s *Server) getState(c echo.Context) error {
	return c.JSON(http.StatusOK, newStateResponse(s.session.State()))
}

func (s *Server) postSpin(c echo.Context) error {
	var req SpinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	res, err := s.session.Submit(c.Request().Context(), req.raw())
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, SpinResponse{
		Number:  res.Outcome,
		Token:   res.Token,
		Applied: res.Applied,
		State:   newStateResponse(s.session.State()),
	})
}

func (s *Server) postSelection(c echo.Context) error {
	var req SelectionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.Index < 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "index must not be negative"})
	}

	if req.Number == nil {
		if _, err := s.session.SelectIndex(req.Index); err != nil {
			return s.errorResponse(c, err)
		}
	} else {
		o, err := wheel.CheckOutcome(*req.Number)
		if err != nil {
			return s.errorResponse(c, err)
		}
		s.session.Select(req.Index, o)
	}

	return s.getInspection(c)
}

func (s *Server) deleteSelection(c echo.Context) error {
	s.session.Close()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getInspection(c echo.Context) error {
	res, ok := s.session.Inspect()
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "inspection is closed"})
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) postClear(c echo.Context) error {
	s.session.Clear()
	return c.JSON(http.StatusOK, newStateResponse(s.session.State()))
}

func (s *Server) getLiveURL(c echo.Context) error {
	u, err := prefs.LiveURL(c.Request().Context(), s.prefs)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, LiveURL{URL: u})
}

func (s *Server) putLiveURL(c echo.Context) error {
	var req LiveURL
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := prefs.SetLiveURL(c.Request().Context(), s.prefs, req.URL); err != nil {
		return s.errorResponse(c, err)
	}
	return s.getLiveURL(c)
}

// errorResponse maps error categories to HTTP status codes.
func (s *Server) errorResponse(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn("Request failed", logger.String("path", c.Path()), logger.Int("status", status), logger.Error(err))
	}
	return c.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryNetwork),
		errors.IsCategory(err, errors.CategoryHTTP),
		errors.IsCategory(err, errors.CategoryFileParsing),
		errors.IsCategory(err, errors.CategoryTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
