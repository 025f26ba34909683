package display

import (
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rouletteai/roulette-client/frontend"
	"github.com/rouletteai/roulette-client/internal/logger"
)

const (
	indexHTMLPath       = "index.html"
	cacheControlNoCache = "no-cache, no-store, must-revalidate"
)

// serveIndex serves the display page shell. Assets are served from /static.
func (s *Server) serveIndex(c echo.Context) error {
	content, err := fs.ReadFile(frontend.DistFS, indexHTMLPath)
	if err != nil {
		s.log.Error("Failed to read embedded index.html", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load page")
	}

	c.Response().Header().Set(echo.HeaderCacheControl, cacheControlNoCache)
	return c.HTMLBlob(http.StatusOK, content)
}
