package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/tarsy/pkg/engine"
)

// createBrowserHandler handles POST /browser/create (spec §6 container
// lifecycle). Returns a browser record carrying the exposed VNC/noVNC/
// DevTools ports a session's CDP_URL connects to.
func (s *Server) createBrowserHandler(c *echo.Context) error {
	var req CreateBrowserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec := s.browsers.Create(req.Image)
	return c.JSON(http.StatusCreated, rec)
}

// getBrowserHandler handles GET /browser/:id.
func (s *Server) getBrowserHandler(c *echo.Context) error {
	rec, err := s.browsers.Get(c.Param("id"))
	if err != nil {
		return mapBrowserError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// deleteBrowserHandler handles DELETE /browser/:id.
func (s *Server) deleteBrowserHandler(c *echo.Context) error {
	if err := s.browsers.Close(c.Param("id")); err != nil {
		return mapBrowserError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func mapBrowserError(err error) *echo.HTTPError {
	if engine.ErrBrowserNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound, "browser not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
