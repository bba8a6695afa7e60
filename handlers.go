package topicblog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/topicblog/internal/logfields"
)

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))

	// Pages already on disk are served by the static middleware; these
	// only see misses.
	e.GET("/article/:id", a.handleArticle)
	e.GET("/article/:id/", a.handleArticle)
}

type healthStatus struct {
	Status  string `json:"status"`
	BuildID string `json:"build_id,omitempty"`
	Tag     string `json:"tag"`
}

func (a *App) handleHealth(c echo.Context) error {
	status := healthStatus{Status: "ok", Tag: a.Config.BuildTag}
	if report, err := ReadManifest(a.Config.OutputDir); err == nil {
		status.BuildID = report.ID
	}
	return c.JSON(http.StatusOK, status)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", logfields.Path(c.Request().URL.Path), logfields.Error(err))
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
