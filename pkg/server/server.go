package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/satchelfiles/satchel/pkg/binder"
	"github.com/satchelfiles/satchel/pkg/browse"
	"github.com/satchelfiles/satchel/pkg/config"
	"github.com/satchelfiles/satchel/pkg/errcodes"
	"github.com/satchelfiles/satchel/pkg/listing"
	"github.com/satchelfiles/satchel/pkg/thumbnail"
)

func New(cfg *config.Config, cache *listing.Cache, pipeline *thumbnail.Pipeline) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	browse.RegisterRoutes(e, cache, pipeline)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(echo.Context) error {
	return errcodes.NotFound("Route")
}
