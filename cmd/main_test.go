package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	app "github.com/okian/rankdelta/internal/app"
	"github.com/okian/rankdelta/internal/config"
	"github.com/okian/rankdelta/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("RANKDELTA_ADDR", ":8080")
			_ = os.Setenv("RANKDELTA_MAX_ITEMS", "7")
			defer func() {
				_ = os.Unsetenv("RANKDELTA_ADDR")
				_ = os.Unsetenv("RANKDELTA_MAX_ITEMS")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxItems, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When building the HTTP server", func() {
			ctx := context.Background()
			cfg := config.New()
			cfg.DataDir = ""
			svc := app.New(app.WithLogger(logger.Nop()), app.WithConfig(cfg))
			srv := newHTTPServer(ctx, ":0", svc)

			convey.Convey("Then API and docs routes should be served", func() {
				for _, path := range []string{"/healthz", "/stats", "/tables", "/api-docs", "/openapi.yaml"} {
					w := httptest.NewRecorder()
					srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("Then timeouts should be set", func() {
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
				convey.So(srv.WriteTimeout, convey.ShouldEqual, writeTimeout)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics update", func() {
			svc := app.New(app.WithLogger(logger.Nop()))

			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() { updateServiceMetrics(context.Background(), svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When the updaters' context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			svc := app.New(app.WithLogger(logger.Nop()))

			convey.Convey("Then both should return", func() {
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, svc)
				convey.So(ctx.Err(), convey.ShouldNotBeNil)
			})
		})
	})
}
