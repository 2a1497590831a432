package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/rankdelta/internal/adapters/http/api"
	service "github.com/okian/rankdelta/internal/app"
	"github.com/okian/rankdelta/internal/domain/types"
	"github.com/okian/rankdelta/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()
	ctx := context.Background()
	svc := service.New(service.WithLogger(logger.Nop()))
	snaps := []types.Snapshot{
		{Period: "2025-05", Data: types.CategoryData{"razors": {
			{"rank": 1, "name": "Karve CB", "shaves": 120},
			{"rank": 2, "name": "Blackland", "shaves": 80},
		}}},
		{Period: "2025-04", Data: types.CategoryData{"razors": {
			{"rank": 1, "name": "Blackland", "shaves": 90},
			{"rank": 2, "name": "Karve CB", "shaves": 70},
		}}},
		{Period: "2024", Data: types.CategoryData{"razors": {
			{"rank": 1, "name": "Karve CB"},
			{"rank": 2, "name": "Blackland"},
		}}},
		{Period: "2023", Data: types.CategoryData{"razors": {
			{"rank": 1, "name": "Blackland"},
			{"rank": 2, "name": "Karve CB"},
		}}},
	}
	for _, s := range snaps {
		if err := svc.AddSnapshot(ctx, s); err != nil {
			t.Fatalf("add snapshot: %v", err)
		}
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	return mux
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestServer_Monitoring(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(t)

		Convey("When requesting /healthz", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")

			Convey("Then Prometheus metrics should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "rankdelta_render_snapshots_loaded")
			})
		})

		Convey("When requesting /stats", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			var stats map[string]any
			err := json.Unmarshal(w.Body.Bytes(), &stats)

			Convey("Then service statistics should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(err, ShouldBeNil)
				So(stats["snapshots"], ShouldEqual, 4.0)
				So(stats["latest"], ShouldEqual, "2025-05")
			})
		})

		Convey("When requesting /periods and /tables", func() {
			var periods struct {
				Periods []string `json:"periods"`
			}
			var tables struct {
				Tables []string `json:"tables"`
			}
			pw := serve(mux, http.MethodGet, "/periods", "")
			tw := serve(mux, http.MethodGet, "/tables", "")

			Convey("Then both listings should be returned", func() {
				So(json.Unmarshal(pw.Body.Bytes(), &periods), ShouldBeNil)
				So(periods.Periods, ShouldResemble, []string{"2023", "2024", "2025-04", "2025-05"})
				So(json.Unmarshal(tw.Body.Bytes(), &tables), ShouldBeNil)
				So(tables.Tables, ShouldContain, "razors")
			})
		})

		Convey("When no request id is sent", func() {
			w := serve(mux, http.MethodGet, "/periods", "")

			Convey("Then one should be generated", func() {
				So(len(w.Header().Get("X-Request-ID")), ShouldEqual, 36)
			})
		})

		Convey("When a request id is sent", func() {
			req := httptest.NewRequest(http.MethodGet, "/periods", http.NoBody)
			req.Header.Set("X-Request-ID", "abc-123")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be echoed", func() {
				So(w.Header().Get("X-Request-ID"), ShouldEqual, "abc-123")
			})
		})

		Convey("When requesting an unknown route", func() {
			w := serve(mux, http.MethodGet, "/unknown", "")

			Convey("Then it should be not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestServer_Tables(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(t)

		Convey("When rendering a table for the latest period", func() {
			w := serve(mux, http.MethodGet, "/tables/razors?columns=name&rows=1", "")

			Convey("Then markdown should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "text/markdown; charset=utf-8")
				So(w.Body.String(), ShouldEqual, "| Razor |\n| --- |\n| Karve CB |")
			})
		})

		Convey("When rendering a named period", func() {
			w := serve(mux, http.MethodGet, "/tables/razors?period=2025-04&columns=name&rows=1", "")

			Convey("Then that period should be used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEndWith, "| Blackland |")
			})
		})

		Convey("When rendering with deltas", func() {
			w := serve(mux, http.MethodGet, "/tables/razors?columns=name&deltas=true", "")

			Convey("Then delta columns should be appended", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "| Karve CB | ↑1 | n/a | n/a |")
			})
		})

		Convey("When the table has no data", func() {
			w := serve(mux, http.MethodGet, "/tables/blades", "")

			Convey("Then no content should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Body.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the request is invalid", func() {
			Convey("Then an unknown table should be not found", func() {
				w := serve(mux, http.MethodGet, "/tables/lathers", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(w), ShouldEqual, "unknown_table")
			})

			Convey("Then an unknown parameter should be a bad request", func() {
				w := serve(mux, http.MethodGet, "/tables/razors?bogus=1", "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "invalid_parameters")
			})

			Convey("Then an unusable row count should be a bad request", func() {
				for _, q := range []string{"rows=two", "rows=0", "deltas=maybe"} {
					w := serve(mux, http.MethodGet, "/tables/razors?"+q, "")
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(errorCode(w), ShouldEqual, "invalid_parameters")
				}
			})

			Convey("Then a pipe in a value should be rejected", func() {
				w := serve(mux, http.MethodGet, "/tables/razors?columns=name%7Cshaves", "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})

			Convey("Then an unknown period should be not found", func() {
				w := serve(mux, http.MethodGet, "/tables/razors?period=1999-01", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(w), ShouldEqual, "not_found")
			})
		})
	})
}

func TestServer_Render(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(t)

		Convey("When posting a template", func() {
			w := serve(mux, http.MethodPost, "/render?period=2025-05", "# Razors\n{{tables.razors|rows:1|columns:name}}")

			Convey("Then the rendered document should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "# Razors\n| Razor |\n| --- |\n| Karve CB |")
			})
		})

		Convey("When posting an empty body", func() {
			w := serve(mux, http.MethodPost, "/render", "")

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a placeholder is malformed", func() {
			w := serve(mux, http.MethodPost, "/render", "{{tables.razors|rows}}")

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "invalid_placeholder")
			})
		})

		Convey("When using the wrong method", func() {
			w := serve(mux, http.MethodGet, "/render", "")

			Convey("Then it should not be allowed", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestServer_Deltas(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(t)

		Convey("When requesting category deltas", func() {
			w := serve(mux, http.MethodGet, "/deltas/2025-05?category=razors", "")
			var out map[string][]map[string]any
			err := json.Unmarshal(w.Body.Bytes(), &out)

			Convey("Then rows should carry delta symbols", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(err, ShouldBeNil)
				So(out["razors"][0]["delta_symbol"], ShouldEqual, "↑1")
				So(out["razors"][1]["delta_symbol"], ShouldEqual, "↓1")
			})
		})

		Convey("When requesting tier analysis", func() {
			w := serve(mux, http.MethodGet, "/tiers/2025-05?category=razors", "")
			var out map[string]struct {
				Movement map[string]int `json:"movement"`
			}
			err := json.Unmarshal(w.Body.Bytes(), &out)

			Convey("Then movement should be reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(err, ShouldBeNil)
				So(out["razors"].Movement["Karve CB"], ShouldEqual, 1)
			})
		})

		Convey("When requesting deltas with tiers", func() {
			w := serve(mux, http.MethodGet, "/deltas/2025-05?category=razors&tiers=true", "")
			var out map[string][]map[string]any
			err := json.Unmarshal(w.Body.Bytes(), &out)

			Convey("Then rows should carry tier fields", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(err, ShouldBeNil)
				So(out["razors"][0]["tier_movement"], ShouldEqual, 1.0)
				So(out["razors"][0]["tier_structure_changed"], ShouldEqual, true)
			})
		})

		Convey("When the tiers flag is not a boolean", func() {
			w := serve(mux, http.MethodGet, "/deltas/2025-05?tiers=maybe", "")

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When requesting an annual report", func() {
			w := serve(mux, http.MethodGet, "/annual/2024", "")
			var out struct {
				Year       string                      `json:"year"`
				Compared   []string                    `json:"compared"`
				Columns    map[string]any              `json:"columns"`
				Categories map[string][]map[string]any `json:"categories"`
			}
			err := json.Unmarshal(w.Body.Bytes(), &out)

			Convey("Then deltas and column descriptors should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(err, ShouldBeNil)
				So(out.Compared, ShouldResemble, []string{"2023"})
				So(out.Columns, ShouldContainKey, "delta_rank_2023")
				So(out.Categories["razors"][0]["delta_symbol_2023"], ShouldEqual, "↑1")
			})
		})

		Convey("When requesting an unknown year", func() {
			w := serve(mux, http.MethodGet, "/annual/2030", "")

			Convey("Then it should be not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the comparison period is left empty", func() {
			w := serve(mux, http.MethodGet, "/deltas/2025-05?against=", "")
			bad := serve(mux, http.MethodGet, "/tiers/may", "")

			Convey("Then the default window is used and unknown periods are not found", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(bad.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
