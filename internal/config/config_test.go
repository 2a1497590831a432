package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/rankdelta/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DataDir, convey.ShouldEqual, "data")
			convey.So(cfg.MaxItems, convey.ShouldEqual, 20)
			convey.So(cfg.RowOverflowRatio, convey.ShouldEqual, 1.5)
			convey.So(cfg.LowerIsBetter, convey.ShouldContain, "missed")
			convey.So(cfg.RenderTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given configs that break an invariant", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":      func(c *config.Config) { c.Addr = "" },
			"zero max items":  func(c *config.Config) { c.MaxItems = 0 },
			"shrinking ratio": func(c *config.Config) { c.RowOverflowRatio = 0.5 },
			"negative timeout": func(c *config.Config) {
				c.RenderTimeoutMS = -1
			},
		}

		convey.Convey("Then each should fail validation with ErrInvalidConfig", func() {
			for _, mutate := range cases {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}
