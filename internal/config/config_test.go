package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/disasterscope/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.NearbyRadiusKm, convey.ShouldEqual, 100)
			convey.So(cfg.CORSOrigin, convey.ShouldEqual, "*")
			convey.So(cfg.AlertThreshold, convey.ShouldEqual, 70)
			convey.So(cfg.AlertRecipient, convey.ShouldEqual, "1945")
			convey.So(cfg.AlertCooldown, convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.CacheTTL, convey.ShouldEqual, 0)
			convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 0)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then relative file names resolve against their directories", func() {
			convey.So(cfg.ModelPath(cfg.FloodModel), convey.ShouldEqual, filepath.Join("models", "flood_model.json"))
			convey.So(cfg.DataPath(cfg.WildfireData), convey.ShouldEqual, filepath.Join("data", "wildfires.csv"))
		})

		convey.Convey("Then absolute file names are kept", func() {
			abs := filepath.Join(string(filepath.Separator), "srv", "eq.yaml")
			convey.So(cfg.ModelPath(abs), convey.ShouldEqual, abs)
		})
	})
}
