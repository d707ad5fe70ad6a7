package config_test

import (
	"context"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/classlens/classlens/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.DisagreementThreshold, convey.ShouldEqual, 1.5)
			convey.So(cfg.ConflictFactor, convey.ShouldEqual, -0.25)
			convey.So(cfg.MergeRetries, convey.ShouldEqual, 3)
			convey.So(cfg.MaxClassroomSize, convey.ShouldEqual, 200)
		})
	})
}
