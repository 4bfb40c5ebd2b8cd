package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given no file and no env overrides", t, func() {
		os.Unsetenv("PREDICTFUND_CONFIG")

		cfg, err := Load(context.Background())

		Convey("Then defaults should load", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9090")
			So(cfg.LookbackBlocks, ShouldEqual, 10_000)
		})
	})

	Convey("Given env overrides", t, func() {
		os.Setenv("PREDICTFUND_ADDR", ":7070")
		os.Setenv("PREDICTFUND_LOOKBACK_BLOCKS", "5000")
		defer os.Unsetenv("PREDICTFUND_ADDR")
		defer os.Unsetenv("PREDICTFUND_LOOKBACK_BLOCKS")

		cfg, err := Load(context.Background())

		Convey("Then env values should win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.LookbackBlocks, ShouldEqual, 5000)
		})
	})

	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "engine.yaml")
		yaml := "addr: \":6060\"\nmin_predictions: 5\ncache_ttl_seconds: 60\n"
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
		os.Setenv("PREDICTFUND_CONFIG", path)
		defer os.Unsetenv("PREDICTFUND_CONFIG")

		cfg, err := Load(context.Background())

		Convey("Then file values should apply", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.MinPredictions, ShouldEqual, 5)
			So(cfg.CacheTTLSeconds, ShouldEqual, 60)
		})
	})

	Convey("Given an invalid override", t, func() {
		os.Setenv("PREDICTFUND_CACHE_TTL_SECONDS", "0")
		defer os.Unsetenv("PREDICTFUND_CACHE_TTL_SECONDS")

		_, err := Load(context.Background())

		Convey("Then loading should fail with an invalid-config kind", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
