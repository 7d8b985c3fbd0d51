package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"certprep/internal/app"
	"certprep/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		t.Setenv("CERTPREP_CONFIG", "")

		convey.Reset(func() {
			for _, key := range []string{"CERTPREP_STORAGE__DRIVER", "CERTPREP_STORAGE__REDIS__ADDR", "CERTPREP_QUIZ__LIMIT"} {
				_ = os.Unsetenv(key)
			}
		})

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load("")

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Storage.Driver, convey.ShouldEqual, config.DriverFile)
				convey.So(cfg.Storage.Key, convey.ShouldEqual, "certprep_leaderboard_v1")
				convey.So(cfg.Quiz.Limit, convey.ShouldEqual, 0)
				convey.So(cfg.Quiz.Shuffle, convey.ShouldBeFalse)
				convey.So(cfg.Server.Addr, convey.ShouldEqual, ":8080")
			})
		})

		convey.Convey("When loading a YAML file", func() {
			path := filepath.Join(t.TempDir(), "certprep.yaml")
			doc := "log_level: debug\nstorage:\n  driver: sqlite\n  path: /tmp/data\nquiz:\n  limit: 65\n  shuffle: true\n  seed: 7\n"
			convey.So(os.WriteFile(path, []byte(doc), 0o600), convey.ShouldBeNil)

			cfg, err := config.Load(path)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Storage.Driver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.Storage.Path, convey.ShouldEqual, "/tmp/data")
				convey.So(cfg.Quiz.Limit, convey.ShouldEqual, 65)
				convey.So(cfg.Quiz.Shuffle, convey.ShouldBeTrue)
				convey.So(cfg.Quiz.Seed, convey.ShouldEqual, 7)
				convey.So(cfg.Storage.Key, convey.ShouldEqual, app.DefaultLeaderboardKey)
			})

			convey.Convey("And env vars override the file", func() {
				t.Setenv("CERTPREP_STORAGE__DRIVER", "redis")
				t.Setenv("CERTPREP_STORAGE__REDIS__ADDR", "cache:6379")
				t.Setenv("CERTPREP_QUIZ__LIMIT", "10")

				cfg, err := config.Load(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Storage.Driver, convey.ShouldEqual, config.DriverRedis)
				convey.So(cfg.Storage.Redis.Addr, convey.ShouldEqual, "cache:6379")
				convey.So(cfg.Quiz.Limit, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When the file is missing", func() {
			_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the storage driver is unknown", func() {
			t.Setenv("CERTPREP_STORAGE__DRIVER", "etcd")
			_, err := config.Load("")

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the limit is negative", func() {
			t.Setenv("CERTPREP_QUIZ__LIMIT", "-1")
			_, err := config.Load("")
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestTTLDuration(t *testing.T) {
	if got := config.TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := config.TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for invalid, got %s", got)
	}
	if got := config.TTLDuration("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %s", got)
	}
}
