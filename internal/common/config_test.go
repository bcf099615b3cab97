package common_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/joseph-ayodele/shot-tracker/constants"
	"github.com/joseph-ayodele/shot-tracker/internal/common"
)

// clearConfigEnv unsets every SHOTS_* variable for the test, restoring the
// original values afterwards via t.Setenv's cleanup.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "SHOTS_") {
			continue
		}
		key := kv[:strings.IndexByte(kv, '=')]
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefault(t *testing.T) {
	Convey("Given the built-in defaults", t, func() {
		cfg := common.Default()

		Convey("Then the daily limits and budget match the documented values", func() {
			So(cfg.Quota.DailyLimitAuth, ShouldEqual, constants.DefaultDailyLimitAuth)
			So(cfg.Quota.DailyLimitAnon, ShouldEqual, constants.DefaultDailyLimitAnon)
			So(cfg.Extraction.BudgetMS, ShouldEqual, constants.DefaultBudgetMS)
			So(cfg.Ledger.Backend, ShouldEqual, "sqlite")
			So(cfg.Server.Addr, ShouldEqual, ":8080")
		})

		Convey("And the defaults validate", func() {
			So(cfg.Validate(), ShouldBeNil)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given only defaults", t, func() {
		clearConfigEnv(t)
		cfg, err := common.Load()

		Convey("Then Load returns the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Quota.DailyLimitAuth, ShouldEqual, constants.DefaultDailyLimitAuth)
		})
	})

	Convey("Given env overrides", t, func() {
		clearConfigEnv(t)
		t.Setenv("SHOTS_QUOTA__DAILY_LIMIT_AUTH", "50")
		t.Setenv("SHOTS_SERVER__ADDR", ":9090")

		cfg, err := common.Load()

		Convey("Then nested env keys override the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Quota.DailyLimitAuth, ShouldEqual, 50)
			So(cfg.Server.Addr, ShouldEqual, ":9090")
			So(cfg.Quota.DailyLimitAnon, ShouldEqual, constants.DefaultDailyLimitAnon)
		})
	})

	Convey("Given a YAML file plus an env override", t, func() {
		clearConfigEnv(t)
		path := filepath.Join(t.TempDir(), "shots.yaml")
		yaml := "quota:\n  daily_limit_auth: 40\nextraction:\n  budget_ms: 1500\n"
		So(os.WriteFile(path, []byte(yaml), 0o644), ShouldBeNil)
		t.Setenv("SHOTS_CONFIG", path)
		t.Setenv("SHOTS_QUOTA__DAILY_LIMIT_AUTH", "60")

		cfg, err := common.Load()

		Convey("Then env wins over file, file wins over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Quota.DailyLimitAuth, ShouldEqual, 60)
			So(cfg.Extraction.BudgetMS, ShouldEqual, 1500)
		})
	})

	Convey("Given an invalid override", t, func() {
		clearConfigEnv(t)
		t.Setenv("SHOTS_LEDGER__BACKEND", "mongodb")

		_, err := common.Load()

		Convey("Then validation rejects the backend", func() {
			So(err, ShouldWrap, common.ErrInvalidInput)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a postgres backend without a DSN", t, func() {
		cfg := common.Default()
		cfg.Ledger.Backend = "postgres"

		Convey("Then validation fails", func() {
			So(cfg.Validate(), ShouldWrap, common.ErrInvalidInput)
		})
	})

	Convey("Given a zero budget", t, func() {
		cfg := common.Default()
		cfg.Extraction.BudgetMS = 0

		Convey("Then validation fails", func() {
			So(cfg.Validate(), ShouldWrap, common.ErrInvalidInput)
		})
	})
}
