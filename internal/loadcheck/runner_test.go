package loadcheck_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/StacL/tdd/internal/adapters/http/api"
	service "github.com/StacL/tdd/internal/app"
	"github.com/StacL/tdd/internal/loadcheck"
	"github.com/StacL/tdd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func quietLogger() logger.Logger {
	l, err := logger.New(io.Discard, logger.FormatText)
	if err != nil {
		panic(err)
	}
	return l
}

func newServer(svc *service.Service) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestRunner_AgainstService(t *testing.T) {
	Convey("Given a running counter service", t, func() {
		svc := service.New(service.WithLogger(quietLogger()), service.WithShardCount(4))
		srv := newServer(svc)
		defer srv.Close()
		defer svc.Stop()

		cfg := &loadcheck.Config{
			BaseURL:    srv.URL,
			Counters:   8,
			Increments: 25,
			Workers:    16,
			Timeout:    5 * time.Second,
			Prefix:     "test-",
		}

		Convey("When running the load check", func() {
			stats, err := loadcheck.NewRunner(cfg, quietLogger()).Run(context.Background())

			Convey("Then every step should match the counter contract", func() {
				So(err, ShouldBeNil)
				So(stats.CountersCreated, ShouldEqual, 8)
				So(stats.ConflictsObserved, ShouldEqual, 8)
				So(stats.IncrementsSent, ShouldEqual, 200)
				So(stats.IncrementsFailed, ShouldEqual, 0)
				So(stats.CountersVerified, ShouldEqual, 8)
				So(stats.CountersDeleted, ShouldEqual, 8)
				So(stats.Mismatches, ShouldEqual, 0)
			})

			Convey("And the store should be empty afterwards", func() {
				So(svc.Count(context.Background()), ShouldEqual, 0)
			})
		})
	})
}

func TestRunner_DetectsMismatch(t *testing.T) {
	Convey("Given a service that drops every other increment", t, func() {
		svc := service.New(service.WithLogger(quietLogger()))
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc).Register(context.Background(), mux)

		var n atomic.Int64
		lossy := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPut && n.Add(1)%2 == 0 {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{}`))
				return
			}
			mux.ServeHTTP(w, r)
		})
		srv := httptest.NewServer(lossy)
		defer srv.Close()

		cfg := &loadcheck.Config{
			BaseURL:    srv.URL,
			Counters:   2,
			Increments: 4,
			Workers:    1,
			Timeout:    5 * time.Second,
		}

		Convey("When running the load check", func() {
			stats, err := loadcheck.NewRunner(cfg, quietLogger()).Run(context.Background())

			Convey("Then it should report a verification failure", func() {
				So(errors.Is(err, loadcheck.ErrVerification), ShouldBeTrue)
				So(stats.Mismatches, ShouldBeGreaterThan, 0)
				So(stats.CountersVerified, ShouldBeLessThan, 2)
			})
		})
	})
}

func TestRunner_Unhealthy(t *testing.T) {
	Convey("Given a server whose health endpoint fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		cfg := &loadcheck.Config{BaseURL: srv.URL, Counters: 1, Increments: 1, Workers: 1, Timeout: time.Second}

		Convey("Then the run should stop before creating counters", func() {
			stats, err := loadcheck.NewRunner(cfg, quietLogger()).Run(context.Background())
			So(errors.Is(err, loadcheck.ErrUnhealthy), ShouldBeTrue)
			So(stats, ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	Convey("Given load check configurations", t, func() {
		valid := loadcheck.Config{BaseURL: "http://x", Counters: 1, Increments: 0, Workers: 1}

		Convey("Then a complete config should pass", func() {
			So(valid.Validate(), ShouldBeNil)
		})

		Convey("And missing values should be rejected", func() {
			c := valid
			c.BaseURL = ""
			So(c.Validate(), ShouldNotBeNil)

			c = valid
			c.Counters = 0
			So(c.Validate(), ShouldNotBeNil)

			c = valid
			c.Increments = -1
			So(c.Validate(), ShouldNotBeNil)

			c = valid
			c.Workers = 0
			So(c.Validate(), ShouldNotBeNil)
		})
	})
}
