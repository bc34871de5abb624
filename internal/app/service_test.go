package service_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/StacL/tdd/internal/adapters/repository"
	service "github.com/StacL/tdd/internal/app"
	"github.com/StacL/tdd/internal/domain/counter"
	"github.com/StacL/tdd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Setup(io.Discard, logger.FormatText); err != nil {
		panic(err)
	}
}

var errBroken = errors.New("store broken")

// brokenStore fails every call with a non-domain error.
type brokenStore struct {
	closed bool
}

func (b *brokenStore) Create(context.Context, string) (counter.Counter, error) {
	return counter.Counter{}, errBroken
}
func (b *brokenStore) Increment(context.Context, string) (counter.Counter, error) {
	return counter.Counter{}, errBroken
}
func (b *brokenStore) Get(context.Context, string) (counter.Counter, error) {
	return counter.Counter{}, errBroken
}
func (b *brokenStore) Delete(context.Context, string) error { return errBroken }
func (b *brokenStore) Count(context.Context) int            { return 0 }
func (b *brokenStore) Close() error {
	b.closed = true
	return nil
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should not be started yet", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldBeFalse)
			So(svc.GetStats()["shardCount"], ShouldEqual, 16)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(service.WithShardCount(2), service.WithLogger(logger.Get()))

		Convey("Then the options should be applied", func() {
			So(svc.GetStats()["shardCount"], ShouldEqual, 2)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New()
		defer svc.Stop()

		Convey("When starting the service twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should report started with no counters", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["totalCounters"], ShouldEqual, 0)
			})
		})

		Convey("When stopping and starting again", func() {
			So(svc.Start(ctx), ShouldBeNil)
			_, err := svc.Create(ctx, "foo")
			So(err, ShouldBeNil)
			svc.Stop()
			svc.Stop()
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then the counters should be gone", func() {
				So(svc.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When calling an operation before Start", func() {
			res, err := svc.Create(ctx, "lazy")

			Convey("Then the service should start on demand", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, counter.OutcomeCreated)
				So(svc.GetStats()["started"], ShouldBeTrue)
			})
		})
	})
}

func TestService_Operations(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When creating a new counter", func() {
			res, err := svc.Create(ctx, "foo")

			Convey("Then it should start at zero", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, counter.OutcomeCreated)
				So(res.Name, ShouldEqual, "foo")
				So(res.Value, ShouldEqual, 0)
			})

			Convey("And creating it again should conflict without changing it", func() {
				_, err := svc.Increment(ctx, "foo")
				So(err, ShouldBeNil)

				res, err := svc.Create(ctx, "foo")
				So(errors.Is(err, counter.ErrAlreadyExists), ShouldBeTrue)
				So(res.Outcome, ShouldEqual, counter.OutcomeAlreadyExists)
				So(res.Value, ShouldEqual, 1)

				read, err := svc.Read(ctx, "foo")
				So(err, ShouldBeNil)
				So(read.Value, ShouldEqual, 1)
			})
		})

		Convey("When incrementing k times", func() {
			_, err := svc.Create(ctx, "bar")
			So(err, ShouldBeNil)

			const k = 7
			var last counter.Result
			for i := 0; i < k; i++ {
				last, err = svc.Increment(ctx, "bar")
				So(err, ShouldBeNil)
			}

			Convey("Then the value should be k", func() {
				So(last.Outcome, ShouldEqual, counter.OutcomeIncremented)
				So(last.Value, ShouldEqual, k)

				read, err := svc.Read(ctx, "bar")
				So(err, ShouldBeNil)
				So(read.Outcome, ShouldEqual, counter.OutcomeRead)
				So(read.Value, ShouldEqual, k)
			})
		})

		Convey("When deleting a counter twice", func() {
			_, err := svc.Create(ctx, "far")
			So(err, ShouldBeNil)

			first, err := svc.Delete(ctx, "far")
			So(err, ShouldBeNil)
			second, secondErr := svc.Delete(ctx, "far")

			Convey("Then only the first delete should succeed", func() {
				So(first.Outcome, ShouldEqual, counter.OutcomeDeleted)
				So(errors.Is(secondErr, counter.ErrNotFound), ShouldBeTrue)
				So(second.Outcome, ShouldEqual, counter.OutcomeNotFound)
			})
		})

		Convey("When operating on a name never created", func() {
			_, incErr := svc.Increment(ctx, "missing")
			readRes, readErr := svc.Read(ctx, "missing")
			_, delErr := svc.Delete(ctx, "missing")

			Convey("Then every operation should report not found", func() {
				So(errors.Is(incErr, counter.ErrNotFound), ShouldBeTrue)
				So(errors.Is(readErr, counter.ErrNotFound), ShouldBeTrue)
				So(errors.Is(delErr, counter.ErrNotFound), ShouldBeTrue)
				So(readRes.Name, ShouldEqual, "missing")
				So(svc.Count(ctx), ShouldEqual, 0)
			})
		})
	})
}

func TestService_WithStore(t *testing.T) {
	Convey("Given a service with an injected store", t, func() {
		ctx := context.Background()

		Convey("When the store is a sharded store", func() {
			store := repository.NewShardedStore(ctx, repository.WithShardCount(1))
			svc := service.New(service.WithStore(store))
			_, err := svc.Create(ctx, "shared")
			So(err, ShouldBeNil)
			svc.Stop()

			Convey("Then the store should keep its counters after Stop", func() {
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the store fails with an unexpected error", func() {
			store := &brokenStore{}
			svc := service.New(service.WithStore(store))

			_, createErr := svc.Create(ctx, "x")
			_, incErr := svc.Increment(ctx, "x")
			_, readErr := svc.Read(ctx, "x")
			_, delErr := svc.Delete(ctx, "x")
			svc.Stop()

			Convey("Then the error should be wrapped, not mapped to a domain error", func() {
				for _, err := range []error{createErr, incErr, readErr, delErr} {
					So(errors.Is(err, errBroken), ShouldBeTrue)
					So(errors.Is(err, counter.ErrNotFound), ShouldBeFalse)
					So(errors.Is(err, counter.ErrAlreadyExists), ShouldBeFalse)
				}
				So(store.closed, ShouldBeTrue)
			})
		})
	})
}
