package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initializing with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get should return a logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When setting up with an unknown format", func() {
			err := Setup(&bytes.Buffer{}, "xml")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log format")
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		l, err := New(&buf, FormatJSON)
		So(err, ShouldBeNil)
		So(SetLevelString("info"), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging an info entry with fields", func() {
			l.Info(ctx, "Request to create counter: foo", String("name", "foo"), Int64("value", 0))

			Convey("Then the entry should carry message, fields and source", func() {
				var entry map[string]any
				So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
				So(entry["msg"], ShouldEqual, "Request to create counter: foo")
				So(entry["level"], ShouldEqual, "INFO")
				So(entry["name"], ShouldEqual, "foo")
				So(entry["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging below the current level", func() {
			l.Debug(ctx, "hidden")

			Convey("Then nothing should be written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the level is lowered to debug", func() {
			So(SetLevelString("DEBUG"), ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			l.Debug(ctx, "visible")

			Convey("Then debug entries should be written", func() {
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})

		Convey("When using With and Named", func() {
			l.With(String("component", "store")).Named("repo").Warn(ctx, "slow", Error(errors.New("boom")))

			Convey("Then fields should be attached and grouped", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, `"component":"store"`)
				So(out, ShouldContainSubstring, `"repo":{`)
				So(out, ShouldContainSubstring, "boom")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		defer func() { _ = SetLevelString("info") }()

		Convey("Then known levels should be accepted", func() {
			for _, lvl := range []string{"debug", "info", "", "warn", "warning", "error", " Error "} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("And unknown levels should be rejected", func() {
			err := SetLevelString("verbose")
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "verbose"), ShouldBeTrue)
		})
	})
}
