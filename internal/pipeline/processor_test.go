package pipeline_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/pipeline"
)

// stubProvider is a scriptable Provider for pipeline tests.
type stubProvider struct {
	name      string
	available bool
	reply     string
	err       error
	delay     time.Duration
	calls     int32
}

func (p *stubProvider) Name() string    { return p.name }
func (p *stubProvider) Available() bool { return p.available }

func (p *stubProvider) Extract(ctx context.Context, _ []byte) (string, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%s: %w", p.name, common.ErrTimeout)
		}
	}
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *stubProvider) callCount() int32 { return atomic.LoadInt32(&p.calls) }

const goodReply = `{"ball_speed": 150.2, "launch_angle": 12.5}`

func TestProcessorProcess(t *testing.T) {
	ctx := context.Background()
	image := []byte("jpeg bytes")

	Convey("Given a primary that succeeds", t, func() {
		primary := &stubProvider{name: "gemini", available: true, reply: goodReply}
		fallback := &stubProvider{name: "openai", available: true, reply: goodReply}
		proc := pipeline.NewProcessor(nil, time.Second, primary, fallback)

		Convey("When processing", func() {
			res, err := proc.Process(ctx, image)

			Convey("Then the primary wins and the fallback is never called", func() {
				So(err, ShouldBeNil)
				So(res.Provider, ShouldEqual, "gemini")
				So(*res.Metrics.BallSpeed, ShouldEqual, 150.2)
				So(primary.callCount(), ShouldEqual, 1)
				So(fallback.callCount(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a primary that fails", t, func() {
		primary := &stubProvider{name: "gemini", available: true,
			err: fmt.Errorf("gemini: %w", common.ErrRemote)}
		fallback := &stubProvider{name: "openai", available: true, reply: goodReply}
		proc := pipeline.NewProcessor(nil, time.Second, primary, fallback)

		Convey("When processing", func() {
			res, err := proc.Process(ctx, image)

			Convey("Then the fallback result is returned", func() {
				So(err, ShouldBeNil)
				So(res.Provider, ShouldEqual, "openai")
				So(primary.callCount(), ShouldEqual, 1)
				So(fallback.callCount(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a primary whose output has no usable data", t, func() {
		primary := &stubProvider{name: "gemini", available: true,
			reply: "I cannot read the display in this photo."}
		fallback := &stubProvider{name: "openai", available: true, reply: goodReply}
		proc := pipeline.NewProcessor(nil, time.Second, primary, fallback)

		Convey("When processing", func() {
			res, err := proc.Process(ctx, image)

			Convey("Then unparseable output advances to the fallback", func() {
				So(err, ShouldBeNil)
				So(res.Provider, ShouldEqual, "openai")
			})
		})
	})

	Convey("Given an unavailable primary", t, func() {
		primary := &stubProvider{name: "gemini", available: false}
		fallback := &stubProvider{name: "openai", available: true, reply: goodReply}
		proc := pipeline.NewProcessor(nil, time.Second, primary, fallback)

		Convey("When processing", func() {
			res, err := proc.Process(ctx, image)

			Convey("Then it is skipped without a call", func() {
				So(err, ShouldBeNil)
				So(res.Provider, ShouldEqual, "openai")
				So(primary.callCount(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a primary that eats the whole budget", t, func() {
		primary := &stubProvider{name: "gemini", available: true,
			reply: goodReply, delay: 500 * time.Millisecond}
		fallback := &stubProvider{name: "openai", available: true, reply: goodReply}
		proc := pipeline.NewProcessor(nil, 50*time.Millisecond, primary, fallback)

		Convey("When processing", func() {
			_, err := proc.Process(ctx, image)

			Convey("Then the fallback is skipped without a call", func() {
				So(err, ShouldWrap, common.ErrAllProvidersExhausted)
				So(err, ShouldWrap, common.ErrTimeout)
				So(primary.callCount(), ShouldEqual, 1)
				So(fallback.callCount(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given no provider can serve", t, func() {
		primary := &stubProvider{name: "gemini", available: false}
		fallback := &stubProvider{name: "openai", available: true,
			err: fmt.Errorf("openai: %w", common.ErrAuth)}
		proc := pipeline.NewProcessor(nil, time.Second, primary, fallback)

		Convey("When processing", func() {
			res, err := proc.Process(ctx, image)

			Convey("Then the error names exhaustion and keeps the last failure", func() {
				So(res, ShouldBeNil)
				So(err, ShouldWrap, common.ErrAllProvidersExhausted)
				So(err, ShouldWrap, common.ErrAuth)
			})
		})
	})

	Convey("Given an empty provider chain", t, func() {
		proc := pipeline.NewProcessor(nil, time.Second)

		Convey("When processing", func() {
			res, err := proc.Process(ctx, image)

			Convey("Then the request fails as exhausted", func() {
				So(res, ShouldBeNil)
				So(err, ShouldWrap, common.ErrAllProvidersExhausted)
			})
		})
	})
}
