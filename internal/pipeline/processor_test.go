package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dunamismax/pixelshrink/internal/codec"
	"github.com/dunamismax/pixelshrink/internal/domain"
	"github.com/dunamismax/pixelshrink/internal/orientation"
	"github.com/dunamismax/pixelshrink/internal/testimage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type countingDecoder struct {
	calls atomic.Int32
	next  codec.Decoder
}

func (d *countingDecoder) Decode(data []byte) (image.Image, error) {
	d.calls.Add(1)
	return d.next.Decode(data)
}

// blankDecoder skips real decoding and returns an image of fixed size.
type blankDecoder struct {
	width, height int
}

func (d blankDecoder) Decode([]byte) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, d.width, d.height)), nil
}

type recordingEncoder struct {
	width, height int
	mimeType      string
	quality       float64
}

func (e *recordingEncoder) Encode(img image.Image, mimeType string, quality float64) ([]byte, error) {
	e.width, e.height = img.Bounds().Dx(), img.Bounds().Dy()
	e.mimeType, e.quality = mimeType, quality
	return []byte("encoded"), nil
}

type failingEncoder struct{}

func (failingEncoder) Encode(image.Image, string, float64) ([]byte, error) {
	return nil, errors.New("encoder exploded")
}

type fixedOrientation orientation.Code

func (f fixedOrientation) Orientation(context.Context, []byte) (orientation.Code, error) {
	return orientation.Code(f), nil
}

// slowOrientation blocks until its own short deadline expires.
type slowOrientation struct{}

func (slowOrientation) Orientation(ctx context.Context, _ []byte) (orientation.Code, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	<-ctx.Done()
	return orientation.Identity, fmt.Errorf("read orientation: %w", ctx.Err())
}

func newTestProcessor(t *testing.T, cfg Config) *Processor {
	t.Helper()

	p, err := NewProcessor(cfg)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	return p
}

func TestProcessRejectsMissingInput(t *testing.T) {
	decoder := &countingDecoder{next: codec.StdDecoder{}}
	p := newTestProcessor(t, Config{Decoder: decoder})

	_, err := p.Process(context.Background(), nil)
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	if got := decoder.calls.Load(); got != 0 {
		t.Fatalf("expected no decode attempts, got %d", got)
	}
}

func TestProcessRejectsNonImageType(t *testing.T) {
	decoder := &countingDecoder{next: codec.StdDecoder{}}
	p := newTestProcessor(t, Config{Decoder: decoder})

	_, err := p.Process(context.Background(), &domain.Blob{Type: "text/plain", Data: []byte("hello")})
	if !errors.Is(err, ErrUnsupportedInputType) {
		t.Fatalf("expected ErrUnsupportedInputType, got %v", err)
	}
	if got := decoder.calls.Load(); got != 0 {
		t.Fatalf("expected no decode attempts, got %d", got)
	}
}

func TestProcessReportsDecodeFailure(t *testing.T) {
	p := newTestProcessor(t, Config{})

	_, err := p.Process(context.Background(), &domain.Blob{Type: domain.MIMEJPEG, Data: []byte("not really a jpeg")})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestProcessReportsEncodeFailure(t *testing.T) {
	p := newTestProcessor(t, Config{Encoder: failingEncoder{}})

	_, err := p.Process(context.Background(), &domain.Blob{Type: domain.MIMEPNG, Data: testimage.PNG(t, 40, 30)})
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
	if !strings.Contains(err.Error(), "encoder exploded") {
		t.Fatalf("expected underlying cause in error, got %v", err)
	}
}

func TestProcessLargeRotatedPhoto(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates full-size 4000x3000 surfaces")
	}

	encoder := &recordingEncoder{}
	p := newTestProcessor(t, Config{
		Decoder:     blankDecoder{width: 4000, height: 3000},
		Encoder:     encoder,
		Orientation: fixedOrientation(orientation.Rotate90),
	})

	result, err := p.Process(context.Background(), &domain.Blob{Type: domain.MIMEJPEG, Data: []byte("photo")})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if result.Source.Width != 4000 || result.Source.Height != 3000 {
		t.Fatalf("expected source 4000x3000, got %dx%d", result.Source.Width, result.Source.Height)
	}

	// Upright is 3000x4000; fit into 1000x618 gives scale 0.1545.
	wantW, wantH := expectedSize(3000, 4000, 618.0/4000)
	if result.Result.Width != wantW || result.Result.Height != wantH {
		t.Fatalf("expected %dx%d, got %dx%d", wantW, wantH, result.Result.Width, result.Result.Height)
	}
	if abs(result.Result.Width-463) > 3 || abs(result.Result.Height-618) > 3 {
		t.Fatalf("expected roughly 463x618, got %dx%d", result.Result.Width, result.Result.Height)
	}
	if encoder.width != result.Result.Width || encoder.height != result.Result.Height {
		t.Fatalf("expected encoder to see %dx%d, got %dx%d", result.Result.Width, result.Result.Height, encoder.width, encoder.height)
	}
	if encoder.mimeType != domain.MIMEJPEG || encoder.quality != domain.DefaultOutputQuality {
		t.Fatalf("expected default encode target, got %s q=%v", encoder.mimeType, encoder.quality)
	}
}

func TestProcessSmallImageKeepsSize(t *testing.T) {
	encoder := &recordingEncoder{}
	p := newTestProcessor(t, Config{Encoder: encoder})

	result, err := p.Process(context.Background(), &domain.Blob{Type: domain.MIMEPNG, Data: testimage.PNG(t, 200, 100)})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Result.Width != 200 || result.Result.Height != 100 {
		t.Fatalf("expected 200x100, got %dx%d", result.Result.Width, result.Result.Height)
	}
	if result.Source.Type != domain.MIMEPNG || result.Result.Type != domain.MIMEJPEG {
		t.Fatalf("expected png to jpeg, got %s to %s", result.Source.Type, result.Result.Type)
	}
}

func TestProcessScalesWithoutOrientation(t *testing.T) {
	p := newTestProcessor(t, Config{Output: domain.OutputSpec{Type: domain.MIMEPNG, Width: 100, Height: 100}})

	result, err := p.Process(context.Background(), &domain.Blob{Type: domain.MIMEPNG, Data: testimage.PNG(t, 400, 200)})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Result.Width != 100 || result.Result.Height != 50 {
		t.Fatalf("expected 100x50, got %dx%d", result.Result.Width, result.Result.Height)
	}

	decoded, err := codec.StdDecoder{}.Decode(result.Result.Data)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != result.Result.Width || b.Dy() != result.Result.Height {
		t.Fatalf("expected encoded bytes to be %dx%d, got %v", result.Result.Width, result.Result.Height, b)
	}
}

func TestProcessAppliesExifOrientation(t *testing.T) {
	data := testimage.WithOrientation(t, testimage.JPEG(t, 120, 60), int(orientation.Rotate90))
	p := newTestProcessor(t, Config{})

	result, err := p.Process(context.Background(), &domain.Blob{Type: domain.MIMEJPEG, Data: data})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Source.Width != 120 || result.Source.Height != 60 {
		t.Fatalf("expected raw source 120x60, got %dx%d", result.Source.Width, result.Source.Height)
	}
	if result.Result.Width != 60 || result.Result.Height != 120 {
		t.Fatalf("expected upright 60x120, got %dx%d", result.Result.Width, result.Result.Height)
	}
	if !bytes.Equal(result.Source.Data, data) {
		t.Fatal("expected source blob to be passed through")
	}
}

func TestProcessDecodesEveryCall(t *testing.T) {
	decoder := &countingDecoder{next: codec.StdDecoder{}}
	p := newTestProcessor(t, Config{Decoder: decoder})
	file := &domain.Blob{Type: domain.MIMEPNG, Data: testimage.PNG(t, 30, 20)}

	first, err := p.Process(context.Background(), file)
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	second, err := p.Process(context.Background(), file)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}

	if got := decoder.calls.Load(); got != 2 {
		t.Fatalf("expected 2 decodes, got %d", got)
	}
	if first.Result.Width != second.Result.Width || first.Result.Height != second.Result.Height {
		t.Fatalf("expected identical results, got %dx%d and %dx%d", first.Result.Width, first.Result.Height, second.Result.Width, second.Result.Height)
	}
}

func TestNewProcessorLogsOutputFallback(t *testing.T) {
	var logs bytes.Buffer
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	p := newTestProcessor(t, Config{
		Output:  domain.OutputSpec{Type: "image/gif"},
		Logger:  log.New(&logs, "", 0),
		Metrics: metrics,
	})

	if p.Output().Type != domain.MIMEJPEG {
		t.Fatalf("expected fallback to jpeg, got %s", p.Output().Type)
	}
	if !strings.Contains(logs.String(), "warning:") || !strings.Contains(logs.String(), "image/gif") {
		t.Fatalf("expected fallback warning in logs, got %q", logs.String())
	}
	if got := testutil.ToFloat64(metrics.outputFallbacks); got != 1 {
		t.Fatalf("expected 1 fallback recorded, got %v", got)
	}
}

func TestNewProcessorRejectsNegativeBounds(t *testing.T) {
	_, err := NewProcessor(Config{Output: domain.OutputSpec{Width: -1}})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestProcessLogsOrientationTimeout(t *testing.T) {
	var logs bytes.Buffer
	p := newTestProcessor(t, Config{
		Logger:      log.New(&logs, "", 0),
		Orientation: slowOrientation{},
	})

	result, err := p.Process(context.Background(), &domain.Blob{Type: domain.MIMEPNG, Data: testimage.PNG(t, 80, 40)})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Result.Width != 80 || result.Result.Height != 40 {
		t.Fatalf("expected identity orientation, got %dx%d", result.Result.Width, result.Result.Height)
	}
	if !strings.Contains(logs.String(), "timed out") {
		t.Fatalf("expected timeout to be logged, got %q", logs.String())
	}
}

func TestProcessRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	p := newTestProcessor(t, Config{
		Metrics: metrics,
		Output:  domain.OutputSpec{Width: 50, Height: 50},
	})

	source := testimage.PNG(t, 200, 100)
	result, err := p.Process(context.Background(), &domain.Blob{Type: domain.MIMEPNG, Data: source})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := p.Process(context.Background(), nil); err == nil {
		t.Fatal("expected nil input to fail")
	}

	if got := testutil.ToFloat64(metrics.processedTotal.WithLabelValues(outcomeSucceeded)); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.processedTotal.WithLabelValues(outcomeFailed)); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.orientationTotal.WithLabelValues("1")); got != 1 {
		t.Fatalf("expected 1 identity orientation, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.sourceBytesTotal); got != float64(len(source)) {
		t.Fatalf("expected %d source bytes, got %v", len(source), got)
	}
	if got := testutil.ToFloat64(metrics.resultBytesTotal); got != float64(result.Result.Size()) {
		t.Fatalf("expected %d result bytes, got %v", result.Result.Size(), got)
	}
	if got := testutil.CollectAndCount(metrics.stageDuration); got != 5 {
		t.Fatalf("expected 5 stage series, got %d", got)
	}
}

func TestProcessAsyncDeliversOutcome(t *testing.T) {
	p := newTestProcessor(t, Config{})

	select {
	case outcome := <-p.ProcessAsync(context.Background(), &domain.Blob{Type: domain.MIMEPNG, Data: testimage.PNG(t, 20, 10)}):
		if outcome.Err != nil {
			t.Fatalf("process async: %v", outcome.Err)
		}
		if outcome.Result.Result.Width != 20 || outcome.Result.Result.Height != 10 {
			t.Fatalf("expected 20x10, got %dx%d", outcome.Result.Result.Width, outcome.Result.Result.Height)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outcome")
	}
}

func TestProcessAsyncDeliversFailure(t *testing.T) {
	p := newTestProcessor(t, Config{})

	outcome := <-p.ProcessAsync(context.Background(), nil)
	if !errors.Is(outcome.Err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", outcome.Err)
	}
}

func TestProcessAsyncUsesCustomScheduler(t *testing.T) {
	var scheduled atomic.Int32
	inline := SchedulerFunc(func(task func()) {
		scheduled.Add(1)
		task()
	})
	p := newTestProcessor(t, Config{Scheduler: inline})

	outcome := <-p.ProcessAsync(context.Background(), &domain.Blob{Type: domain.MIMEPNG, Data: testimage.PNG(t, 20, 10)})
	if outcome.Err != nil {
		t.Fatalf("process async: %v", outcome.Err)
	}
	if got := scheduled.Load(); got != 1 {
		t.Fatalf("expected 1 scheduled task, got %d", got)
	}
}

func TestUseSchedulerRejectsNil(t *testing.T) {
	p := newTestProcessor(t, Config{})

	if err := p.UseScheduler(nil); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	var fn SchedulerFunc
	if err := p.UseScheduler(fn); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for nil func, got %v", err)
	}
}

func TestZeroProcessorIsMisconfigured(t *testing.T) {
	var p Processor

	if _, err := p.Process(context.Background(), &domain.Blob{Type: domain.MIMEPNG}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	outcome := <-p.ProcessAsync(context.Background(), nil)
	if !errors.Is(outcome.Err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration from async, got %v", outcome.Err)
	}
}
