package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/dunamismax/pixelshrink/internal/codec"
	"github.com/dunamismax/pixelshrink/internal/domain"
	"github.com/dunamismax/pixelshrink/internal/metadata"
	"github.com/dunamismax/pixelshrink/internal/orientation"
	"github.com/dunamismax/pixelshrink/internal/raster"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"
)

const DefaultMetadataTimeout = 2 * time.Second

const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
)

type OrientationReader interface {
	Orientation(ctx context.Context, data []byte) (orientation.Code, error)
}

type Config struct {
	Output domain.OutputSpec
	Logger *log.Logger

	// Optional collaborators; nil picks the default.
	Decoder      codec.Decoder
	Encoder      codec.Encoder
	Orientation  OrientationReader
	Scheduler    Scheduler
	Metrics      *Metrics
	Tracer       trace.Tracer
	Interpolator draw.Interpolator

	MetadataTimeout time.Duration
}

type Processor struct {
	logger       *log.Logger
	output       domain.OutputSpec
	decoder      codec.Decoder
	encoder      codec.Encoder
	orientation  OrientationReader
	metrics      *Metrics
	tracer       trace.Tracer
	interpolator draw.Interpolator

	mu        sync.RWMutex
	scheduler Scheduler
}

func NewProcessor(cfg Config) (*Processor, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	output, warning := cfg.Output.Resolve()
	if output.Width < 0 || output.Height < 0 {
		return nil, fmt.Errorf("%w: output bounds must be positive, got %dx%d", ErrConfiguration, output.Width, output.Height)
	}
	if warning != "" {
		logger.Printf("warning: %s", warning)
		cfg.Metrics.observeFallback()
	}

	encoder := cfg.Encoder
	if encoder == nil {
		var err error
		encoder, err = codec.NewEncoder()
		if err != nil {
			return nil, fmt.Errorf("build encoder: %w", err)
		}
	}

	p := &Processor{
		logger:       logger,
		output:       output,
		decoder:      cfg.Decoder,
		encoder:      encoder,
		orientation:  cfg.Orientation,
		metrics:      cfg.Metrics,
		tracer:       cfg.Tracer,
		interpolator: cfg.Interpolator,
		scheduler:    GoroutineScheduler,
	}
	if p.decoder == nil {
		p.decoder = codec.StdDecoder{}
	}
	if p.orientation == nil {
		timeout := cfg.MetadataTimeout
		if timeout <= 0 {
			timeout = DefaultMetadataTimeout
		}
		p.orientation = metadata.Reader{Timeout: timeout}
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer("pixelshrink/pipeline")
	}
	if p.interpolator == nil {
		p.interpolator = draw.BiLinear
	}
	if cfg.Scheduler != nil {
		if err := p.UseScheduler(cfg.Scheduler); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Output is the resolved encode target.
func (p *Processor) Output() domain.OutputSpec {
	return p.output
}

// Process decodes file, bakes in its EXIF orientation, downscales it to fit
// the output bounds and re-encodes it. Any stage failure aborts the remaining
// stages and no partial result is returned. ctx carries tracing and bounds the
// orientation lookup; it does not cancel the other stages.
func (p *Processor) Process(ctx context.Context, file *domain.Blob) (domain.Result, error) {
	if p.decoder == nil || p.encoder == nil || p.orientation == nil || p.tracer == nil {
		return domain.Result{}, fmt.Errorf("%w: processor must be built with NewProcessor", ErrConfiguration)
	}

	startedAt := time.Now()
	outcome := outcomeFailed

	ctx, span := p.tracer.Start(ctx, "pipeline.process")
	defer span.End()
	defer func() {
		p.metrics.observeProcess(outcome, time.Since(startedAt))
	}()

	result, err := p.run(ctx, span, file)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline failed")
		return domain.Result{}, err
	}

	outcome = outcomeSucceeded
	span.SetStatus(codes.Ok, "processed")
	return result, nil
}

func (p *Processor) run(ctx context.Context, span trace.Span, file *domain.Blob) (domain.Result, error) {
	if file == nil {
		return domain.Result{}, ErrMissingInput
	}
	if !domain.IsImageType(file.Type) {
		return domain.Result{}, fmt.Errorf("%w: %s", ErrUnsupportedInputType, file.Type)
	}
	span.SetAttributes(
		attribute.String("input.type", file.Type),
		attribute.Int("input.bytes", len(file.Data)),
		attribute.String("output.type", p.output.Type),
	)

	_, end := p.stage(ctx, "decode")
	img, err := p.decoder.Decode(file.Data)
	end(err)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	// Raw decoded size, before any orientation swap.
	bounds := img.Bounds()
	source := domain.ImageInfo{Blob: *file, Width: bounds.Dx(), Height: bounds.Dy()}

	code := p.readOrientation(ctx, file.Data)
	bg := raster.Background(domain.Opaque(p.output.Type))

	_, end = p.stage(ctx, "normalize")
	upright := normalize(img, code, bg)
	end(nil)

	scale := fitScale(upright.Width(), upright.Height(), p.output.Width, p.output.Height)
	steps := scaleSteps(scale)

	_, end = p.stage(ctx, "downscale")
	resized := downscale(upright, scale, bg, p.interpolator)
	end(nil)
	p.metrics.observeSteps(steps)

	_, end = p.stage(ctx, "encode")
	encoded, err := encode(p.encoder, resized, p.output.Type, p.output.Quality)
	end(err)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	span.SetAttributes(
		attribute.Int("source.width", source.Width),
		attribute.Int("source.height", source.Height),
		attribute.Int("orientation", int(code)),
		attribute.Float64("scale", scale),
		attribute.Int("downscale.steps", steps),
		attribute.Int("result.width", encoded.Width),
		attribute.Int("result.height", encoded.Height),
		attribute.Int("result.bytes", len(encoded.Blob.Data)),
	)
	p.metrics.observeBytes(len(file.Data), len(encoded.Blob.Data), encoded.Width*encoded.Height)

	return domain.Result{Source: source, Result: encoded}, nil
}

// readOrientation never fails: unreadable or slow metadata means identity.
func (p *Processor) readOrientation(ctx context.Context, data []byte) orientation.Code {
	ctx, end := p.stage(ctx, "orientation")
	code, err := p.orientation.Orientation(ctx, data)
	end(nil)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.Printf("orientation read timed out, using orientation=%d", orientation.Identity)
		}
		code = orientation.Identity
	}
	if !code.Valid() {
		code = orientation.Identity
	}
	p.metrics.observeOrientation(int(code))
	return code
}

func (p *Processor) stage(ctx context.Context, name string) (context.Context, func(error)) {
	startedAt := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, name+" failed")
		}
		span.End()
		p.metrics.observeStage(name, time.Since(startedAt))
	}
}
