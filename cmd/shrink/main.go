package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dunamismax/pixelshrink/internal/codec"
	"github.com/dunamismax/pixelshrink/internal/config"
	"github.com/dunamismax/pixelshrink/internal/domain"
	"github.com/dunamismax/pixelshrink/internal/pipeline"
	"github.com/dunamismax/pixelshrink/internal/storage"
	"github.com/dunamismax/pixelshrink/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	logger := log.New(os.Stderr, "[shrink] ", log.LstdFlags|log.Lmsgprefix)

	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: shrink <input> [output]")
		os.Exit(2)
	}
	inputPath := os.Args[1]
	outputPath := ""
	if len(os.Args) == 3 {
		outputPath = os.Args[2]
	}

	if err := run(context.Background(), config.Load(), logger, os.Stdout, inputPath, outputPath); err != nil {
		logger.Fatalf("shrink failed: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger, stdout io.Writer, inputPath, outputPath string) error {
	if err := codec.Startup(); err != nil {
		return fmt.Errorf("start codec runtime: %w", err)
	}
	defer codec.Shutdown()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  telemetry.DefaultServiceName,
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		Writer:       os.Stderr,
	}, logger)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := pipeline.NewMetrics(registry)

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	file := &domain.Blob{Type: http.DetectContentType(data), Data: data}

	output := cfg.Output
	if strings.TrimSpace(output.Type) == "" {
		output.Type = chooseOutputType(file.Type)
	}

	processor, err := pipeline.NewProcessor(pipeline.Config{
		Output:          output,
		Logger:          logger,
		Metrics:         metrics,
		Interpolator:    cfg.Pipeline.Resampler(),
		MetadataTimeout: cfg.Pipeline.MetadataTimeout,
	})
	if err != nil {
		return fmt.Errorf("build processor: %w", err)
	}

	startedAt := time.Now()
	outcome := <-processor.ProcessAsync(ctx, file)
	if outcome.Err != nil {
		return outcome.Err
	}
	result := outcome.Result
	stats := domain.NewStats(result, time.Since(startedAt))

	if outputPath == "" {
		outputPath = defaultOutputPath(inputPath, result.Result.Type)
	}
	if err := os.WriteFile(outputPath, result.Result.Data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	report(stdout, result, stats)
	fmt.Fprintf(stdout, "Output: %s\n", outputPath)

	if cfg.Upload.Enabled {
		key, err := upload(ctx, cfg, result.Result.Blob)
		if err != nil {
			return err
		}
		logger.Printf("uploaded result bucket=%s key=%s bytes=%d", cfg.Storage.Bucket, key, result.Result.Size())
	}

	if cfg.Metrics.TextFile != "" {
		if err := prometheus.WriteToTextfile(cfg.Metrics.TextFile, registry); err != nil {
			return fmt.Errorf("write metrics textfile: %w", err)
		}
	}
	return nil
}

// chooseOutputType keeps the input type when it can be encoded and otherwise
// falls back to JPEG.
func chooseOutputType(inputType string) string {
	if domain.IsSupportedType(inputType) {
		return inputType
	}
	return domain.MIMEJPEG
}

func defaultOutputPath(inputPath, mimeType string) string {
	return inputPath + ".min." + domain.Extension(mimeType)
}

func report(w io.Writer, result domain.Result, stats domain.Stats) {
	fmt.Fprintln(w, "Source")
	fmt.Fprintf(w, "  File size: %.2fKB\n", float64(result.Source.Size())/1024)
	fmt.Fprintf(w, "  File type: %s\n", result.Source.Type)
	fmt.Fprintf(w, "  Dimensions: %d * %d\n", result.Source.Width, result.Source.Height)

	fmt.Fprintln(w, "Result")
	fmt.Fprintf(w, "  File size: %.2fKB\n", float64(result.Result.Size())/1024)
	fmt.Fprintf(w, "  File type: %s\n", result.Result.Type)
	fmt.Fprintf(w, "  Dimensions: %d * %d\n", result.Result.Width, result.Result.Height)
	fmt.Fprintf(w, "  Compress rate: %.2f%%\n", stats.CompressRate)
	fmt.Fprintf(w, "  Compress duration: %dms\n", stats.Duration.Milliseconds())
}

func upload(ctx context.Context, cfg config.Config, blob domain.Blob) (string, error) {
	client, err := storage.NewClient(storage.Config{
		Endpoint: cfg.Storage.Endpoint,
		Access:   cfg.Storage.AccessKey,
		Secret:   cfg.Storage.SecretKey,
		Bucket:   cfg.Storage.Bucket,
		UseSSL:   cfg.Storage.UseSSL,
	})
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	key, err := client.UploadResult(ctx, cfg.Upload.Prefix, blob)
	if err != nil {
		return "", fmt.Errorf("upload result: %w", err)
	}
	return key, nil
}
