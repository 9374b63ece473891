package pipeline

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records pipeline activity. A nil *Metrics records nothing.
type Metrics struct {
	processedTotal   *prometheus.CounterVec
	processDuration  *prometheus.HistogramVec
	stageDuration    *prometheus.HistogramVec
	orientationTotal *prometheus.CounterVec
	downscaleSteps   prometheus.Histogram
	outputFallbacks  prometheus.Counter
	sourceBytesTotal prometheus.Counter
	resultBytesTotal prometheus.Counter
	pixelsWritten    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelshrink_pipeline_processed_total",
			Help: "Total pipeline runs by final outcome.",
		}, []string{"outcome"}),
		processDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pixelshrink_pipeline_duration_seconds",
			Help:    "End-to-end pipeline duration by final outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pixelshrink_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		orientationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelshrink_pipeline_orientation_total",
			Help: "Normalized images by EXIF orientation code.",
		}, []string{"code"}),
		downscaleSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pixelshrink_pipeline_downscale_steps",
			Help:    "Resampling passes used per downscale.",
			Buckets: []float64{0, 1, 2, 3, 4},
		}),
		outputFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelshrink_pipeline_output_type_fallbacks_total",
			Help: "Processors configured with an unsupported output type.",
		}),
		sourceBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelshrink_pipeline_source_bytes_total",
			Help: "Total encoded bytes accepted as pipeline input.",
		}),
		resultBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelshrink_pipeline_result_bytes_total",
			Help: "Total encoded bytes produced by successful runs.",
		}),
		pixelsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelshrink_pipeline_result_pixels_total",
			Help: "Total pixels in successfully encoded results.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.processedTotal,
			m.processDuration,
			m.stageDuration,
			m.orientationTotal,
			m.downscaleSteps,
			m.outputFallbacks,
			m.sourceBytesTotal,
			m.resultBytesTotal,
			m.pixelsWritten,
		)
	}
	return m
}

func (m *Metrics) observeProcess(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.processedTotal.WithLabelValues(outcome).Inc()
	m.processDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) observeOrientation(code int) {
	if m == nil {
		return
	}
	m.orientationTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Metrics) observeSteps(steps int) {
	if m == nil {
		return
	}
	m.downscaleSteps.Observe(float64(steps))
}

func (m *Metrics) observeFallback() {
	if m == nil {
		return
	}
	m.outputFallbacks.Inc()
}

func (m *Metrics) observeBytes(source, result, pixels int) {
	if m == nil {
		return
	}
	m.sourceBytesTotal.Add(float64(source))
	m.resultBytesTotal.Add(float64(result))
	m.pixelsWritten.Add(float64(pixels))
}
