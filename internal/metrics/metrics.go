// Package metrics exports pipeline telemetry to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yokitheyo/imagelinker/internal/domain"
)

const successLabel = "ok"

// PipelineObserver implements the validator and pipeline observer hooks.
type PipelineObserver struct {
	validations     *prometheus.CounterVec
	replacements    *prometheus.CounterVec
	replaceDuration *prometheus.HistogramVec
	imageBytes      *prometheus.CounterVec
}

// NewPipelineObserver registers the pipeline metrics on reg, or on the
// default registerer when reg is nil. Registering twice reuses the
// collectors from the first call.
func NewPipelineObserver(namespace string, reg prometheus.Registerer) (*PipelineObserver, error) {
	if namespace == "" {
		namespace = "imagelinker"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	validations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reference_checks_total",
		Help:      "Image reference checks by resulting status.",
	}, []string{"status"}))
	if err != nil {
		return nil, err
	}
	replacements, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replacements_total",
		Help:      "Image replacements by result; failures are labelled with their error kind.",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}
	replaceDuration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "replacement_duration_seconds",
		Help:      "Latency of image replacements, download to published link.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}
	imageBytes, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_bytes_total",
		Help:      "Image bytes before and after optimization.",
	}, []string{"stage"}))
	if err != nil {
		return nil, err
	}

	return &PipelineObserver{
		validations:     validations,
		replacements:    replacements,
		replaceDuration: replaceDuration,
		imageBytes:      imageBytes,
	}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register pipeline metric: %w", err)
	}
	return c, nil
}

func (o *PipelineObserver) ObserveValidation(status domain.ValidationStatus) {
	if o == nil {
		return
	}
	o.validations.WithLabelValues(string(status)).Inc()
}

func (o *PipelineObserver) ObserveReplace(kind string, elapsed time.Duration) {
	if o == nil {
		return
	}
	result := kind
	if result == "" {
		result = successLabel
	}
	o.replacements.WithLabelValues(result).Inc()
	o.replaceDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (o *PipelineObserver) ObserveSizes(original, optimized int64) {
	if o == nil {
		return
	}
	o.imageBytes.WithLabelValues("original").Add(float64(original))
	o.imageBytes.WithLabelValues("optimized").Add(float64(optimized))
}
