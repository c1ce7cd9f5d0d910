package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/molgraph/pkg/errors"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultHit   = "hit"
	ResultMiss  = "miss"
)

var (
	DefaultHTTPDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultAtomCountBuckets    = []float64{10, 100, 1000, 5000, 10000, 50000, 100000, 500000}
)

// StructureMetrics is every metric molgraph records. A nil *StructureMetrics
// is valid and records nothing, so services can run without a collector.
type StructureMetrics struct {
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	GRPCRequestsTotal   CounterVec

	ModelsIngestedTotal CounterVec
	ModelsResident      GaugeVec
	AtomsPerModel       HistogramVec
	MutationsTotal      CounterVec
	StructuralErrors    CounterVec
	OperationDuration   HistogramVec
	SelectionsTotal     CounterVec

	CacheAccessTotal     CounterVec
	EventsPublishedTotal CounterVec
	ProjectionsTotal     CounterVec
}

// NewStructureMetrics registers everything on collector.
func NewStructureMetrics(c MetricsCollector) *StructureMetrics {
	return &StructureMetrics{
		HTTPRequestsTotal:   c.RegisterCounter("http_requests_total", "HTTP requests", "method", "route", "status_code"),
		HTTPRequestDuration: c.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route"),
		GRPCRequestsTotal:   c.RegisterCounter("grpc_requests_total", "gRPC requests", "method", "code"),

		ModelsIngestedTotal: c.RegisterCounter("models_ingested_total", "Models ingested", "result"),
		ModelsResident:      c.RegisterGauge("models_resident", "Models held in memory"),
		AtomsPerModel:       c.RegisterHistogram("model_atoms", "Atoms per ingested model", DefaultAtomCountBuckets),
		MutationsTotal:      c.RegisterCounter("mutations_total", "Structural mutations", "operation", "result"),
		StructuralErrors:    c.RegisterCounter("structural_errors_total", "Structural errors by code", "code"),
		OperationDuration:   c.RegisterHistogram("operation_duration_seconds", "Service operation latency", nil, "operation"),
		SelectionsTotal:     c.RegisterCounter("selections_total", "Atom selections evaluated", "result"),

		CacheAccessTotal:     c.RegisterCounter("cache_access_total", "Summary cache lookups", "cache", "result"),
		EventsPublishedTotal: c.RegisterCounter("events_published_total", "Structure events published", "event", "result"),
		ProjectionsTotal:     c.RegisterCounter("projections_total", "Projection updates", "target", "event", "result"),
	}
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// RecordError counts err under its AppError code, or "UNKNOWN".
func (m *StructureMetrics) RecordError(err error) {
	if m == nil || err == nil {
		return
	}
	m.StructuralErrors.WithLabelValues(errors.GetCode(err).String()).Inc()
}

// RecordOperation records latency for op and, for mutating operations, the
// mutation result.
func (m *StructureMetrics) RecordOperation(op string, start time.Time, mutating bool, err error) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if mutating {
		m.MutationsTotal.WithLabelValues(op, resultOf(err)).Inc()
	}
	m.RecordError(err)
}

// RecordIngest counts an ingest and, on success, its size.
func (m *StructureMetrics) RecordIngest(atoms int, err error) {
	if m == nil {
		return
	}
	m.ModelsIngestedTotal.WithLabelValues(resultOf(err)).Inc()
	if err == nil {
		m.AtomsPerModel.WithLabelValues().Observe(float64(atoms))
	}
}

func (m *StructureMetrics) SetResident(n int) {
	if m == nil {
		return
	}
	m.ModelsResident.WithLabelValues().Set(float64(n))
}

func (m *StructureMetrics) RecordSelection(err error) {
	if m == nil {
		return
	}
	m.SelectionsTotal.WithLabelValues(resultOf(err)).Inc()
}

func (m *StructureMetrics) RecordCacheAccess(cache string, hit bool) {
	if m == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	m.CacheAccessTotal.WithLabelValues(cache, result).Inc()
}

func (m *StructureMetrics) RecordPublish(event string, err error) {
	if m == nil {
		return
	}
	m.EventsPublishedTotal.WithLabelValues(event, resultOf(err)).Inc()
}

func (m *StructureMetrics) RecordProjection(target, event string, err error) {
	if m == nil {
		return
	}
	m.ProjectionsTotal.WithLabelValues(target, event, resultOf(err)).Inc()
}

func (m *StructureMetrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *StructureMetrics) RecordGRPCRequest(method, code string) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
}

//Personal.AI order the ending
