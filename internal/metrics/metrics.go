// Package metrics provides Prometheus metrics for the storage engine.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Registry is the Prometheus registry for all diskmesh metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Metrics holds the storage engine's counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	DepositUnits      prometheus.Counter // diskmesh_deposit_units_total
	DepositRejected   prometheus.Counter // diskmesh_deposit_rejected_units_total
	WithdrawnUnits    prometheus.Counter // diskmesh_withdrawn_units_total
	WithdrawShortfall prometheus.Counter // diskmesh_withdraw_shortfall_units_total
	DecodeFailures    prometheus.Counter // diskmesh_payload_decode_failures_total
	DiskWrites        prometheus.Counter // diskmesh_disk_writes_total

	SessionsOpen  prometheus.Gauge     // diskmesh_reader_sessions_open
	NetworkDrives prometheus.Histogram // diskmesh_network_drives
}

// New registers the engine metrics with registry. A nil registry selects Registry.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = Registry
	}
	f := promauto.With(registry)

	return &Metrics{
		DepositUnits: f.NewCounter(prometheus.CounterOpts{
			Name: "diskmesh_deposit_units_total",
			Help: "Item units absorbed into disks by deposits",
		}),
		DepositRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "diskmesh_deposit_rejected_units_total",
			Help: "Item units returned to the caller because the network was full",
		}),
		WithdrawnUnits: f.NewCounter(prometheus.CounterOpts{
			Name: "diskmesh_withdrawn_units_total",
			Help: "Item units removed from disks by session reconciliation",
		}),
		WithdrawShortfall: f.NewCounter(prometheus.CounterOpts{
			Name: "diskmesh_withdraw_shortfall_units_total",
			Help: "Withdrawn units that could not be located on any disk",
		}),
		DecodeFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "diskmesh_payload_decode_failures_total",
			Help: "Disk payloads that failed to decode and were treated as empty",
		}),
		DiskWrites: f.NewCounter(prometheus.CounterOpts{
			Name: "diskmesh_disk_writes_total",
			Help: "Disk payload writes",
		}),
		SessionsOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "diskmesh_reader_sessions_open",
			Help: "Reader sessions currently open",
		}),
		NetworkDrives: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "diskmesh_network_drives",
			Help:    "Drives found per network discovery",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
}

// RecordDeposit records units absorbed and units handed back.
func (m *Metrics) RecordDeposit(absorbed, rejected int) {
	if m == nil {
		return
	}
	m.DepositUnits.Add(float64(absorbed))
	m.DepositRejected.Add(float64(rejected))
}

// RecordWithdrawal records units removed and units that could not be found.
func (m *Metrics) RecordWithdrawal(removed, shortfall int) {
	if m == nil {
		return
	}
	m.WithdrawnUnits.Add(float64(removed))
	m.WithdrawShortfall.Add(float64(shortfall))
}

// RecordDecodeFailure counts a payload that could not be decoded.
func (m *Metrics) RecordDecodeFailure() {
	if m == nil {
		return
	}
	m.DecodeFailures.Inc()
}

// RecordDiskWrite counts a persisted disk payload.
func (m *Metrics) RecordDiskWrite() {
	if m == nil {
		return
	}
	m.DiskWrites.Inc()
}

// SetSessionsOpen sets the open session gauge.
func (m *Metrics) SetSessionsOpen(n int) {
	if m == nil {
		return
	}
	m.SessionsOpen.Set(float64(n))
}

// ObserveNetwork records the size of a discovered network.
func (m *Metrics) ObserveNetwork(drives int) {
	if m == nil {
		return
	}
	m.NetworkDrives.Observe(float64(drives))
}

// Handler returns an HTTP handler serving Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// WriteText writes every diskmesh_ metric family in gatherer in the Prometheus
// text format.
func WriteText(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "diskmesh_") {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
