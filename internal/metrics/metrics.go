package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service's Prometheus registry. It satisfies the small
// recorder interfaces the services declare.
type Collector struct {
	registry *prometheus.Registry

	otpIssued     prometheus.Counter
	otpVerified   prometheus.Counter
	otpRejected   *prometheus.CounterVec
	transfersOK   prometheus.Counter
	transfersErr  prometheus.Counter
	loansApplied  prometheus.Counter
	loansDecided  *prometheus.CounterVec
	mailDispatch  *prometheus.CounterVec
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	return &Collector{
		registry: registry,
		otpIssued: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "otp_challenges_issued_total",
			Help: "Total number of OTP challenges issued",
		}),
		otpVerified: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "otp_challenges_verified_total",
			Help: "Total number of OTP challenges verified successfully",
		}),
		otpRejected: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "otp_verifications_rejected_total",
			Help: "Total number of rejected OTP verification attempts",
		}, []string{"reason"}),
		transfersOK: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "transfers_completed_total",
			Help: "Total number of completed transfers",
		}),
		transfersErr: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "transfers_failed_total",
			Help: "Total number of failed transfers",
		}),
		loansApplied: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "loan_applications_total",
			Help: "Total number of loan applications received",
		}),
		loansDecided: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "loan_decisions_total",
			Help: "Total number of loan decisions",
		}, []string{"decision"}),
		mailDispatch: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "mail_dispatch_total",
			Help: "Total number of mail dispatch attempts",
		}, []string{"outcome"}),
	}
}

func (c *Collector) OTPIssued()                { c.otpIssued.Inc() }
func (c *Collector) OTPVerified()              { c.otpVerified.Inc() }
func (c *Collector) OTPRejected(reason string) { c.otpRejected.WithLabelValues(reason).Inc() }

func (c *Collector) TransferCompleted() { c.transfersOK.Inc() }
func (c *Collector) TransferFailed()    { c.transfersErr.Inc() }

func (c *Collector) LoanApplied()                  { c.loansApplied.Inc() }
func (c *Collector) LoanDecided(decision string)   { c.loansDecided.WithLabelValues(decision).Inc() }
func (c *Collector) MailDispatched(outcome string) { c.mailDispatch.WithLabelValues(outcome).Inc() }

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
