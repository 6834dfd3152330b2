package storefront

import (
	"context"

	"github.com/zoobzio/capitan"
)

// DefaultAlertMessage is shown when a failure carries no message.
const DefaultAlertMessage = "Api error"

// Report describes a failure handed to a Reporter.
type Report struct {
	Kind ErrorKind
	Err  error

	// WithoutAlerts suppresses the user-facing alert. Background refresh
	// failures set it; the failure is still recorded.
	WithoutAlerts bool
}

// Reporter receives failures from store operations.
type Reporter interface {
	Report(ctx context.Context, r Report)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, r Report)

// Report calls fn.
func (fn ReporterFunc) Report(ctx context.Context, r Report) {
	fn(ctx, r)
}

// Alerter shows a message that interrupts the user.
type Alerter interface {
	Alert(ctx context.Context, title, message string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(ctx context.Context, title, message string)

// Alert calls fn.
func (fn AlertFunc) Alert(ctx context.Context, title, message string) {
	fn(ctx, title, message)
}

// NopAlerter discards alerts. The AlertRaised signal is still emitted by
// RaiseAlert.
var NopAlerter Alerter = AlertFunc(func(context.Context, string, string) {})

// RaiseAlert emits AlertRaised and shows the alert.
func RaiseAlert(ctx context.Context, a Alerter, title, message string) {
	capitan.Emit(ctx, AlertRaised,
		KeyTitle.Field(title),
		KeyError.Field(message),
	)
	if a != nil {
		a.Alert(ctx, title, message)
	}
}

// AlertMessage returns the message shown for err.
func AlertMessage(err error) string {
	if err == nil || err.Error() == "" {
		return DefaultAlertMessage
	}
	return err.Error()
}

// AlertingReporter emits every report and alerts unless WithoutAlerts is set.
type AlertingReporter struct {
	alerter Alerter
}

// NewAlertingReporter creates a reporter that alerts through a.
func NewAlertingReporter(a Alerter) *AlertingReporter {
	return &AlertingReporter{alerter: a}
}

// Report emits ErrorReported and raises an alert when allowed.
func (r *AlertingReporter) Report(ctx context.Context, rep Report) {
	EmitReport(ctx, rep)
	if !rep.WithoutAlerts {
		RaiseAlert(ctx, r.alerter, "Error", AlertMessage(rep.Err))
	}
}

// EmitReport emits the ErrorReported signal for rep.
func EmitReport(ctx context.Context, rep Report) {
	capitan.Emit(ctx, ErrorReported,
		KeyKind.Field(rep.Kind.String()),
		KeyError.Field(AlertMessage(rep.Err)),
	)
}

// Ensure AlertingReporter implements Reporter.
var _ Reporter = (*AlertingReporter)(nil)
