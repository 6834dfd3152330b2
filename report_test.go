package storefront

import (
	"context"
	"errors"
	"testing"
)

type alertLog struct {
	titles   []string
	messages []string
}

func (a *alertLog) Alert(_ context.Context, title, message string) {
	a.titles = append(a.titles, title)
	a.messages = append(a.messages, message)
}

func TestAlertingReporter_Alerts(t *testing.T) {
	alerts := &alertLog{}
	r := NewAlertingReporter(alerts)

	r.Report(context.Background(), Report{Kind: KindStorage, Err: errors.New("disk")})

	if len(alerts.messages) != 1 || alerts.messages[0] != "disk" {
		t.Errorf("expected one 'disk' alert, got %v", alerts.messages)
	}
	if alerts.titles[0] != "Error" {
		t.Errorf("expected title 'Error', got %q", alerts.titles[0])
	}
}

func TestAlertingReporter_WithoutAlerts(t *testing.T) {
	alerts := &alertLog{}
	r := NewAlertingReporter(alerts)

	r.Report(context.Background(), Report{Kind: KindFetch, Err: ErrSimulatedFailure, WithoutAlerts: true})

	if len(alerts.messages) != 0 {
		t.Errorf("expected no alerts, got %v", alerts.messages)
	}
}

func TestAlertMessage_Default(t *testing.T) {
	if AlertMessage(nil) != DefaultAlertMessage {
		t.Errorf("expected default message, got %q", AlertMessage(nil))
	}
	if AlertMessage(errors.New("")) != DefaultAlertMessage {
		t.Error("expected default message for empty error")
	}
}

func TestRaiseAlert_NilAlerter(_ *testing.T) {
	RaiseAlert(context.Background(), nil, "t", "m")
}

func TestReporterFunc(t *testing.T) {
	var got Report
	var r Reporter = ReporterFunc(func(_ context.Context, rep Report) { got = rep })

	r.Report(context.Background(), Report{Kind: KindAuthMissing})
	if got.Kind != KindAuthMissing {
		t.Errorf("expected auth_missing, got %s", got.Kind)
	}
}
