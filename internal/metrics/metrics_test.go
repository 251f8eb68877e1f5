package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Error("New() returned nil")
	}
}

func TestDefault(t *testing.T) {
	m1 := Default()
	m2 := Default()

	if m1 != m2 {
		t.Error("Default() should return same instance")
	}
}

func TestRecordStoreOp(t *testing.T) {
	m := New()
	m.RecordStoreOp("get_all", nil)
	m.RecordStoreOp("get_all", nil)
	m.RecordStoreOp("upsert", errors.New("disk full"))

	if got := testutil.ToFloat64(m.storeOps.WithLabelValues("get_all", "ok")); got != 2 {
		t.Errorf("expected 2 ok reads, got %v", got)
	}
	if got := testutil.ToFloat64(m.storeOps.WithLabelValues("upsert", "error")); got != 1 {
		t.Errorf("expected 1 failed upsert, got %v", got)
	}
}

func TestRecordIntake(t *testing.T) {
	m := New()
	m.RecordIntake(true)
	m.RecordIntake(false)
	m.RecordIntake(true)

	if got := testutil.ToFloat64(m.intakes.WithLabelValues("taken")); got != 2 {
		t.Errorf("expected 2 taken, got %v", got)
	}
	if got := testutil.ToFloat64(m.intakes.WithLabelValues("missed")); got != 1 {
		t.Errorf("expected 1 missed, got %v", got)
	}
}

func TestGauges(t *testing.T) {
	m := New()
	m.SetActiveAlarms(4)
	m.RecordRefresh(2)

	if got := testutil.ToFloat64(m.activeAlarms); got != 4 {
		t.Errorf("expected 4 active alarms, got %v", got)
	}
	if got := testutil.ToFloat64(m.dueDoses); got != 2 {
		t.Errorf("expected 2 due doses, got %v", got)
	}
	if got := testutil.ToFloat64(m.refreshes); got != 1 {
		t.Errorf("expected 1 refresh, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordAlarmOp("schedule", nil)
	m.RecordNotification("log", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`dosekeeper_alarm_operations_total{op="schedule",result="ok"} 1`,
		`dosekeeper_notifications_total{result="ok",sink="log"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}
