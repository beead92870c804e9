package httpserver

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

func TestObserverStateReturnsPublishedSnapshot(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/observer/state", nil)
	rec := httptest.NewRecorder()
	s.handleObserverState(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp observerStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.InterruptionMode != "balanced" {
		t.Errorf("InterruptionMode = %q, want balanced default", resp.InterruptionMode)
	}
}

func TestObserverRefreshRebuildsSnapshot(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/observer/refresh", nil)
	rec := httptest.NewRecorder()
	s.handleObserverRefresh(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp observerStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserState == "" {
		t.Error("expected a non-empty user state after refresh")
	}
}

func TestDaemonStatusReportsDisconnectedWithNoSensorPost(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/observer/daemon-status", nil)
	rec := httptest.NewRecorder()
	s.handleDaemonStatus(rec, req)

	var resp daemonStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Connected {
		t.Error("expected disconnected with no sensor post recorded")
	}
}

func TestDaemonStatusReportsConnectedAfterRecentSensorPost(t *testing.T) {
	s := newTestServer(t)
	active := "VS Code"
	s.ctx.ApplySensorPartial(contextmodel.SensorPatch{ActiveWindow: &active})

	req := httptest.NewRequest("GET", "/observer/daemon-status", nil)
	rec := httptest.NewRecorder()
	s.handleDaemonStatus(rec, req)

	var resp daemonStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Connected {
		t.Error("expected connected after a fresh sensor post")
	}
	if resp.LastSensorPost == nil || time.Since(*resp.LastSensorPost) > time.Minute {
		t.Error("LastSensorPost should be recent")
	}
	if resp.ActiveWindow != "VS Code" {
		t.Errorf("ActiveWindow = %q, want VS Code", resp.ActiveWindow)
	}
	if resp.HasScreenContext {
		t.Error("expected no screen context recorded yet")
	}
}
