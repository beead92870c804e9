package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/screenlog"
)

type observationPayload struct {
	App         string   `json:"app"`
	WindowTitle string   `json:"window_title"`
	Activity    string   `json:"activity"`
	Project     *string  `json:"project"`
	Summary     *string  `json:"summary"`
	Details     []string `json:"details"`
	Blocked     bool     `json:"blocked"`
}

type sensorPayload struct {
	ActiveWindow    *string             `json:"active_window"`
	ScreenContext   *string             `json:"screen_context"`
	Observation     *observationPayload `json:"observation"`
	SwitchTimestamp *int64              `json:"switch_timestamp"`
}

// handleSensor implements the partial-update Sensor contract: null fields
// mean "do not overwrite", both-null still records a heartbeat, and an
// observation sub-object (when present) is always persisted to the
// Screen-Observation Log. Always responds 200 unless the payload itself
// is malformed JSON.
func (s *Server) handleSensor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var payload sensorPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	s.ctx.ApplySensorPartial(contextmodel.SensorPatch{
		ActiveWindow:  payload.ActiveWindow,
		ScreenContext: payload.ScreenContext,
	})

	if payload.Observation != nil {
		ts := time.Now()
		if payload.SwitchTimestamp != nil {
			ts = time.Unix(*payload.SwitchTimestamp, 0)
		}
		obs := screenlog.Observation{
			Timestamp:    ts,
			AppName:      payload.Observation.App,
			WindowTitle:  payload.Observation.WindowTitle,
			ActivityType: parseActivityType(payload.Observation.Activity),
			Blocked:      payload.Observation.Blocked,
			Details:      payload.Observation.Details,
		}
		if payload.Observation.Project != nil {
			obs.Project = *payload.Observation.Project
		}
		if payload.Observation.Summary != nil {
			obs.Summary = *payload.Observation.Summary
		}
		if _, err := s.screen.Insert(obs); err != nil {
			s.logger.Error("failed to persist screen observation", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseActivityType(raw string) contextmodel.ActivityType {
	var a contextmodel.ActivityType
	quoted, err := json.Marshal(raw)
	if err != nil {
		return contextmodel.Other
	}
	if err := a.UnmarshalJSON(quoted); err != nil {
		return contextmodel.Other
	}
	return a
}
