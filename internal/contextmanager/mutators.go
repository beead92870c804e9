package contextmanager

import (
	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/userstate"
)

// RecordInteraction stamps lastInteraction = now.
func (m *Manager) RecordInteraction() {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.snapshot.Clone()
	t := m.now()
	next.LastInteraction = &t
	m.snapshot = next
}

// ApplySensorPartial applies a partial update from the external Sensor.
// A nil field in the patch leaves the corresponding snapshot field
// untouched; lastSensorPost is stamped unconditionally, since even a
// both-absent post is a heartbeat.
func (m *Manager) ApplySensorPartial(patch contextmodel.SensorPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.snapshot.Clone()
	if patch.ActiveWindow != nil {
		next.ActiveWindow = *patch.ActiveWindow
	}
	if patch.ScreenContext != nil {
		next.ScreenContext = *patch.ScreenContext
	}
	t := m.now()
	next.LastSensorPost = &t
	m.snapshot = next
}

// DecrementBudget reduces the attention budget by one, clamped at zero.
func (m *Manager) DecrementBudget() {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.snapshot.Clone()
	if next.AttentionBudgetRemaining > 0 {
		next.AttentionBudgetRemaining--
	}
	m.snapshot = next
}

// SetInterruptionMode sets the mode and resets the budget to that mode's
// default, even if the mode is unchanged from its current value.
func (m *Manager) SetInterruptionMode(mode contextmodel.InterruptionMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.snapshot.Clone()
	next.InterruptionMode = mode
	next.AttentionBudgetRemaining = userstate.DefaultBudget(mode)
	t := m.now()
	next.AttentionBudgetLastReset = &t
	m.snapshot = next
}

// SetCaptureMode sets the sensor-side capture policy.
func (m *Manager) SetCaptureMode(mode contextmodel.CaptureMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.snapshot.Clone()
	next.CaptureMode = mode
	m.snapshot = next
}
