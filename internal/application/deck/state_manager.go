package deck

import "sync"

// ConfirmDialog is a pending yes/no question
type ConfirmDialog struct {
	Title     string
	Message   string
	OnConfirm func()
	OnCancel  func()
}

// InteractionState is the UI state that is not part of any column
type InteractionState struct {
	Paused        bool
	ShowHelp      bool
	Selected      int
	ConfirmDialog *ConfirmDialog
	StatusMessage string
}

// StateManager guards the interaction state. The renderer may read it from
// another goroutine than the control loop.
type StateManager struct {
	mu    sync.RWMutex
	state InteractionState
}

// NewStateManager creates a new StateManager instance
func NewStateManager() *StateManager {
	return &StateManager{}
}

// GetInteractionState returns a copy of the current state
func (sm *StateManager) GetInteractionState() InteractionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

// UpdateInteractionState applies updateFunc under the write lock
func (sm *StateManager) UpdateInteractionState(updateFunc func(*InteractionState)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	updateFunc(&sm.state)
}

// SetStatus replaces the footer status message
func (sm *StateManager) SetStatus(message string) {
	sm.UpdateInteractionState(func(s *InteractionState) {
		s.StatusMessage = message
	})
}

// ClampSelection keeps the selected index inside [0, n)
func (sm *StateManager) ClampSelection(n int) {
	sm.UpdateInteractionState(func(s *InteractionState) {
		s.Selected = clamp(s.Selected, n)
	})
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
