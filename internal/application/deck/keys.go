package deck

import (
	"fmt"

	"github.com/penwyp/go-feed-deck/internal/core/column"
	"github.com/penwyp/go-feed-deck/internal/presentation/interaction"
)

// HandleKey applies one keystroke and reports whether the user asked to quit
func (o *Orchestrator) HandleKey(event interaction.KeyEvent) bool {
	state := o.stateManager.GetInteractionState()

	// Confirm dialog swallows every key but its answers
	if dialog := state.ConfirmDialog; dialog != nil {
		answer := 0
		switch {
		case event.Type == interaction.KeyChar && (event.Key == 'y' || event.Key == 'Y'):
			answer = 1
		case event.Type == interaction.KeyEscape,
			event.Type == interaction.KeyChar && (event.Key == 'n' || event.Key == 'N'):
			answer = -1
		}
		if answer == 0 {
			return false
		}
		o.stateManager.UpdateInteractionState(func(s *InteractionState) {
			s.ConfirmDialog = nil
		})
		if answer > 0 && dialog.OnConfirm != nil {
			dialog.OnConfirm()
		}
		if answer < 0 && dialog.OnCancel != nil {
			dialog.OnCancel()
		}
		return false
	}

	switch event.Type {
	case interaction.KeyEscape:
		if state.ShowHelp {
			o.stateManager.UpdateInteractionState(func(s *InteractionState) {
				s.ShowHelp = false
			})
			return false
		}
		return true
	case interaction.KeyLeft:
		o.selectBy(-1)
	case interaction.KeyRight, interaction.KeyTab:
		o.selectBy(1)
	case interaction.KeyChar:
		switch event.Key {
		case 'q', 'Q', 3: // 'q', 'Q', or Ctrl+C
			return true
		case 'h':
			o.selectBy(-1)
		case 'l':
			o.selectBy(1)
		case '[':
			o.moveSelected(-1)
		case ']':
			o.moveSelected(1)
		case 'p', 'P':
			o.togglePin()
		case 'c', 'C':
			o.rescanSelected()
		case 'x', 'X':
			o.confirmRemoveSelected()
		case 'r', 'R':
			report := o.Tick()
			o.stateManager.SetStatus(fmt.Sprintf("dispatched %s: %d scanned, %d matched",
				o.titleOf(report.ColumnID), report.Pulled, report.Matched))
		case ' ':
			o.stateManager.UpdateInteractionState(func(s *InteractionState) {
				s.Paused = !s.Paused
			})
		case '?':
			o.stateManager.UpdateInteractionState(func(s *InteractionState) {
				s.ShowHelp = !s.ShowHelp
			})
		}
	}
	return false
}

// selected returns the column under the selection
func (o *Orchestrator) selected() (*column.Column, int, bool) {
	idx := clamp(o.stateManager.GetInteractionState().Selected, o.registry.Len())
	c, ok := o.registry.At(idx)
	return c, idx, ok
}

func (o *Orchestrator) selectBy(delta int) {
	n := o.registry.Len()
	o.stateManager.UpdateInteractionState(func(s *InteractionState) {
		s.Selected = clamp(s.Selected+delta, n)
	})
}

// follow moves the selection to wherever id ended up in the display order
func (o *Orchestrator) follow(id string) {
	for i, existing := range o.registry.Order() {
		if existing == id {
			o.stateManager.UpdateInteractionState(func(s *InteractionState) {
				s.Selected = i
			})
			return
		}
	}
}

func (o *Orchestrator) moveSelected(delta int) {
	c, idx, ok := o.selected()
	if !ok {
		return
	}
	o.registry.Move(idx, idx+delta)
	o.follow(c.ID)
	o.dirty = true
}

func (o *Orchestrator) togglePin() {
	c, _, ok := o.selected()
	if !ok {
		return
	}
	o.update(c.ID, column.SetPinned{Pinned: !c.Pinned})
	o.follow(c.ID)
}

// rescanSelected confirms the selected column, which restarts it from the
// oldest retained event
func (o *Orchestrator) rescanSelected() {
	c, _, ok := o.selected()
	if !ok {
		return
	}
	o.update(c.ID, column.Confirm{})
	o.stateManager.SetStatus(fmt.Sprintf("rescanned %s: %d matches", c.Title, c.Buffer.Size()))
}

func (o *Orchestrator) confirmRemoveSelected() {
	c, _, ok := o.selected()
	if !ok {
		return
	}
	id, title := c.ID, c.Title
	o.stateManager.UpdateInteractionState(func(s *InteractionState) {
		s.ConfirmDialog = &ConfirmDialog{
			Title:   "Remove Column",
			Message: fmt.Sprintf("Remove column %q? It comes back on the next config reload if it is still configured.", title),
			OnConfirm: func() {
				o.registry.Remove(id)
				o.dirty = true
				o.stateManager.ClampSelection(o.registry.Len())
				o.stateManager.SetStatus("removed column " + title)
			},
		}
	})
}

func (o *Orchestrator) titleOf(id string) string {
	if c, ok := o.registry.Get(id); ok {
		return c.Title
	}
	return "nothing"
}
