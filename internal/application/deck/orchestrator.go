// Package deck runs the live deck: it fans ingestion into the shared log,
// dispatches the log to columns on a timer, persists column state and
// drives the terminal display from keyboard input.
package deck

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/penwyp/go-feed-deck/internal/config"
	"github.com/penwyp/go-feed-deck/internal/core/column"
	"github.com/penwyp/go-feed-deck/internal/core/feedlog"
	"github.com/penwyp/go-feed-deck/internal/core/model"
	"github.com/penwyp/go-feed-deck/internal/core/registry"
	"github.com/penwyp/go-feed-deck/internal/data/ingest"
	"github.com/penwyp/go-feed-deck/internal/presentation/display"
	"github.com/penwyp/go-feed-deck/internal/presentation/interaction"
	"github.com/penwyp/go-feed-deck/internal/util"
)

// maxVisibleEvents caps how many buffered events a frame carries per column
const maxVisibleEvents = 200

const uiRefreshInterval = time.Second

// Deps are the collaborators an Orchestrator drives. Any of them may be nil:
// without a Store nothing is persisted, without a Display nothing is drawn.
type Deps struct {
	Store   StateStore
	Sources []ingest.Source
	Display DisplayController
	Input   InputHandler
	// Reloads delivers validated configurations from a config watcher
	Reloads <-chan *config.Config
}

// Orchestrator coordinates all components of the live deck. Everything but
// the log is owned by the goroutine calling Run.
type Orchestrator struct {
	config *DeckConfig
	deps   Deps
	clock  *util.Clock

	log          *feedlog.Ring
	registry     *registry.Registry
	stateManager *StateManager

	ingested atomic.Int64
	dirty    bool
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(cfg *DeckConfig, deps Deps) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	clock, err := util.NewClock(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize timezone: %w", err)
	}
	return &Orchestrator{
		config:       cfg,
		deps:         deps,
		clock:        clock,
		log:          feedlog.NewRing(cfg.LogCapacity),
		registry:     registry.New(),
		stateManager: NewStateManager(),
	}, nil
}

// Log returns the shared event log
func (o *Orchestrator) Log() *feedlog.Ring { return o.log }

// Registry returns the column registry. It must only be used from the
// goroutine running the orchestrator.
func (o *Orchestrator) Registry() *registry.Registry { return o.registry }

// State returns the interaction state manager
func (o *Orchestrator) State() *StateManager { return o.stateManager }

// Ingested returns the number of events appended since start
func (o *Orchestrator) Ingested() int64 { return o.ingested.Load() }

func (o *Orchestrator) newBuffer() column.Buffer {
	return column.NewMemoryBuffer(o.config.BufferCapacity)
}

// Restore loads saved state, applies the configured columns and rebuilds
// every column's display buffer with a catch-up. Display buffers are not
// persisted, so each restored column restarts from the oldest retained event.
func (o *Orchestrator) Restore() error {
	if store := o.deps.Store; store != nil {
		if o.config.PersistLog {
			encoded, err := store.LoadLog()
			if err != nil {
				return fmt.Errorf("failed to load log: %w", err)
			}
			if encoded != "" {
				restored, err := feedlog.DecodeLog(encoded)
				if err != nil {
					util.LogWarnf("deck: saved log unreadable, starting empty: %v", err)
				} else {
					o.log = restored
				}
			}
		}
		states, err := store.LoadColumns()
		if err != nil {
			return fmt.Errorf("failed to load columns: %w", err)
		}
		o.registry = registry.Restore(states, o.log, o.newBuffer)
		util.LogInfof("deck: restored %d columns, %d events", o.registry.Len(), o.log.Len())
	}

	result, err := Reconcile(o.registry, o.config.Columns, o.newBuffer)
	if err != nil {
		return err
	}
	if result.Changed {
		o.dirty = true
	}
	for _, c := range o.registry.Columns() {
		c.Reset()
		o.registry.CatchUp(c.ID, o.log, o.config.CatchUpBudget)
	}
	return nil
}

// Append adds an ingested event to the log. Safe for concurrent use.
func (o *Orchestrator) Append(ev model.Event) {
	o.log.Append(ev)
	o.ingested.Add(1)
}

// Run starts ingestion and the control loop and blocks until ctx is done or
// the user quits. State is persisted on the way out.
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting feed deck...")

	if err := o.Restore(); err != nil {
		return err
	}
	defer func() {
		if err := o.Persist(true); err != nil {
			util.LogErrorf("deck: final persist failed: %v", err)
		}
	}()

	ingestCtx, stopIngest := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ingest.RunAll(ingestCtx, o.deps.Sources, o.Append)
	}()
	defer func() {
		stopIngest()
		wg.Wait()
	}()

	if o.deps.Display != nil {
		o.deps.Display.EnterAlternateScreen()
		defer o.deps.Display.ExitAlternateScreen()
	}
	o.updateDisplay()

	dispatchTicker := time.NewTicker(o.config.TickInterval)
	defer dispatchTicker.Stop()

	persistTicker := time.NewTicker(o.config.PersistInterval)
	defer persistTicker.Stop()

	uiTicker := time.NewTicker(uiRefreshInterval)
	defer uiTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down feed deck...")
			return nil

		case <-dispatchTicker.C:
			if !o.stateManager.GetInteractionState().Paused {
				o.Tick()
				o.updateDisplay()
			}

		case <-uiTicker.C:
			o.updateDisplay()

		case <-persistTicker.C:
			if err := o.Persist(false); err != nil {
				util.LogErrorf("deck: persist failed: %v", err)
			}

		case cfg := <-o.deps.Reloads:
			if cfg == nil {
				continue
			}
			if err := o.ApplyConfig(cfg.Columns); err != nil {
				util.LogWarnf("deck: config reload rejected: %v", err)
				o.stateManager.SetStatus("config reload rejected: " + err.Error())
			} else {
				o.stateManager.SetStatus("config reloaded")
			}
			o.updateDisplay()

		case keyEvent := <-o.keyEvents():
			if o.HandleKey(keyEvent) {
				return nil
			}
			o.updateDisplay()
		}
	}
}

func (o *Orchestrator) keyEvents() <-chan interaction.KeyEvent {
	if o.deps.Input == nil {
		return nil
	}
	return o.deps.Input.Events()
}

// Tick runs one dispatch cycle
func (o *Orchestrator) Tick() registry.ScanReport {
	return o.registry.DispatchOneCycle(o.log, o.config.CycleBudget)
}

// ApplyConfig reconciles the registry with a new column list and catches up
// every column that was added or refiltered
func (o *Orchestrator) ApplyConfig(columns []config.ColumnConfig) error {
	result, err := Reconcile(o.registry, columns, o.newBuffer)
	if err != nil {
		return err
	}
	for _, id := range result.NeedCatchUp() {
		o.registry.CatchUp(id, o.log, o.config.CatchUpBudget)
	}
	if result.Changed {
		o.dirty = true
	}
	o.stateManager.ClampSelection(o.registry.Len())
	return nil
}

// update routes msg to a column and carries out the resulting effect
func (o *Orchestrator) update(id string, msg column.Msg) column.Effect {
	effect := o.registry.Update(id, msg)
	if effect.Has(column.EffectCatchUp) {
		o.registry.CatchUp(id, o.log, o.config.CatchUpBudget)
	}
	if effect.Has(column.EffectPersist) {
		o.dirty = true
	}
	return effect
}

// Persist saves column state when it changed, or always when force is set.
// With log persistence on, the log and source checkpoints are saved too;
// checkpoints are read before the log is encoded so every checkpointed
// event is in the saved log.
func (o *Orchestrator) Persist(force bool) error {
	store := o.deps.Store
	if store == nil || (!o.dirty && !force && !o.config.PersistLog) {
		return nil
	}
	if err := store.SaveColumns(o.registry.Snapshot()); err != nil {
		return fmt.Errorf("failed to save columns: %w", err)
	}
	o.dirty = false

	if !o.config.PersistLog {
		return nil
	}
	checkpoints := make(map[string]int64)
	for _, src := range o.deps.Sources {
		if cp, ok := src.(ingest.Checkpointer); ok {
			checkpoints[cp.Name()] = cp.Checkpoint()
		}
	}
	encoded, err := feedlog.EncodeLog(o.log)
	if err != nil {
		return fmt.Errorf("failed to encode log: %w", err)
	}
	if err := store.SaveLog(encoded); err != nil {
		return fmt.Errorf("failed to save log: %w", err)
	}
	for name, offset := range checkpoints {
		if err := store.SaveOffset(name, offset); err != nil {
			return fmt.Errorf("failed to save checkpoint of %s: %w", name, err)
		}
	}
	return nil
}

// Frame captures the current deck for the display
func (o *Orchestrator) Frame() display.Frame {
	state := o.stateManager.GetInteractionState()
	columns := o.registry.Columns()

	views := make([]display.ColumnView, 0, len(columns))
	for _, c := range columns {
		views = append(views, display.ColumnView{
			ID:      c.ID,
			Title:   c.Title,
			Pinned:  c.Pinned,
			Editing: c.IsEditing(),
			Filters: c.Active.String(),
			Total:   c.Buffer.Size(),
			Events:  c.Buffer.Window(0, maxVisibleEvents),
		})
	}

	frame := display.Frame{
		Columns:  views,
		Selected: clamp(state.Selected, len(views)),
		Paused:   state.Paused,
		Help:     state.ShowHelp,
		Status:   state.StatusMessage,
		LogLen:   o.log.Len(),
		LogCap:   o.log.Capacity(),
		Ingested: o.ingested.Load(),
		Now:      o.clock.Now(),
	}
	if d := state.ConfirmDialog; d != nil {
		frame.Dialog = &display.Dialog{Title: d.Title, Message: d.Message}
	}
	return frame
}

func (o *Orchestrator) updateDisplay() {
	if o.deps.Display == nil {
		return
	}
	o.deps.Display.Render(o.Frame())
}
