package matchboard

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncSource identifies which side of the pipeline produced a change.
type SyncSource uint8

const (
	SourceCanvas SyncSource = iota
	SourceStore
)

// String returns "canvas" or "store".
func (s SyncSource) String() string {
	if s == SourceCanvas {
		return "canvas"
	}
	return "store"
}

// SyncPolicy is the global conflict resolution policy, consulted when a field
// has no resolver of its own.
type SyncPolicy uint8

const (
	// PreferCanvas resolves conflicts to the canvas-cache value.
	PreferCanvas SyncPolicy = iota
	// PreferStore resolves conflicts to the store value.
	PreferStore
	// ManualResolve queues conflicts for an external decision.
	ManualResolve
)

// FieldDescriptor declares one syncable field. Fields absent from the
// descriptor table never cross the pipeline; derived values (match counts,
// scores) stay out of it and flow store to render only.
type FieldDescriptor struct {
	Name     string
	Enabled  bool
	Priority int
	// Validate rejects an incoming value. A rejection drops the change (or
	// rolls back its transaction) and bumps the error counter.
	Validate func(value any) error
	// Transform normalizes an incoming value before validation and apply.
	Transform func(value any) any
	// Resolve overrides the global policy for this field's conflicts.
	Resolve func(conflict SyncConflict) any
}

// SyncChange is one queued field update. Never mutated after creation.
type SyncChange struct {
	ID        uuid.UUID
	Source    SyncSource
	Field     string
	OldValue  any
	NewValue  any
	Timestamp time.Time
	Priority  int
}

// SyncConflict records a field where the store value, the canvas-cache value,
// and an incoming value are pairwise distinct. Resolved exactly once.
type SyncConflict struct {
	Field       string
	CanvasValue any
	StoreValue  any
	Incoming    any
	Resolution  any
	Resolved    bool
}

// TxState is the lifecycle state of a sync transaction.
type TxState uint8

const (
	TxPending TxState = iota
	TxCommitting
	TxCommitted
	TxRolledBack
)

// String returns the lowercase name of the transaction state.
func (t TxState) String() string {
	switch t {
	case TxCommitting:
		return "committing"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled_back"
	default:
		return "pending"
	}
}

// SyncTransaction wraps one flush batch when transactional mode is on.
type SyncTransaction struct {
	ID      uuid.UUID
	State   TxState
	applied []appliedChange
}

// appliedChange is the undo record for one applied change.
type appliedChange struct {
	field        string
	prevCache    any
	hadCache     bool
	storeWritten bool
	prevStore    any
}

// SyncOptions tunes the synchronization engine. Zero values take the defaults.
type SyncOptions struct {
	Policy        SyncPolicy
	Transactional bool
	// FlushInterval is the batching window (default 16ms, one frame).
	FlushInterval time.Duration
	// DebounceWindow coalesces rapid repeats on the same field (default 50ms).
	DebounceWindow time.Duration
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.FlushInterval <= 0 {
		o.FlushInterval = 16 * time.Millisecond
	}
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 50 * time.Millisecond
	}
	return o
}

// pendingChange is a debouncing change not yet committed to the queue.
type pendingChange struct {
	change   SyncChange
	deadline time.Time
}

// SyncEngine keeps a canvas-local cache of the syncable fields consistent
// with the game store in both directions. Changes debounce per field, queue,
// and flush on a fixed batching window in descending priority order; batches
// flush FIFO relative to one another. The engine is single-goroutine: drive
// it from the game loop via Update.
type SyncEngine struct {
	store  GameStore
	fields map[string]*FieldDescriptor
	opts   SyncOptions
	clock  func() time.Time
	log    *zap.SugaredLogger

	cache     map[string]any
	pending   map[string]*pendingChange
	queue     []SyncChange
	lastFlush time.Time

	conflicts []SyncConflict
	lastTx    *SyncTransaction

	errorCount    int
	conflictCount int
}

// NewSyncEngine creates a synchronization engine over the store and field
// table. The canvas cache is seeded from the store so the first flush starts
// from agreement.
func NewSyncEngine(store GameStore, fields []FieldDescriptor, opts SyncOptions) (*SyncEngine, error) {
	if err := validateStore(store, fields); err != nil {
		return nil, err
	}
	e := &SyncEngine{
		store:   store,
		fields:  make(map[string]*FieldDescriptor, len(fields)),
		opts:    opts.withDefaults(),
		clock:   time.Now,
		log:     zap.NewNop().Sugar(),
		cache:   make(map[string]any, len(fields)),
		pending: make(map[string]*pendingChange),
	}
	for i := range fields {
		f := fields[i]
		e.fields[f.Name] = &f
		if v, ok := store.Field(f.Name); ok {
			e.cache[f.Name] = v
		}
	}
	return e, nil
}

// SetClock overrides the time source. Intended for tests.
func (e *SyncEngine) SetClock(clock func() time.Time) {
	e.clock = clock
}

// SetLogger sets the logger for dropped changes and conflicts. A nil logger
// disables it.
func (e *SyncEngine) SetLogger(log *zap.SugaredLogger) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e.log = log
}

// QueueChange records a field update from either side. Rapid repeats on the
// same field coalesce: the earliest old value and the latest new value
// survive. Unknown fields are dropped and counted as errors.
func (e *SyncEngine) QueueChange(source SyncSource, field string, newValue any) {
	desc, ok := e.fields[field]
	if !ok {
		e.errorCount++
		e.log.Warnw("change for unknown sync field dropped", "field", field, "source", source)
		return
	}
	now := e.clock()
	if p, ok := e.pending[field]; ok {
		p.change.Source = source
		p.change.NewValue = newValue
		p.change.Timestamp = now
		p.deadline = now.Add(e.opts.DebounceWindow)
		return
	}
	e.pending[field] = &pendingChange{
		change: SyncChange{
			ID:        uuid.New(),
			Source:    source,
			Field:     field,
			OldValue:  e.cache[field],
			NewValue:  newValue,
			Timestamp: now,
			Priority:  desc.Priority,
		},
		deadline: now.Add(e.opts.DebounceWindow),
	}
}

// Update promotes settled debounces into the queue and flushes when the
// batching window has elapsed. Call once per frame.
func (e *SyncEngine) Update() {
	now := e.clock()
	for field, p := range e.pending {
		if !now.Before(p.deadline) {
			e.queue = append(e.queue, p.change)
			delete(e.pending, field)
		}
	}
	if len(e.queue) == 0 {
		return
	}
	if now.Sub(e.lastFlush) >= e.opts.FlushInterval {
		e.Flush()
	}
}

// Flush applies every queued change immediately, in descending priority
// order. In transactional mode the whole batch commits or rolls back as one.
func (e *SyncEngine) Flush() {
	if len(e.queue) == 0 {
		return
	}
	batch := e.queue
	e.queue = nil
	e.lastFlush = e.clock()

	// Stable sort keeps FIFO order between equal priorities.
	sortChangesByPriority(batch)

	if !e.opts.Transactional {
		for _, ch := range batch {
			if err := e.applyChange(ch, nil); err != nil {
				e.errorCount++
				e.log.Warnw("sync change dropped", "field", ch.Field, "error", err)
			}
		}
		return
	}

	tx := &SyncTransaction{ID: uuid.New(), State: TxPending}
	e.lastTx = tx
	tx.State = TxCommitting
	for _, ch := range batch {
		if err := e.applyChange(ch, tx); err != nil {
			e.errorCount++
			e.log.Warnw("sync transaction rolling back", "tx", tx.ID, "field", ch.Field, "error", err)
			e.rollback(tx)
			return
		}
	}
	tx.State = TxCommitted
}

// sortChangesByPriority orders changes by descending priority, stable.
func sortChangesByPriority(changes []SyncChange) {
	for i := 1; i < len(changes); i++ {
		for j := i; j > 0 && changes[j].Priority > changes[j-1].Priority; j-- {
			changes[j], changes[j-1] = changes[j-1], changes[j]
		}
	}
}

// applyChange transforms, validates, conflict-checks, and applies one change.
// The canvas cache is always updated; the store is written only for
// canvas-origin changes on enabled fields.
func (e *SyncEngine) applyChange(ch SyncChange, tx *SyncTransaction) error {
	desc := e.fields[ch.Field]

	value := ch.NewValue
	if desc.Transform != nil {
		value = desc.Transform(value)
	}
	if desc.Validate != nil {
		if err := desc.Validate(value); err != nil {
			return err
		}
	}

	canvasVal, hadCache := e.cache[ch.Field]
	storeVal, _ := e.store.Field(ch.Field)

	if isConflict(storeVal, canvasVal, value) {
		e.conflictCount++
		conflict := SyncConflict{
			Field:       ch.Field,
			CanvasValue: canvasVal,
			StoreValue:  storeVal,
			Incoming:    value,
		}
		switch {
		case desc.Resolve != nil:
			value = desc.Resolve(conflict)
		case e.opts.Policy == PreferCanvas:
			value = canvasVal
		case e.opts.Policy == PreferStore:
			value = storeVal
		default:
			e.conflicts = append(e.conflicts, conflict)
			e.log.Infow("sync conflict queued for manual resolution", "field", ch.Field)
			return nil
		}
	}

	undo := appliedChange{field: ch.Field, prevCache: canvasVal, hadCache: hadCache}
	e.cache[ch.Field] = value

	if ch.Source == SourceCanvas && desc.Enabled {
		undo.storeWritten = true
		undo.prevStore = storeVal
		if err := e.store.SetField(ch.Field, value); err != nil {
			// Keep the cache consistent with the failed write.
			e.restoreCache(undo)
			return err
		}
	}
	if tx != nil {
		tx.applied = append(tx.applied, undo)
	}
	return nil
}

// rollback undoes a transaction's applied changes in reverse order. Store
// restores are best-effort; a failed restore is logged and skipped.
func (e *SyncEngine) rollback(tx *SyncTransaction) {
	for i := len(tx.applied) - 1; i >= 0; i-- {
		undo := tx.applied[i]
		e.restoreCache(undo)
		if undo.storeWritten {
			if err := e.store.SetField(undo.field, undo.prevStore); err != nil {
				e.log.Warnw("rollback store restore failed", "tx", tx.ID, "field", undo.field, "error", err)
			}
		}
	}
	tx.applied = nil
	tx.State = TxRolledBack
}

func (e *SyncEngine) restoreCache(undo appliedChange) {
	if undo.hadCache {
		e.cache[undo.field] = undo.prevCache
	} else {
		delete(e.cache, undo.field)
	}
}

// isConflict reports whether the three values are pairwise distinct.
func isConflict(storeVal, canvasVal, incoming any) bool {
	return !valuesEqual(storeVal, canvasVal) &&
		!valuesEqual(storeVal, incoming) &&
		!valuesEqual(canvasVal, incoming)
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// CacheValue reads the canvas-local cache. This is what the render layer
// consumes; it never reads the store directly for syncable fields.
func (e *SyncEngine) CacheValue(field string) (any, bool) {
	v, ok := e.cache[field]
	return v, ok
}

// PendingConflicts returns the unresolved manual-resolution queue.
func (e *SyncEngine) PendingConflicts() []SyncConflict {
	out := make([]SyncConflict, 0, len(e.conflicts))
	for _, c := range e.conflicts {
		if !c.Resolved {
			out = append(out, c)
		}
	}
	return out
}

// ResolveConflict settles the oldest unresolved conflict on the field with
// the given value, updating the cache and, for enabled fields, the store.
func (e *SyncEngine) ResolveConflict(field string, value any) bool {
	for i := range e.conflicts {
		c := &e.conflicts[i]
		if c.Field != field || c.Resolved {
			continue
		}
		c.Resolution = value
		c.Resolved = true
		e.cache[field] = value
		if desc, ok := e.fields[field]; ok && desc.Enabled {
			if err := e.store.SetField(field, value); err != nil {
				e.errorCount++
				e.log.Warnw("conflict resolution store write failed", "field", field, "error", err)
			}
		}
		return true
	}
	return false
}

// LastTransaction returns the most recent transaction, or nil when none has
// run. Only meaningful in transactional mode.
func (e *SyncEngine) LastTransaction() *SyncTransaction {
	return e.lastTx
}

// ErrorCount returns the number of dropped or failed changes.
func (e *SyncEngine) ErrorCount() int {
	return e.errorCount
}

// ConflictCount returns the number of conflicts detected so far.
func (e *SyncEngine) ConflictCount() int {
	return e.conflictCount
}

// QueueLen returns the number of changes awaiting flush, debouncing included.
func (e *SyncEngine) QueueLen() int {
	return len(e.queue) + len(e.pending)
}
