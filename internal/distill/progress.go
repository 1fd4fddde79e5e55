package distill

import (
	"fmt"
	"sync"
)

// Pipeline stage names as reported in progress snapshots. Tag tree levels
// report as "level1", "level2", ... and are formatted where they occur.
const (
	StageInitializing = "initializing"
	StageQuestions    = "questions"
	StageDatasets     = "datasets"
	StageMultiTurn    = "multi-turn-datasets"
	StageCompleted    = "completed"
)

// Snapshot is the full progress state of a run at one point in time.
type Snapshot struct {
	Stage          string `json:"stage"`
	TagsTotal      int    `json:"tagsTotal"`
	TagsBuilt      int    `json:"tagsBuilt"`
	QuestionsTotal int    `json:"questionsTotal"`
	QuestionsBuilt int    `json:"questionsBuilt"`
	DatasetsTotal  int    `json:"datasetsTotal"`
	DatasetsBuilt  int    `json:"datasetsBuilt"`
	MultiTurnTotal int    `json:"multiTurnDatasetsTotal"`
	MultiTurnBuilt int    `json:"multiTurnDatasetsBuilt"`
}

// Counter identifies one of the numeric fields of a Snapshot.
type Counter int

const (
	TagsTotal Counter = iota
	TagsBuilt
	QuestionsTotal
	QuestionsBuilt
	DatasetsTotal
	DatasetsBuilt
	MultiTurnTotal
	MultiTurnBuilt
)

// Tracker accumulates run progress and fans each mutation out to the
// observer callbacks. All methods are safe for concurrent use; every
// mutation triggers exactly one onProgress call carrying a copy of the
// snapshot. Callbacks run under the tracker lock and must not call back
// into the tracker.
type Tracker struct {
	mu         sync.Mutex
	snap       Snapshot
	onProgress func(Snapshot)
	onLog      func(string)
}

// NewTracker creates a tracker. Both callbacks may be nil.
func NewTracker(onProgress func(Snapshot), onLog func(string)) *Tracker {
	return &Tracker{onProgress: onProgress, onLog: onLog}
}

// SetStage updates the stage name.
func (t *Tracker) SetStage(stage string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Stage = stage
	t.notify()
}

// Set overwrites a counter.
func (t *Tracker) Set(c Counter, v int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	*t.field(c) = v
	t.notify()
}

// Add increments a counter by delta.
func (t *Tracker) Add(c Counter, delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	*t.field(c) += delta
	t.notify()
}

// Logf emits a formatted log line to the onLog observer.
func (t *Tracker) Logf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.onLog != nil {
		t.onLog(fmt.Sprintf(format, args...))
	}
}

// Snapshot returns a copy of the current progress state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

func (t *Tracker) notify() {
	if t.onProgress != nil {
		t.onProgress(t.snap)
	}
}

func (t *Tracker) field(c Counter) *int {
	switch c {
	case TagsTotal:
		return &t.snap.TagsTotal
	case TagsBuilt:
		return &t.snap.TagsBuilt
	case QuestionsTotal:
		return &t.snap.QuestionsTotal
	case QuestionsBuilt:
		return &t.snap.QuestionsBuilt
	case DatasetsTotal:
		return &t.snap.DatasetsTotal
	case DatasetsBuilt:
		return &t.snap.DatasetsBuilt
	case MultiTurnTotal:
		return &t.snap.MultiTurnTotal
	case MultiTurnBuilt:
		return &t.snap.MultiTurnBuilt
	}
	panic(fmt.Sprintf("unknown counter %d", c))
}
