package distill

import (
	"sync"
	"testing"
)

func TestTrackerNotifiesEveryMutation(t *testing.T) {
	var snaps []Snapshot
	tr := NewTracker(func(s Snapshot) { snaps = append(snaps, s) }, nil)

	tr.SetStage(StageInitializing)
	tr.Set(TagsTotal, 9)
	tr.Add(TagsBuilt, 3)
	tr.Add(TagsBuilt, 3)

	if len(snaps) != 4 {
		t.Fatalf("callbacks = %d, want 4", len(snaps))
	}
	last := snaps[len(snaps)-1]
	if last.Stage != StageInitializing {
		t.Errorf("stage = %q", last.Stage)
	}
	if last.TagsTotal != 9 || last.TagsBuilt != 6 {
		t.Errorf("tags = %d/%d, want 6/9", last.TagsBuilt, last.TagsTotal)
	}
}

func TestTrackerSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.Set(QuestionsTotal, 5)

	snap := tr.Snapshot()
	snap.QuestionsTotal = 99

	if tr.Snapshot().QuestionsTotal != 5 {
		t.Error("mutating a returned snapshot leaked into the tracker")
	}
}

func TestTrackerConcurrentAdds(t *testing.T) {
	tr := NewTracker(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Add(DatasetsBuilt, 1)
		}()
	}
	wg.Wait()

	if got := tr.Snapshot().DatasetsBuilt; got != 50 {
		t.Errorf("DatasetsBuilt = %d, want 50", got)
	}
}

func TestTrackerLogf(t *testing.T) {
	var lines []string
	tr := NewTracker(nil, func(msg string) { lines = append(lines, msg) })

	tr.Logf("created %d tags", 4)

	if len(lines) != 1 || lines[0] != "created 4 tags" {
		t.Errorf("lines = %v", lines)
	}
}

func TestTrackerNilCallbacks(t *testing.T) {
	tr := NewTracker(nil, nil)
	// None of these may panic.
	tr.SetStage(StageQuestions)
	tr.Set(MultiTurnTotal, 3)
	tr.Add(MultiTurnBuilt, 1)
	tr.Logf("quiet")
}

func TestTrackerAllCounters(t *testing.T) {
	tr := NewTracker(nil, nil)
	counters := []Counter{
		TagsTotal, TagsBuilt, QuestionsTotal, QuestionsBuilt,
		DatasetsTotal, DatasetsBuilt, MultiTurnTotal, MultiTurnBuilt,
	}
	for i, c := range counters {
		tr.Set(c, i+1)
	}
	snap := tr.Snapshot()
	want := Snapshot{
		TagsTotal: 1, TagsBuilt: 2, QuestionsTotal: 3, QuestionsBuilt: 4,
		DatasetsTotal: 5, DatasetsBuilt: 6, MultiTurnTotal: 7, MultiTurnBuilt: 8,
	}
	if snap != want {
		t.Errorf("snapshot = %+v, want %+v", snap, want)
	}
}
