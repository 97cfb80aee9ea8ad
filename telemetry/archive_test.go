package telemetry

import (
	"path/filepath"
	"testing"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(filepath.Join(t.TempDir(), "runs.db"), 7, "world: {}\n")
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchive_WindowsRoundTrip(t *testing.T) {
	a := openTestArchive(t)

	for i, kills := range []int{3, 1, 4} {
		err := a.InsertWindow(WindowStats{
			WindowEndTick: int32((i + 1) * 100),
			Boids:         60,
			Kills:         kills,
			CellSize:      10,
		})
		if err != nil {
			t.Fatalf("InsertWindow: %v", err)
		}
	}

	rows, err := a.Windows()
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for i, want := range []int{3, 1, 4} {
		if rows[i].Kills != want || rows[i].WindowEnd != int32((i+1)*100) {
			t.Errorf("row %d = %+v", i, rows[i])
		}
		if rows[i].RunID != a.RunID() {
			t.Errorf("row %d run id = %q, want %q", i, rows[i].RunID, a.RunID())
		}
	}
}

func TestArchive_Finish(t *testing.T) {
	a := openTestArchive(t)

	if err := a.InsertBookmark(Bookmark{Type: BookmarkFamine, Tick: 300, Description: "hungry"}); err != nil {
		t.Fatalf("InsertBookmark: %v", err)
	}
	top := []HunterStats{
		{EntityID: 4, Name: "a", Kills: 3},
		{EntityID: 9, Name: "b", Kills: 1},
	}
	if err := a.Finish(1000, top); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	info, err := a.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if info.Seed != 7 || info.FinishedTick != 1000 {
		t.Errorf("run = %+v, want seed 7 finished at 1000", info)
	}

	n, err := a.BookmarkCount()
	if err != nil {
		t.Fatalf("BookmarkCount: %v", err)
	}
	if n != 1 {
		t.Errorf("BookmarkCount = %d, want 1", n)
	}
}

func TestArchive_SeparateRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	first, err := OpenArchive(path, 1, "")
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	if err := first.InsertWindow(WindowStats{WindowEndTick: 100}); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := OpenArchive(path, 2, "")
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer second.Close()

	if second.RunID() == first.RunID() {
		t.Error("runs should get distinct ids")
	}
	rows, err := second.Windows()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("second run sees %d windows from the first", len(rows))
	}
}

func TestArchive_NilIsNoop(t *testing.T) {
	var a *Archive
	if err := a.InsertWindow(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := a.Finish(0, nil); err != nil {
		t.Error(err)
	}
	if a.RunID() != "" {
		t.Error("nil archive should have empty run id")
	}
}
