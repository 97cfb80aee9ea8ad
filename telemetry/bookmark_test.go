package telemetry

import (
	"testing"

	"github.com/pthm-cable/boids/config"
)

func testBookmarksConfig() config.BookmarksConfig {
	return config.BookmarksConfig{
		KillSpike: config.KillSpikeConfig{Multiplier: 2.0, MinKills: 5},
		Famine:    config.FamineConfig{MeanHunger: 90, Windows: 3},
	}
}

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_KillSpike(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 100), Boids: 20, Kills: 2})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 500, Boids: 20, Kills: 8})
	if !hasBookmark(bookmarks, BookmarkKillSpike) {
		t.Error("expected kill_spike bookmark")
	}
}

func TestBookmarkDetector_KillSpikeBelowMinimum(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 100), Boids: 20})
	}

	// Infinitely above a zero average, but under MinKills.
	bookmarks := bd.Check(WindowStats{WindowEndTick: 500, Boids: 20, Kills: 3})
	if hasBookmark(bookmarks, BookmarkKillSpike) {
		t.Error("did not expect kill_spike bookmark below min kills")
	}
}

func TestBookmarkDetector_KillSpikeNeedsHistory(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())

	bd.Check(WindowStats{WindowEndTick: 0, Kills: 1})
	bookmarks := bd.Check(WindowStats{WindowEndTick: 100, Kills: 50})
	if hasBookmark(bookmarks, BookmarkKillSpike) {
		t.Error("did not expect kill_spike bookmark with fewer than 3 windows of history")
	}
}

func TestBookmarkDetector_FamineFiresOnce(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())

	var fired []int
	for i := 0; i < 6; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int32(i * 100), Boids: 10, HungerMean: 95})
		if hasBookmark(bookmarks, BookmarkFamine) {
			fired = append(fired, i)
		}
	}
	if len(fired) != 1 || fired[0] != 2 {
		t.Errorf("famine fired at windows %v, want [2]", fired)
	}

	// Recovery re-arms the detector.
	bd.Check(WindowStats{WindowEndTick: 600, Boids: 10, HungerMean: 40})
	var refired bool
	for i := 0; i < 3; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int32(700 + i*100), Boids: 10, HungerMean: 95})
		refired = refired || hasBookmark(bookmarks, BookmarkFamine)
	}
	if !refired {
		t.Error("expected famine to fire again after recovery")
	}
}

func TestBookmarkDetector_GridResize(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())

	if bookmarks := bd.Check(WindowStats{WindowEndTick: 100, CellSize: 10}); hasBookmark(bookmarks, BookmarkGridResize) {
		t.Error("first window should not report a resize")
	}
	if bookmarks := bd.Check(WindowStats{WindowEndTick: 200, CellSize: 10}); hasBookmark(bookmarks, BookmarkGridResize) {
		t.Error("unchanged cell size should not report a resize")
	}
	if bookmarks := bd.Check(WindowStats{WindowEndTick: 300, CellSize: 5}); !hasBookmark(bookmarks, BookmarkGridResize) {
		t.Error("expected grid_resize bookmark")
	}
}

func TestBookmarkDetector_PlayerKilled(t *testing.T) {
	bd := NewBookmarkDetector(10, testBookmarksConfig())

	bd.Check(WindowStats{WindowEndTick: 100, PlayerAlive: true})
	bookmarks := bd.Check(WindowStats{WindowEndTick: 200, PlayerAlive: false})
	if !hasBookmark(bookmarks, BookmarkPlayerKilled) {
		t.Error("expected player_killed bookmark")
	}

	bookmarks = bd.Check(WindowStats{WindowEndTick: 300, PlayerAlive: false})
	if hasBookmark(bookmarks, BookmarkPlayerKilled) {
		t.Error("player_killed should only fire on the transition")
	}
}

func TestBookmarkDetector_HistoryWraps(t *testing.T) {
	bd := NewBookmarkDetector(3, testBookmarksConfig())

	for i := 0; i < 7; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i)})
	}
	if got := len(bd.getHistory()); got != 3 {
		t.Errorf("history length = %d, want 3", got)
	}
	last, ok := bd.latest()
	if !ok || last.WindowEndTick != 6 {
		t.Errorf("latest = %d, %v; want 6, true", last.WindowEndTick, ok)
	}
}
