package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/boids/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkKillSpike    BookmarkType = "kill_spike"
	BookmarkFamine       BookmarkType = "famine"
	BookmarkGridResize   BookmarkType = "grid_resize"
	BookmarkPlayerKilled BookmarkType = "player_killed"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	famineWindows int
	famineFired   bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3 // minimum for a rolling average
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkKillSpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFamine(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkGridResize(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkPlayerKilled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// latest returns the most recent window in history.
func (bd *BookmarkDetector) latest() (WindowStats, bool) {
	if !bd.historyFull && bd.historyIdx == 0 {
		return WindowStats{}, false
	}
	idx := (bd.historyIdx - 1 + bd.historySize) % bd.historySize
	return bd.history[idx], true
}

func (bd *BookmarkDetector) checkKillSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var totalKills int
	for _, h := range history {
		totalKills += h.Kills
	}
	avgKills := float64(totalKills) / float64(len(history))

	spike := bd.cfg.KillSpike
	if stats.Kills < spike.MinKills {
		return nil
	}
	if avgKills > 0 && float64(stats.Kills) <= avgKills*spike.Multiplier {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkKillSpike,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d kills against a rolling average of %.1f", stats.Kills, avgKills),
	}
}

func (bd *BookmarkDetector) checkFamine(stats WindowStats) *Bookmark {
	famine := bd.cfg.Famine
	if stats.Boids == 0 || stats.HungerMean < famine.MeanHunger {
		bd.famineWindows = 0
		bd.famineFired = false
		return nil
	}

	bd.famineWindows++
	if bd.famineFired || bd.famineWindows < famine.Windows {
		return nil
	}
	bd.famineFired = true
	return &Bookmark{
		Type:        BookmarkFamine,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Mean hunger %.1f for %d windows", stats.HungerMean, bd.famineWindows),
	}
}

func (bd *BookmarkDetector) checkGridResize(stats WindowStats) *Bookmark {
	prev, ok := bd.latest()
	if !ok || prev.CellSize == stats.CellSize {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkGridResize,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Cell size %.2f -> %.2f (largest cell %d)", prev.CellSize, stats.CellSize, stats.LargestCell),
	}
}

func (bd *BookmarkDetector) checkPlayerKilled(stats WindowStats) *Bookmark {
	prev, ok := bd.latest()
	if !ok || !prev.PlayerAlive || stats.PlayerAlive {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkPlayerKilled,
		Tick:        stats.WindowEndTick,
		Description: "Player was hunted down",
	}
}
