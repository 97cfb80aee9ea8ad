package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Archive stores run metadata, window stats, bookmarks and top hunters
// in SQLite so runs can be compared across invocations.
type Archive struct {
	conn  *sqlx.DB
	runID string
}

// RunInfo describes one archived run.
type RunInfo struct {
	ID           string `db:"id"`
	Seed         int64  `db:"seed"`
	StartedAt    string `db:"started_at"`
	FinishedTick int32  `db:"finished_tick"`
	ConfigYAML   string `db:"config_yaml"`
}

// WindowRow is the archived subset of WindowStats.
type WindowRow struct {
	RunID       string  `db:"run_id"`
	WindowEnd   int32   `db:"window_end"`
	Boids       int     `db:"boids"`
	Kills       int     `db:"kills"`
	Hits        int     `db:"hits"`
	Strikes     int     `db:"strikes"`
	HungerMean  float64 `db:"hunger_mean"`
	CellSize    float64 `db:"cell_size"`
	LargestCell int     `db:"largest_cell"`
	Resizes     int     `db:"resizes"`
}

// OpenArchive opens or creates an archive at path and registers a new run.
func OpenArchive(path string, seed int64, configYAML string) (*Archive, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := &Archive{conn: conn, runID: uuid.NewString()}
	if err := a.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	_, err = conn.Exec(
		"INSERT INTO runs (id, seed, started_at, finished_tick, config_yaml) VALUES (?, ?, ?, ?, ?)",
		a.runID, seed, time.Now().UTC().Format(time.RFC3339), -1, configYAML,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}

	slog.Info("archive opened", "path", path, "run_id", a.runID)
	return a, nil
}

// RunID returns the identifier of the run being archived.
func (a *Archive) RunID() string {
	if a == nil {
		return ""
	}
	return a.runID
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_tick INTEGER NOT NULL,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS windows (
		run_id TEXT NOT NULL,
		window_end INTEGER NOT NULL,
		boids INTEGER NOT NULL,
		kills INTEGER NOT NULL,
		hits INTEGER NOT NULL,
		strikes INTEGER NOT NULL,
		hunger_mean REAL NOT NULL,
		cell_size REAL NOT NULL,
		largest_cell INTEGER NOT NULL,
		resizes INTEGER NOT NULL,
		PRIMARY KEY (run_id, window_end)
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hunters (
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		entity_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		kills INTEGER NOT NULL,
		hits INTEGER NOT NULL,
		strikes INTEGER NOT NULL,
		damage INTEGER NOT NULL,
		PRIMARY KEY (run_id, rank)
	);

	CREATE INDEX IF NOT EXISTS idx_bookmarks_run ON bookmarks(run_id);
	`
	_, err := a.conn.Exec(schema)
	return err
}

// InsertWindow archives one window.
func (a *Archive) InsertWindow(s WindowStats) error {
	if a == nil {
		return nil
	}
	_, err := a.conn.NamedExec(`INSERT INTO windows
		(run_id, window_end, boids, kills, hits, strikes, hunger_mean, cell_size, largest_cell, resizes)
		VALUES (:run_id, :window_end, :boids, :kills, :hits, :strikes, :hunger_mean, :cell_size, :largest_cell, :resizes)`,
		WindowRow{
			RunID:       a.runID,
			WindowEnd:   s.WindowEndTick,
			Boids:       s.Boids,
			Kills:       s.Kills,
			Hits:        s.Hits,
			Strikes:     s.Strikes,
			HungerMean:  s.HungerMean,
			CellSize:    s.CellSize,
			LargestCell: s.LargestCell,
			Resizes:     s.Resizes,
		})
	if err != nil {
		return fmt.Errorf("insert window: %w", err)
	}
	return nil
}

// InsertBookmark archives one bookmark.
func (a *Archive) InsertBookmark(b Bookmark) error {
	if a == nil {
		return nil
	}
	_, err := a.conn.Exec(
		"INSERT INTO bookmarks (run_id, tick, type, description) VALUES (?, ?, ?, ?)",
		a.runID, b.Tick, string(b.Type), b.Description,
	)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

// Finish records the final tick and the top hunters of the run.
func (a *Archive) Finish(tick int32, top []HunterStats) error {
	if a == nil {
		return nil
	}
	tx, err := a.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE runs SET finished_tick = ? WHERE id = ?", tick, a.runID); err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO hunters
		(run_id, rank, entity_id, name, kills, hits, strikes, damage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, h := range top {
		if _, err := stmt.Exec(a.runID, i+1, h.EntityID, h.Name, h.Kills, h.Hits, h.Strikes, h.DamageDealt); err != nil {
			return fmt.Errorf("insert hunter %d: %w", h.EntityID, err)
		}
	}

	return tx.Commit()
}

// Windows returns the archived windows of the current run in tick order.
func (a *Archive) Windows() ([]WindowRow, error) {
	var rows []WindowRow
	err := a.conn.Select(&rows,
		"SELECT * FROM windows WHERE run_id = ? ORDER BY window_end",
		a.runID,
	)
	return rows, err
}

// Run returns the metadata of the current run.
func (a *Archive) Run() (RunInfo, error) {
	var info RunInfo
	err := a.conn.Get(&info, "SELECT * FROM runs WHERE id = ?", a.runID)
	return info, err
}

// BookmarkCount returns how many bookmarks the current run has archived.
func (a *Archive) BookmarkCount() (int, error) {
	var n int
	err := a.conn.Get(&n, "SELECT COUNT(*) FROM bookmarks WHERE run_id = ?", a.runID)
	return n, err
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	return a.conn.Close()
}
