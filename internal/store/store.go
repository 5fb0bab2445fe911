// Package store keeps a published snapshot of the curriculum in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/readingprep/internal/curriculum"
	"github.com/pavelanni/readingprep/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS modules (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		theme TEXT NOT NULL,
		shape TEXT NOT NULL,
		document TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vocabulary (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		week INTEGER NOT NULL,
		word TEXT NOT NULL,
		definition TEXT NOT NULL,
		FOREIGN KEY (week) REFERENCES modules(id)
	);

	CREATE INDEX IF NOT EXISTS vocabulary_word ON vocabulary(word);

	CREATE TABLE IF NOT EXISTS content_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Publish replaces the snapshot with the catalog's modules in one
// transaction. source names where the catalog was read from. It does
// nothing and returns false when the stored fingerprint already matches
// the catalog.
func (s *Store) Publish(cat *curriculum.Catalog, source string) (bool, error) {
	stored, err := s.GetMetadata(keyFingerprint)
	if err != nil {
		return false, fmt.Errorf("read fingerprint: %w", err)
	}
	if stored == cat.Fingerprint() {
		slog.Info("snapshot unchanged, skipping publish", "fingerprint", stored)
		return false, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM vocabulary`); err != nil {
		return false, err
	}
	if _, err := tx.Exec(`DELETE FROM modules`); err != nil {
		return false, err
	}

	for _, m := range cat.All() {
		doc, err := json.Marshal(m)
		if err != nil {
			return false, fmt.Errorf("encode module %d: %w", m.ID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO modules (id, title, theme, shape, document) VALUES (?, ?, ?, ?, ?)`,
			m.ID, m.Title, string(m.Theme), m.Shape(), string(doc),
		); err != nil {
			return false, fmt.Errorf("insert module %d: %w", m.ID, err)
		}
		for _, v := range m.Vocabulary {
			if _, err := tx.Exec(
				`INSERT INTO vocabulary (week, word, definition) VALUES (?, ?, ?)`,
				m.ID, v.Word, v.Definition,
			); err != nil {
				return false, fmt.Errorf("insert vocabulary for module %d: %w", m.ID, err)
			}
		}
	}

	info := SnapshotInfo{
		Fingerprint: cat.Fingerprint(),
		Modules:     cat.Len(),
		Source:      source,
		PublishedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := setSnapshotInfo(tx, info); err != nil {
		return false, fmt.Errorf("record snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	slog.Info("published snapshot", "modules", info.Modules, "fingerprint", info.Fingerprint)
	return true, nil
}

// Modules reads every module of the snapshot in id order.
func (s *Store) Modules() ([]model.Module, error) {
	rows, err := s.db.Query(`SELECT id, document FROM modules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var mods []model.Module
	for rows.Next() {
		var (
			id  int
			doc string
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var m model.Module
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, fmt.Errorf("decode module %d: %w", id, err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

// Catalog rebuilds a catalog from the snapshot, applying the same
// completeness check as a catalog built from files.
func (s *Store) Catalog(target int) (*curriculum.Catalog, error) {
	mods, err := s.Modules()
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return curriculum.FromModules(mods, target)
}

// likeEscaper makes a search query match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchVocabulary returns snapshot vocabulary whose word, definition or
// "week N" label contains q, ignoring ASCII case, ordered by week. An empty
// q returns every entry.
func (s *Store) SearchVocabulary(q string) ([]model.WeekVocab, error) {
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
	rows, err := s.db.Query(
		`SELECT week, word, definition FROM vocabulary
		 WHERE word LIKE ? ESCAPE '\'
		    OR definition LIKE ? ESCAPE '\'
		    OR ('week ' || week) LIKE ? ESCAPE '\'
		 ORDER BY week, id`,
		pattern, pattern, pattern,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.WeekVocab{}
	for rows.Next() {
		var v model.WeekVocab
		if err := rows.Scan(&v.Week, &v.Word, &v.Definition); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setMetadata(e execer, key, value string) error {
	_, err := e.Exec(
		`INSERT INTO content_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

func setSnapshotInfo(e execer, info SnapshotInfo) error {
	pairs := []struct{ k, v string }{
		{keyFingerprint, info.Fingerprint},
		{keyModules, strconv.Itoa(info.Modules)},
		{keySource, info.Source},
		{keyPublishedAt, info.PublishedAt.Format(time.RFC3339)},
	}
	for _, p := range pairs {
		if err := setMetadata(e, p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}
