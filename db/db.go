package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"voicecmd/model"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

// Open creates the parent directory of path if needed, opens the SQLite
// database there and makes sure the schema exists.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		CREATE TABLE IF NOT EXISTS commands (
			id TEXT PRIMARY KEY,
			phrase TEXT NOT NULL,
			type TEXT NOT NULL,
			action TEXT NOT NULL,
			description TEXT DEFAULT '',
			created_at INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_commands_phrase ON commands(phrase, type);
		CREATE TABLE IF NOT EXISTS phonetic_mappings (
			word TEXT PRIMARY KEY,
			phonetic TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// Meta returns the value stored under key and whether it was present.
func (d *DB) Meta(key string) (string, bool, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (d *DB) SetMeta(key, value string) error {
	_, err := d.conn.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// List returns every readable command in insertion order. Rows that cannot be
// read back into a valid command are skipped and counted.
func (d *DB) List() ([]model.Command, int, error) {
	rows, err := d.conn.Query(`
		SELECT id, phrase, type, action, description, created_at
		FROM commands
		ORDER BY rowid
	`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		commands []model.Command
		skipped  int
	)
	for rows.Next() {
		c, ok := scanCommand(rows)
		if !ok {
			skipped++
			continue
		}
		commands = append(commands, c)
	}
	return commands, skipped, rows.Err()
}

func scanCommand(rows *sql.Rows) (model.Command, bool) {
	var (
		id, phrase, typ, action, desc sql.NullString
		createdAt                     sql.NullInt64
	)
	if err := rows.Scan(&id, &phrase, &typ, &action, &desc, &createdAt); err != nil {
		return model.Command{}, false
	}
	c := model.Command{
		ID:          id.String,
		Phrase:      phrase.String,
		Type:        model.CommandType(typ.String),
		Action:      action.String,
		Description: desc.String,
	}
	if createdAt.Valid {
		c.CreatedAt = time.UnixMilli(createdAt.Int64)
	}
	if c.ID == "" || c.Input().Validate() != nil {
		return model.Command{}, false
	}
	return c, true
}

func (d *DB) Insert(c model.Command) error {
	_, err := d.conn.Exec(
		`INSERT INTO commands (id, phrase, type, action, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Phrase, string(c.Type), c.Action, c.Description, c.CreatedAt.UnixMilli(),
	)
	return err
}

// Update rewrites the mutable fields of the row with c.ID. It reports false
// when no such row exists.
func (d *DB) Update(c model.Command) (bool, error) {
	result, err := d.conn.Exec(
		`UPDATE commands SET phrase = ?, type = ?, action = ?, description = ? WHERE id = ?`,
		c.Phrase, string(c.Type), c.Action, c.Description, c.ID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Delete removes the row with id. It reports false when no such row exists.
func (d *DB) Delete(id string) (bool, error) {
	result, err := d.conn.Exec(`DELETE FROM commands WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (d *DB) ListPhonetics() ([]model.PhoneticMapping, error) {
	rows, err := d.conn.Query(`SELECT word, phonetic FROM phonetic_mappings ORDER BY word`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []model.PhoneticMapping
	for rows.Next() {
		var m model.PhoneticMapping
		if err := rows.Scan(&m.Word, &m.Phonetic); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (d *DB) UpsertPhonetic(m model.PhoneticMapping) error {
	_, err := d.conn.Exec(
		`INSERT INTO phonetic_mappings (word, phonetic) VALUES (?, ?)
		 ON CONFLICT(word) DO UPDATE SET phonetic = excluded.phonetic`,
		m.Word, m.Phonetic,
	)
	return err
}

func (d *DB) DeletePhonetic(word string) (bool, error) {
	result, err := d.conn.Exec(`DELETE FROM phonetic_mappings WHERE word = ?`, word)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}
