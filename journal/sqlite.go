package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores runs in a local database file. It creates the schema on
// open and supports read-back through GetRun, ListTrades and ListCurve.
type SQLite struct {
	store
}

func NewSQLite(path string, opts ...Option) (*SQLite, error) {
	o := buildOptions("journal.sqlite", opts)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(SQLiteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	o.log.Debug().Str("path", path).Msg("sqlite journal opened")
	return &SQLite{store: store{db: db, log: o.log}}, nil
}
