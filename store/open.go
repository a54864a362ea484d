package store

import (
	"database/sql"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Opened holds the namespaces plus the stores the lorebook and story document
// persist through. Close releases the database when one was opened.
type Opened struct {
	Namespaces
	Lorebook Store
	Document Store

	db *sql.DB
}

func (o *Opened) Close() error {
	if o.db == nil {
		return nil
	}
	return o.db.Close()
}

// Open builds durable namespaces under dir using driver. The temp namespace is
// always in memory.
func Open(driver, dir string, logger *zap.SugaredLogger) (*Opened, error) {
	switch driver {
	case DriverFile, "":
		o := &Opened{}
		o.Temp = NewMemoryStore()
		files := []struct {
			dst  *Store
			name string
		}{
			{&o.Story, "story.json"},
			{&o.History, "history.json"},
			{&o.Lorebook, "lorebook.json"},
			{&o.Document, "document.json"},
		}
		for _, f := range files {
			fs, err := NewFileStore(filepath.Join(dir, f.name))
			if err != nil {
				return nil, err
			}
			*f.dst = fs
		}
		return o, nil

	case DriverSQLite:
		db, err := OpenSQLite(filepath.Join(dir, "shed.db"), logger)
		if err != nil {
			return nil, err
		}
		return &Opened{
			Namespaces: Namespaces{
				Story:   NewSQLStore(db, "story"),
				History: NewSQLStore(db, "history"),
				Temp:    NewMemoryStore(),
			},
			Lorebook: NewSQLStore(db, "lorebook"),
			Document: NewSQLStore(db, "document"),
			db:       db,
		}, nil

	default:
		return nil, errors.WithHint(
			errors.Newf("unknown storage driver %q", driver),
			"set data.driver to \"file\" or \"sqlite\"",
		)
	}
}
