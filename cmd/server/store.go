package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/formflowhq/formflow/internal/api"
	dbstore "github.com/formflowhq/formflow/internal/db"
)

// openStore selects the persistence backend: SQLite when FORMFLOW_DB_PATH is
// set, otherwise the in-memory store (useful for dev and smoke tests).
func openStore() (api.Store, func(), error) {
	path := os.Getenv("FORMFLOW_DB_PATH")
	if path == "" {
		log.Printf("FORMFLOW_DB_PATH not set, using in-memory store")
		return api.NewMemoryStore(), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	closeConn := func() {
		if cerr := conn.Close(); cerr != nil {
			log.Printf("warning: failed to close sqlite db: %v", cerr)
		}
	}

	if err := dbstore.RunMigrations(conn, os.Getenv("FORMFLOW_MIGRATIONS_DIR")); err != nil {
		closeConn()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	store, err := dbstore.NewStore(conn)
	if err != nil {
		closeConn()
		return nil, nil, fmt.Errorf("init sqlite store: %w", err)
	}
	return store, closeConn, nil
}
