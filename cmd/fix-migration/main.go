// Package main is a repair tool for dirty migration state in the database.
// Dirty state occurs when the golang-migrate runner marks a migration version
// as in-progress (dirty=true) but the migration process was interrupted by a
// crash or timeout before it could complete. This tool connects to the
// database, checks the schema_migrations table, and clears the dirty flag so
// that the migration runner can retry cleanly on the next server startup
// instead of failing with a "Dirty database version" error.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	password := os.Getenv("DATABASE_PASSWORD")
	if password == "" {
		password = "appresume"
	}

	dsn := fmt.Sprintf("host=localhost port=5432 user=appresume password=%s dbname=application_resume sslmode=disable", password)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Connected to database successfully")

	var version int64
	var dirty bool
	err = db.QueryRow("SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		log.Println("No migration state recorded; nothing to fix")
		return
	}
	if err != nil {
		log.Fatalf("Failed to read migration state: %v", err)
	}

	log.Printf("Current migration state: version=%d dirty=%v", version, dirty)

	if !dirty {
		log.Println("Migration state is clean; nothing to fix")
		return
	}

	if _, err := db.Exec("UPDATE schema_migrations SET dirty = false WHERE version = $1", version); err != nil {
		log.Fatalf("Failed to clear dirty flag: %v", err)
	}

	log.Printf("Cleared dirty flag for version %d; the next server start will retry the migration", version)
}
