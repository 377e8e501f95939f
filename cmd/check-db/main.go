// Package main is a diagnostic tool for testing database connectivity and
// inspecting live vault data. It connects to the database, counts rows per
// user in the users, credentials, and notes tables, and prints a summary to
// stdout. Only metadata is touched: the envelope column is never selected.
// The binary exits with a non-zero code on any failure so it can be embedded
// in health checks or CI/CD pipeline steps to gate deployments on a
// reachable database.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dbPassword := os.Getenv("DATABASE_PASSWORD")
	if dbPassword == "" {
		dbPassword = "appresume"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=appresume password=%s dbname=application_resume sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	fmt.Println("=== USERS ===")
	rows, err := db.Query(`
		SELECT u.id, u.email, u.pin_hash IS NOT NULL,
		       (SELECT COUNT(*) FROM credentials c WHERE c.owner_id = u.id),
		       (SELECT COUNT(*) FROM notes n WHERE n.owner_id = u.id)
		FROM users u
		ORDER BY u.created_at
	`)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	userCount := 0
	for rows.Next() {
		var id, email string
		var hasPIN bool
		var credentials, notes int
		if err := rows.Scan(&id, &email, &hasPIN, &credentials, &notes); err != nil {
			log.Printf("Warning: failed to scan user row: %v", err)
			continue
		}
		userCount++
		fmt.Printf("User: %s (ID: %s, pin enrolled: %v, credentials: %d, notes: %d)\n",
			email, id, hasPIN, credentials, notes)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Row iteration failed: %v", err)
	}

	fmt.Printf("\nTotal users: %d\n", userCount)
}
