package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
)

// The bot keeps its schemas in two databases: PostgreSQL holds users, books,
// positions and bookmarks; ClickHouse holds the reading session log. Each has
// its own migrations directory and goose version table.
func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using existing environment variables")
	}

	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <postgres|clickhouse> [up|down|status|version|create <name>]")
	}
	target := os.Args[1]

	command := "up"
	if len(os.Args) > 2 {
		command = os.Args[2]
	}

	var (
		db            *sql.DB
		migrationsDir string
		err           error
	)
	switch target {
	case "postgres":
		db, err = openPostgres()
		migrationsDir = "./migrations/postgres"
		if err == nil {
			err = goose.SetDialect("postgres")
		}
	case "clickhouse":
		db, err = openClickHouse()
		migrationsDir = "./migrations/clickhouse"
		if err == nil {
			err = goose.SetDialect("clickhouse")
		}
	default:
		log.Fatalf("Unknown target: %s. Available targets: postgres, clickhouse", target)
	}
	if err != nil {
		log.Fatalf("Failed to prepare %s migrations: %v", target, err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping %s: %v", target, err)
	}
	log.Printf("Connected to %s successfully", target)

	log.Printf("Running migrations: %s", command)
	switch command {
	case "up":
		if err := goose.Up(db, migrationsDir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Migrations completed successfully")
	case "down":
		if err := goose.Down(db, migrationsDir); err != nil {
			log.Fatalf("Failed to rollback migration: %v", err)
		}
		log.Println("Rollback completed successfully")
	case "status":
		if err := goose.Status(db, migrationsDir); err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
	case "version":
		version, err := goose.GetDBVersion(db)
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		log.Printf("Current migration version: %d", version)
	case "create":
		if len(os.Args) < 4 {
			log.Fatal("Usage: migrate <target> create <migration_name>")
		}
		migrationName := os.Args[3]
		if err := goose.Create(db, migrationsDir, migrationName, "sql"); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		log.Printf("Created migration: %s", migrationName)
	default:
		log.Fatalf("Unknown command: %s. Available commands: up, down, status, version, create", command)
	}
}

func openPostgres() (*sql.DB, error) {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	database := getEnv("POSTGRES_DATABASE", "bookkicker")
	user := getEnv("POSTGRES_USER", "postgres")
	password := os.Getenv("POSTGRES_PASSWORD")
	sslMode := getEnv("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, database, sslMode)
	return sql.Open("pgx", dsn)
}

func openClickHouse() (*sql.DB, error) {
	host := getEnv("CLICKHOUSE_HOST", "localhost")
	port := getEnv("CLICKHOUSE_PORT", "9000")
	database := getEnv("CLICKHOUSE_DATABASE", "default")
	user := getEnv("CLICKHOUSE_USER", "default")
	password := os.Getenv("CLICKHOUSE_PASSWORD")
	useTLS := getEnv("CLICKHOUSE_USE_TLS", "false")

	dsn := fmt.Sprintf("clickhouse://%s:%s@%s:%s/%s?dial_timeout=10s&max_execution_time=60",
		user, password, host, port, database)
	if useTLS == "true" {
		dsn += "&secure=true"
	}
	return sql.Open("clickhouse", dsn)
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
