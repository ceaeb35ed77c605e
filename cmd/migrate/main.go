package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"quake_bot/migrations"
)

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/deliveries.db"), "path to the delivery journal database")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatalf("set dialect: %v", err)
	}

	cmd := args[0]
	switch cmd {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		err = goose.Version(db, ".")
	case "reset":
		err = goose.Reset(db, ".")
	case "prune":
		err = prune(db, args[1:])
	default:
		usage()
		log.Fatalf("unknown command: %s", cmd)
	}

	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  up            Migrate to the latest version")
	fmt.Fprintln(os.Stderr, "  down          Roll back one version")
	fmt.Fprintln(os.Stderr, "  status        Show migration status")
	fmt.Fprintln(os.Stderr, "  version       Show current version")
	fmt.Fprintln(os.Stderr, "  reset         Roll back all migrations")
	fmt.Fprintln(os.Stderr, "  prune <days>  Delete journal rows older than <days> days")
}

func prune(db *sql.DB, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected number of days")
	}
	days, err := parseDays(args[0])
	if err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM deliveries WHERE created_at < strftime('%Y-%m-%dT%H:%M:%SZ', 'now', ?)`,
		fmt.Sprintf("-%d days", days))
	if err != nil {
		return fmt.Errorf("delete deliveries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("count pruned deliveries: %w", err)
	}
	fmt.Printf("pruned %d deliveries\n", n)
	return nil
}

func parseDays(arg string) (int, error) {
	days, err := strconv.Atoi(arg)
	if err != nil || days < 1 {
		return 0, fmt.Errorf("invalid number of days %q", arg)
	}
	return days, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
