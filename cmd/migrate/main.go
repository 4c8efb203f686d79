package main

import (
	"database/sql"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/youkaichao/WtfTicket/internal/config"
	"github.com/youkaichao/WtfTicket/internal/database/migrations"
)

func main() {
	dir := flag.String("dir", "./migrations", "directory with the versioned .sql files")
	seed := flag.Bool("seed", false, "also apply the development seed migrations")
	down := flag.Bool("down", false, "roll back every applied migration")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN()))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	runner := migrations.NewRunner(bunDB, migrations.Options{
		Dir:      *dir,
		SeedData: *seed,
	})
	defer runner.Close()

	if *down {
		if err := runner.Down(); err != nil {
			log.Fatalf("migration down failed: %v", err)
		}
		log.Println("✅ schema rolled back")
		return
	}

	if err := runner.Run(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("✅ schema up to date")
}
