// Command hercules-admin runs the operational tasks that have no HTTP
// surface: applying the schema and managing user credentials.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/pjecz/hercules-api/pkg/auth"
	"github.com/pjecz/hercules-api/pkg/storage/postgres"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "migrate":
		err = runMigrate(logger, args)
	case "create-user":
		err = runCreateUser(logger, args)
	case "set-password":
		err = runSetPassword(logger, args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Fatalf("%s failed: %v", command, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: hercules-admin <migrate|create-user|set-password> [flags]")
	fmt.Fprintln(os.Stderr, "The database is taken from HERCULES_POSTGRES_URL or the -db flag.")
}

func connect(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		dbURL = os.Getenv("HERCULES_POSTGRES_URL")
	}
	if dbURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func runMigrate(logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbURL := fs.String("db", "", "Database connection string")
	fs.Parse(args)

	db, err := connect(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(context.Background(), db); err != nil {
		return err
	}
	logger.Info("Schema applied")
	return nil
}

func runCreateUser(logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	dbURL := fs.String("db", "", "Database connection string")
	email := fs.String("email", "", "User email, stored lowercase")
	nombres := fs.String("nombres", "", "Given names")
	apellidoPaterno := fs.String("apellido-paterno", "", "First surname")
	apellidoMaterno := fs.String("apellido-materno", "", "Second surname")
	puesto := fs.String("puesto", "", "Job title")
	autoridadID := fs.Int64("autoridad-id", 0, "Authority the user belongs to")
	password := fs.String("password", "", "Initial password, 8 to 24 alphanumerics with upper, lower and digit")
	fs.Parse(args)

	normalized, err := auth.NormalizeEmail(*email)
	if err != nil {
		return err
	}
	if *nombres == "" || *apellidoPaterno == "" {
		return fmt.Errorf("nombres and apellido-paterno are required")
	}
	if *autoridadID <= 0 {
		return fmt.Errorf("autoridad-id is required")
	}

	hash, err := hashPassword(*password)
	if err != nil {
		return err
	}

	db, err := connect(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	var id int64
	err = db.QueryRowContext(context.Background(),
		`INSERT INTO usuarios (autoridad_id, email, nombres, apellido_paterno, apellido_materno, puesto, contrasena)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		*autoridadID, normalized, *nombres, *apellidoPaterno, *apellidoMaterno, *puesto, hash).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	logger.WithFields(logrus.Fields{"id": id, "email": normalized}).Info("User created")
	return nil
}

func runSetPassword(logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("set-password", flag.ExitOnError)
	dbURL := fs.String("db", "", "Database connection string")
	email := fs.String("email", "", "User email")
	password := fs.String("password", "", "New password")
	fs.Parse(args)

	normalized, err := auth.NormalizeEmail(*email)
	if err != nil {
		return err
	}
	hash, err := hashPassword(*password)
	if err != nil {
		return err
	}

	db, err := connect(*dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := db.ExecContext(context.Background(),
		`UPDATE usuarios SET contrasena = $1 WHERE email = $2 AND estatus = 'A'`,
		hash, normalized)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no active user with email %s", normalized)
	}

	logger.WithField("email", normalized).Info("Password updated")
	return nil
}

func hashPassword(password string) (string, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return "", err
	}
	return auth.HashPassword(password)
}
