// Command authctl bundles the operational chores around the auth server:
// generating signing secrets, running database migrations, importing
// file-backend data into postgres, and hashing passwords for manual fixes.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/dberzins/userauth/internal/common"
	"github.com/dberzins/userauth/internal/server/models"
	"github.com/dberzins/userauth/internal/server/password"
	"github.com/dberzins/userauth/internal/server/repositories/repomanager"
)

const usage = `Usage: authctl <command> [flags]

Commands:
  secrets   generate JWT signing secrets (-env to write a .env file)
  migrate   apply database migrations (-d DSN)
  import    import file-backend data into postgres (-dir DIR -d DSN)
  hash      prompt for a password and print its bcrypt hash
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "secrets":
		err = runSecrets(os.Args[2:])
	case "migrate":
		err = runMigrate(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "hash":
		err = runHash()
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "authctl %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// runSecrets generates two independent signing secrets and either prints
// them or writes a ready-to-use .env file. An existing .env is never
// clobbered; the output goes to .env.new instead.
func runSecrets(args []string) error {
	fs := flag.NewFlagSet("secrets", flag.ExitOnError)
	writeEnv := fs.Bool("env", false, "write a .env file instead of printing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	accessSecret, err := common.MakeRandHexString(common.MinSecretLength)
	if err != nil {
		return err
	}
	refreshSecret, err := common.MakeRandHexString(common.MinSecretLength)
	if err != nil {
		return err
	}

	if !*writeEnv {
		fmt.Printf("JWT_SECRET=%s\n", accessSecret)
		fmt.Printf("JWT_REFRESH_SECRET=%s\n", refreshSecret)
		return nil
	}

	content := fmt.Sprintf(`# Generated environment configuration.
# Never commit this file to version control.

JWT_SECRET=%s
JWT_REFRESH_SECRET=%s
JWT_EXPIRES_IN=15m
JWT_REFRESH_EXPIRES_IN=720h
BCRYPT_ROUNDS=12
`, accessSecret, refreshSecret)

	target := ".env"
	if _, err := os.Stat(target); err == nil {
		target = ".env.new"
		fmt.Fprintln(os.Stderr, ".env already exists, writing .env.new")
	}
	if err := os.WriteFile(target, []byte(content), 0o600); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", target)
	return nil
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dsn := fs.String("d", os.Getenv("DATABASE_DSN"), "database DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return errors.New("database DSN is required (-d or DATABASE_DSN)")
	}

	ctx := context.Background()
	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repomanager.RunMigrations(ctx, db); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}

// runImport moves file-backend data into postgres, preserving ids and
// timestamps so issued tokens stay valid across the move.
func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dir := fs.String("dir", "data", "file backend data directory")
	dsn := fs.String("d", os.Getenv("DATABASE_DSN"), "database DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return errors.New("database DSN is required (-d or DATABASE_DSN)")
	}

	var userRecords []models.User
	if err := readJSON(filepath.Join(*dir, "users.json"), &userRecords); err != nil {
		return err
	}
	var tokenRecords []models.RefreshToken
	if err := readJSON(filepath.Join(*dir, "refresh_tokens.json"), &tokenRecords); err != nil {
		return err
	}

	ctx := context.Background()
	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repomanager.RunMigrations(ctx, db); err != nil {
		return err
	}

	for _, u := range userRecords {
		_, err := db.ExecContext(ctx, `
			INSERT INTO users (id, email, password, first_name, last_name,
			                   is_verified, is_active, created_at, updated_at, last_login)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
			u.IsVerified, u.IsActive, u.CreatedAt, u.UpdatedAt, u.LastLogin)
		if err != nil {
			return fmt.Errorf("import user %s: %w", u.Email, err)
		}
	}

	for _, tok := range tokenRecords {
		_, err := db.ExecContext(ctx, `
			INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			tok.ID, tok.UserID, tok.Token, tok.ExpiresAt, tok.CreatedAt)
		if err != nil {
			return fmt.Errorf("import refresh token %s: %w", tok.ID, err)
		}
	}

	fmt.Printf("imported %d users and %d refresh tokens\n", len(userRecords), len(tokenRecords))
	return nil
}

func runHash() error {
	fmt.Fprint(os.Stderr, "Password: ")
	plaintext, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	if len(plaintext) == 0 {
		return errors.New("empty password")
	}

	hash, err := password.Hash(string(plaintext), password.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
