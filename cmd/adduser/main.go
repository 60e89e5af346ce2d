package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"rational-assistant/internal/auth"
	"rational-assistant/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

const defaultDBPath = "assistant.db"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	nickname := fs.String("nickname", "", "Nickname")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", defaultDBPath, "Path to database file")
	salary := fs.String("salary", "100000", "Monthly salary")
	monthly := fs.String("monthly-savings", "20000", "Amount saved per month")
	current := fs.String("current-savings", "0", "Savings available now")
	savingsPlan := fs.Bool("savings-plan", true, "Extend cooling periods by the time needed to save up")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *nickname == "" {
		fmt.Fprintln(stdout, "Usage: adduser -nickname <nickname> [-password <password>] [-db <db_path>] [-salary N] [-monthly-savings N] [-current-savings N]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: nickname")
	}

	amounts := make([]decimal.Decimal, 3)
	for i, raw := range []string{*salary, *monthly, *current} {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return fmt.Errorf("invalid amount %q", raw)
		}
		amounts[i] = d
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	// DB_PATH applies only when -db was left at its default.
	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == defaultDBPath {
		*dbPath = path
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := db.CreateUser(context.Background(), storage.NewUser{
		Nickname:              *nickname,
		PasswordHash:          hash,
		Salary:                amounts[0],
		MonthlySavings:        amounts[1],
		CurrentSavings:        amounts[2],
		UseSavingsCalculation: *savingsPlan,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return fmt.Errorf("user %s already exists", *nickname)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Nickname, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
