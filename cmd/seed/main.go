// Command seed wipes the store and fills it with demo accounts and entries.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"expense_tracker/internal/common/security"
	"expense_tracker/internal/domain/model"
	"expense_tracker/internal/domain/repository"
	"expense_tracker/internal/platform/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const defaultPassword = "123456"

var seedUsers = []struct {
	email string
	role  model.Role
}{
	{"manager@test.com", model.RoleManager},
	{"user@test.com", model.RoleUser},
	{"user1@test.com", model.RoleUser},
	{"user2@test.com", model.RoleUser},
	{"user3@test.com", model.RoleUser},
	{"manager2@test.com", model.RoleManager},
}

var seedEntries = []struct{ title, description string }{
	{"Office Supplies Purchase", "Monthly office supplies order"},
	{"Marketing Campaign Budget", "Q4 marketing campaign budget allocation"},
	{"Software License Renewal", "Annual software license renewal"},
	{"Equipment Maintenance", "Quarterly equipment maintenance"},
	{"Travel Expenses", "Business travel expenses"},
	{"Training Program", "Employee training program"},
	{"Website Development", "Website redesign project"},
	{"Consulting Services", "External consulting services"},
	{"Hardware Upgrade", "IT hardware upgrade"},
	{"Event Planning", "Company event planning"},
	{"Research Project", "Market research project"},
	{"Client Meeting Expenses", "Client meeting and presentation"},
	{"Product Launch", "New product launch campaign"},
	{"Security Audit", "Annual security audit"},
	{"Cloud Services", "Cloud infrastructure services"},
}

var statuses = []model.EntryStatus{model.StatusPending, model.StatusApproved, model.StatusRejected}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dbURL := fs.String("db", os.Getenv("DATABASE_URL"), "Store URL (postgres://... or sqlite:<path>)")
	passwordFlag := fs.String("password", "", "Password for every seeded account (prompts if omitted)")
	entryCount := fs.Int("entries", 50, "Number of entries to create")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *dbURL == "" {
		fmt.Fprintln(stdout, "Usage: seed -db <url> [-password <password>] [-entries <n>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: db")
	}
	if *entryCount < 0 {
		return fmt.Errorf("entries must not be negative")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprintf(stdout, "Password (blank for %s): ", defaultPassword)
		var err error
		password, err = readPassword(stdin)
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}
	if strings.TrimSpace(password) == "" {
		password = defaultPassword
	}

	ctx := context.Background()
	db, err := database.Open(ctx, *dbURL, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to clear database: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	entryRepo := repository.NewEntryRepository(db)

	now := time.Now().UTC()
	var owners []*model.User
	for i, su := range seedUsers {
		created := now.Add(time.Duration(i) * time.Second)
		u := &model.User{
			ID:             uuid.NewString(),
			Email:          su.email,
			HashedPassword: hash,
			Role:           su.role,
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		if err := userRepo.Create(ctx, u); err != nil {
			return fmt.Errorf("failed to create user %s: %w", su.email, err)
		}
		if u.Role == model.RoleUser {
			owners = append(owners, u)
		}
	}

	for i := 0; i < *entryCount; i++ {
		tmpl := seedEntries[i%len(seedEntries)]
		created := now.Add(time.Duration(i) * time.Millisecond)
		e := &model.Entry{
			ID:          uuid.NewString(),
			Title:       tmpl.title,
			Description: tmpl.description,
			Amount:      float64(rand.Intn(10000) + 100),
			Status:      statuses[rand.Intn(len(statuses))],
			CreatedByID: owners[rand.Intn(len(owners))].ID,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		if err := entryRepo.Create(ctx, e); err != nil {
			return fmt.Errorf("failed to create entry %d: %w", i+1, err)
		}
	}

	fmt.Fprintf(stdout, "Seed completed: %d users, %d entries\n", len(seedUsers), *entryCount)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
