// Command seatctl runs operator tasks against the booking database: schema
// migrations, seeding the seat registry and granting the admin role.
//
//	seatctl migrate
//	seatctl seed-seats -prefix A -count 20
//	seatctl grant-admin -email someone@example.com
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/library-seat-booking/internal/config"
	"github.com/iliyamo/library-seat-booking/internal/database"
	"github.com/iliyamo/library-seat-booking/internal/logger"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/repository"
	"github.com/iliyamo/library-seat-booking/internal/service"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: seatctl <migrate|seed-seats|grant-admin> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	args := os.Args[2:]
	switch os.Args[1] {
	case "migrate":
		err = database.Migrate(ctx, db)
	case "seed-seats":
		err = seedSeats(ctx, db, log, args)
	case "grant-admin":
		err = grantAdmin(ctx, db, log, args)
	default:
		usage()
	}
	if err != nil {
		log.Fatal(os.Args[1]+" failed", zap.Error(err))
	}
}

// seedSeats creates <prefix>-1 .. <prefix>-<count>, skipping numbers that
// already exist.
func seedSeats(ctx context.Context, db *sql.DB, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("seed-seats", flag.ExitOnError)
	prefix := fs.String("prefix", "A", "seat row letter")
	count := fs.Int("count", 20, "number of seats in the row")
	_ = fs.Parse(args)
	if *count < 1 {
		return errors.New("count must be positive")
	}

	seats := repository.NewSeatRepo(db)
	created := 0
	for i := 1; i <= *count; i++ {
		s := &model.Seat{SeatNumber: fmt.Sprintf("%s-%d", strings.ToUpper(*prefix), i), IsAvailable: true}
		if err := seats.Create(ctx, s); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			return err
		}
		created++
	}
	log.Info("seats seeded", zap.String("prefix", *prefix), zap.Int("created", created))
	return nil
}

// grantAdmin gives an existing account the admin role and makes sure it has
// a profile, since admin decisions are recorded against the profile id.
func grantAdmin(ctx context.Context, db *sql.DB, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("grant-admin", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	_ = fs.Parse(args)
	if strings.TrimSpace(*email) == "" {
		return errors.New("-email is required")
	}

	u, err := repository.NewUserRepo(db).GetByEmail(ctx, *email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("no account for %s", *email)
		}
		return err
	}
	profiles := service.NewProfileService(repository.NewProfileRepo(db))
	if _, err := profiles.Ensure(ctx, service.Identity{UserID: u.ID, Email: u.Email}); err != nil {
		return err
	}
	if err := repository.NewAdminRepo(db).Grant(ctx, u.ID, model.RoleAdmin); err != nil {
		return err
	}
	log.Info("admin granted", zap.Uint64("user_id", u.ID), zap.String("email", u.Email))
	return nil
}
