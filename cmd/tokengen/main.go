// Command tokengen mints a development access token for a pilot, linking the
// pilot to a fresh auth user id when it has none.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"infinite-experiment/hangar/internal/auth"
	"infinite-experiment/hangar/internal/db"
	"infinite-experiment/hangar/internal/db/repositories"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	Email  string
	TTL    time.Duration
	DSN    string
	Secret string
	Link   bool
}

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	_ = godotenv.Load()
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "tokengen --email pilot@example.com",
		Short:         "Mint an access token for a pilot (development only)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := mint(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "pilot email")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&opts.DSN, "dsn", os.Getenv("DATABASE_URL"), "postgres DSN")
	cmd.Flags().StringVar(&opts.Secret, "secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
	cmd.Flags().BoolVar(&opts.Link, "link", true, "link the pilot to a new auth user id if unlinked")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func mint(ctx context.Context, opts *options) (string, error) {
	if opts.DSN == "" {
		return "", errors.New("DATABASE_URL or --dsn is required")
	}
	if opts.Secret == "" {
		return "", errors.New("JWT_SECRET or --secret is required")
	}

	orm, err := db.InitPostgresORM(opts.DSN)
	if err != nil {
		return "", err
	}
	if sqlDB, err := orm.DB(); err == nil {
		defer sqlDB.Close()
	}

	pilots := repositories.NewPilotRepository(orm)
	pilot, err := pilots.GetByEmail(ctx, opts.Email)
	if err != nil {
		return "", fmt.Errorf("pilot %s: %w", opts.Email, err)
	}

	if pilot.AuthUserID == nil || *pilot.AuthUserID == "" {
		if !opts.Link {
			return "", fmt.Errorf("pilot %s has no auth user; rerun with --link", opts.Email)
		}
		pilot, err = pilots.Update(ctx, pilot.ID, map[string]interface{}{"auth_user_id": uuid.NewString()})
		if err != nil {
			return "", fmt.Errorf("failed to link pilot: %w", err)
		}
	}

	return auth.IssueToken(opts.Secret, *pilot.AuthUserID, pilot.Email, opts.TTL)
}
