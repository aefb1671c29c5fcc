package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/medwise/medwise-backend/internal/config"
	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/usecase"
	"github.com/medwise/medwise-backend/internal/infrastructure/repository/mongodb"
	"github.com/medwise/medwise-backend/internal/infrastructure/repository/postgres"
	"github.com/medwise/medwise-backend/internal/infrastructure/security"
)

const commandTimeout = 2 * time.Minute

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the users schema and the document store indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			skipPostgres, _ := cmd.Flags().GetBool("skip-postgres")
			skipMongo, _ := cmd.Flags().GetBool("skip-mongo")

			cfg := config.Load()
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			if !skipPostgres {
				db, err := postgres.OpenDB(cfg.PostgresDSN)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := postgres.NewUserRepository(db).EnsureSchema(ctx); err != nil {
					return fmt.Errorf("postgres migration failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "postgres: users schema is up to date")
			}

			if !skipMongo {
				store, err := mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
				if err != nil {
					return err
				}
				defer store.Close(context.Background())
				if err := mongodb.EnsureIndexes(ctx, store.Database()); err != nil {
					return fmt.Errorf("mongodb migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "mongodb: indexes ensured on database %s\n", cfg.MongoDatabase)
			}
			return nil
		},
	}
	cmd.Flags().Bool("skip-postgres", false, "Do not touch the credential store")
	cmd.Flags().Bool("skip-mongo", false, "Do not touch the document store")
	return cmd
}

func createUserCmd() *cobra.Command {
	var req domain.SignupRequest
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			db, err := postgres.OpenDB(cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			users := postgres.NewUserRepository(db)
			if err := users.EnsureSchema(ctx); err != nil {
				return err
			}

			// Tokens minted here are only printed when a real secret is configured.
			secret := cfg.JWTSecret
			printToken := len(secret) >= 16
			if !printToken {
				secret = uuid.NewString()
			}
			tokens, err := security.NewJWTIssuer(secret, cfg.JWTIssuer, cfg.JWTTTL)
			if err != nil {
				return err
			}

			accounts := usecase.NewAccountUseCase(users, security.NewBcryptHasher(cfg.BcryptCost), tokens)
			session, err := accounts.Signup(ctx, req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", session.User.ID, session.User.Email)
			if printToken {
				fmt.Fprintf(cmd.OutOrStdout(), "access token: %s\n", session.AccessToken)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name (3-50 characters)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&req.PhoneNo, "phone", "", "Phone number (10-15 digits)")
	cmd.Flags().StringVar(&req.BloodGroup, "blood-group", "", "One of A+, A-, B+, B-, AB+, AB-, O+, O-")
	cmd.Flags().StringVar(&req.Sex, "sex", "", "male, female or other")
	for _, name := range []string{"name", "email", "password", "phone", "blood-group", "sex"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
