package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/devconnect-api/internal/application/user"
	"github.com/devconnect-api/internal/config"
	"github.com/devconnect-api/internal/domain"
	jwtinfra "github.com/devconnect-api/internal/infrastructure/jwt"
	"github.com/devconnect-api/internal/infrastructure/store"
	"github.com/devconnect-api/internal/pkg/logging"
	"github.com/devconnect-api/internal/pkg/validate"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env (if present) and the environment.
func loadConfig() *config.Config {
	_ = godotenv.Load()
	return config.Load()
}

// openStore connects to the configured backend. The caller must defer Close.
func openStore(ctx context.Context, cfg *config.Config) (*store.Backend, error) {
	b, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.StoreDriver, err)
	}
	return b, nil
}

var rootCmd = &cobra.Command{
	Use:          "devconnectctl",
	Short:        "Operator tooling for the DevConnect API",
	SilenceUsage: true,
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create tables or indexes for the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		b, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close(context.Background())

		if err := b.Bootstrap(ctx, logging.New(cfg)); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		fmt.Printf("Store %s is ready\n", b.Driver)
		return nil
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user records",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		bio, _ := cmd.Flags().GetString("bio")
		gender, _ := cmd.Flags().GetString("gender")

		req := domain.CreateUserRequest{
			Name:     name,
			Email:    email,
			Password: password,
			Bio:      bio,
			Gender:   domain.Gender(gender),
		}
		if err := validate.Struct(req); err != nil {
			return err
		}

		cfg := loadConfig()
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		b, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close(context.Background())

		svc := user.NewService(user.ServiceDeps{UserRepo: b.Users, Logger: logging.New(cfg)})
		u, err := svc.Register(ctx, req)
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		fmt.Printf("Created user %s (%s)\n", u.UserID, u.Email)
		return nil
	},
}

// token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage access tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <user-id>",
	Short: "Sign a token for a user (needs JWT_PRIVATE_KEY_PATH)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if ttl, _ := cmd.Flags().GetDuration("ttl"); ttl > 0 {
			cfg.JWTExpiry = ttl
		}
		p, err := jwtinfra.NewProvider(cfg)
		if err != nil {
			return fmt.Errorf("loading keys: %w", err)
		}
		tok, err := p.Sign(args[0])
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
	userCreateCmd.Flags().String("name", "", "Display name")
	userCreateCmd.Flags().String("email", "", "Login email")
	userCreateCmd.Flags().String("password", "", "Initial password (8-72 characters)")
	userCreateCmd.Flags().String("bio", "", "Profile bio")
	userCreateCmd.Flags().String("gender", "", "Male, Female or Other")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	tokenCmd.AddCommand(tokenIssueCmd)
	tokenIssueCmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to JWT_EXPIRY)")

	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(tokenCmd)
}
