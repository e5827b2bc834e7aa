package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/ragvault/internal/app"
	"github.com/yungbote/ragvault/internal/data/db"
	"github.com/yungbote/ragvault/internal/data/repos"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/services"
)

var log *logger.Logger

var rootCmd = &cobra.Command{
	Use:           "ragvault",
	Short:         "Workspace-isolated hybrid retrieval service.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; real deployments use the environment.
		_ = godotenv.Load()

		l, err := logger.New(viper.GetString("log-mode"))
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx, log)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Run(ctx, viper.GetString("addr"))
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create extensions, tables and search indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		pg, err := openPostgres(cmd.Context())
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := db.AutoMigrateAll(pg.DB()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
		return nil
	},
}

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Issue and revoke workspace API keys",
}

var apiKeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a key; the plaintext is printed once",
	RunE: func(cmd *cobra.Command, args []string) error {
		wsID, err := uuidFlag(cmd, "workspace")
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		scopes, _ := cmd.Flags().GetStringSlice("scopes")
		in := services.CreateAPIKeyInput{Name: name, Scopes: scopes}
		if cmd.Flags().Changed("rate-limit") {
			v, _ := cmd.Flags().GetInt("rate-limit")
			in.RateLimitPerMinute = &v
		}
		if cmd.Flags().Changed("expires-in-days") {
			v, _ := cmd.Flags().GetInt("expires-in-days")
			in.ExpiresInDays = &v
		}

		pg, err := openPostgres(cmd.Context())
		if err != nil {
			return err
		}
		defer pg.Close()

		svc := services.NewAPIKeyService(repos.NewAPIKeyRepo(pg.DB(), log), repos.NewWorkspaceRepo(pg.DB(), log), log)
		issued, err := svc.Create(cmd.Context(), wsID, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "key_id: %s\nkey: %s\n", issued.Key.ID, issued.Plaintext)
		fmt.Fprintln(cmd.ErrOrStderr(), "Store this key now; it cannot be shown again.")
		return nil
	},
}

var apiKeyRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke a key; it stops working immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		wsID, err := uuidFlag(cmd, "workspace")
		if err != nil {
			return err
		}
		keyID, err := uuidFlag(cmd, "key")
		if err != nil {
			return err
		}

		pg, err := openPostgres(cmd.Context())
		if err != nil {
			return err
		}
		defer pg.Close()

		svc := services.NewAPIKeyService(repos.NewAPIKeyRepo(pg.DB(), log), repos.NewWorkspaceRepo(pg.DB(), log), log)
		if err := svc.Revoke(cmd.Context(), wsID, keyID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", keyID)
		return nil
	},
}

var adminTokenCmd = &cobra.Command{
	Use:   "admin-token",
	Short: "Mint a bearer token for the management API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.LoadConfig(log)
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			ttl = cfg.AdminTokenTTL
		}
		tokens, err := services.NewAdminTokens(cfg.AdminJWTSecret, ttl)
		if err != nil {
			return err
		}
		subject, _ := cmd.Flags().GetString("subject")
		signed, err := tokens.Issue(subject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func openPostgres(ctx context.Context) (*db.PostgresService, error) {
	cfg := app.LoadConfig(log)
	pg, err := db.NewPostgresService(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	return pg, nil
}

func uuidFlag(cmd *cobra.Command, name string) (uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString(name)
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("--%s must be a uuid", name)
	}
	return id, nil
}

func init() {
	viper.SetDefault("addr", ":8080")
	viper.SetDefault("log-mode", "development")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("log-mode", "development", `log mode, "production" or "development"`)
	serveCmd.Flags().String("addr", ":8080", "address to listen on")

	if err := viper.BindPFlag("log-mode", rootCmd.PersistentFlags().Lookup("log-mode")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}

	apiKeyCreateCmd.Flags().String("workspace", "", "workspace id")
	apiKeyCreateCmd.Flags().String("name", "", "key name")
	apiKeyCreateCmd.Flags().StringSlice("scopes", nil, "scopes (search, chat)")
	apiKeyCreateCmd.Flags().Int("rate-limit", 60, "requests per minute")
	apiKeyCreateCmd.Flags().Int("expires-in-days", 0, "days until the key expires")
	_ = apiKeyCreateCmd.MarkFlagRequired("workspace")
	_ = apiKeyCreateCmd.MarkFlagRequired("name")

	apiKeyRevokeCmd.Flags().String("workspace", "", "workspace id")
	apiKeyRevokeCmd.Flags().String("key", "", "api key id")
	_ = apiKeyRevokeCmd.MarkFlagRequired("workspace")
	_ = apiKeyRevokeCmd.MarkFlagRequired("key")

	adminTokenCmd.Flags().String("subject", "cli", "token subject")
	adminTokenCmd.Flags().Duration("ttl", 0, "token lifetime (default ADMIN_TOKEN_TTL_SECONDS)")

	apiKeyCmd.AddCommand(apiKeyCreateCmd, apiKeyRevokeCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, apiKeyCmd, adminTokenCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
