// Package cli implements lenderctl, the operator command line for the
// credential and webhook store.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"lenderhub/internal/engine/apikeys"
	"lenderhub/internal/engine/triggers"
	"lenderhub/internal/engine/webhooks"
	"lenderhub/internal/pkg/logger"
	"lenderhub/internal/platform/audit"
	"lenderhub/internal/platform/auth"
	"lenderhub/internal/platform/config"
	"lenderhub/internal/platform/database"
	"lenderhub/internal/platform/repositories"
	"lenderhub/internal/platform/session"
)

type app struct {
	configPath string
}

// env is everything a command needs once the config is loaded and the store is open.
type env struct {
	cfg      *config.Config
	db       *database.DB
	audit    *repositories.AuditLogRepository
	apiKeys  *apikeys.Service
	webhooks *webhooks.Service
	triggers *triggers.Service
}

func (e *env) Close() error {
	return e.db.Close()
}

func NewCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "lenderctl",
		Short: "Manage LenderHub API keys, webhooks and automation triggers",
		Long: `lenderctl manages the API keys, webhooks and automation triggers of your
organisation directly against the LenderHub store.

Quick start:
  lenderctl login --token <session token>   # Store your session in the keychain
  lenderctl apikey list                     # List API keys
  lenderctl webhook test <webhook-id>       # Send a test event`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "configs/config.yaml", "Path to config file")

	cmd.AddCommand(a.loginCommand())
	cmd.AddCommand(a.logoutCommand())
	cmd.AddCommand(a.whoamiCommand())
	cmd.AddCommand(a.apiKeyCommand())
	cmd.AddCommand(a.webhookCommand())
	cmd.AddCommand(a.triggerCommand())
	cmd.AddCommand(a.auditCommand())
	cmd.AddCommand(a.migrateCommand())

	return cmd
}

// Execute runs lenderctl and exits non-zero on failure. It is called by main.main().
func Execute() {
	root := NewCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Logs go to stderr so they never mix with command output.
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = logger.New(cfg.Logging, cmd.ErrOrStderr())
	return cfg, nil
}

func (a *app) tokenStore(cfg *config.Config) *TokenStore {
	return NewTokenStore(cfg.Session.KeyringService)
}

// open loads the config, starts hydrating the session from the keychain and
// opens the store. The returned context carries the session gate.
func (a *app) open(cmd *cobra.Command) (context.Context, *env, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	tokens := a.tokenStore(cfg)
	tokenSvc := auth.NewTokenService(cfg.JWT)
	gate := session.Hydrate(cfg.Session.HydrationTimeout, func(ctx context.Context) (*session.Session, error) {
		token, err := tokens.Load()
		if err != nil {
			return nil, err
		}
		claims, err := tokenSvc.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return claims.Session(), nil
	})

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, database.DirectionUp); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	auditRepo := repositories.NewAuditLogRepository(db)
	recorder := audit.NewRecorder(auditRepo, audit.WithTimeout(cfg.Audit.WriteTimeout))

	e := &env{
		cfg:      cfg,
		db:       db,
		audit:    auditRepo,
		apiKeys:  apikeys.NewService(repositories.NewAPIKeyRepository(db), recorder),
		webhooks: webhooks.NewService(repositories.NewWebhookRepository(db), recorder, webhooks.NewDispatcher(cfg.Webhooks), cfg.Webhooks.FailureThreshold),
		triggers: triggers.NewService(repositories.NewTriggerRepository(db), recorder),
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return session.WithGate(ctx, gate), e, nil
}

// requireSession waits for the session hydrated from the keychain.
func requireSession(ctx context.Context) (*session.Session, error) {
	s, err := session.Require(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w (run lenderctl login)", err)
	}
	return s, nil
}

func orgOf(ctx context.Context) (string, error) {
	s, err := requireSession(ctx)
	if err != nil {
		return "", err
	}
	return s.OrgID, nil
}
