package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	apperrors "lenderhub/internal/pkg/errors"
	"lenderhub/internal/platform/auth"
	"lenderhub/internal/platform/config"
	"lenderhub/internal/platform/database"
	"lenderhub/internal/platform/models"
	"lenderhub/internal/platform/repositories"
)

const testSecret = "cli-test-secret"

type cliEnv struct {
	configPath string
	dbPath     string
	tokens     *auth.TokenService
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	keyring.MockInit()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "lenderhub.db")
	configPath := filepath.Join(dir, "config.yaml")

	yaml := fmt.Sprintf(`database:
  driver: sqlite
  url: file:%s
  auto_migrate: true
jwt:
  secret: %s
  issuer: lenderhub
  access_token_ttl: 1h
session:
  hydration_timeout: 2s
  keyring_service: lenderhub-test
webhooks:
  timeout: 2s
logging:
  level: error
`, dbPath, testSecret)
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o600))

	return &cliEnv{
		configPath: configPath,
		dbPath:     dbPath,
		tokens: auth.NewTokenService(config.JWTConfig{
			Secret:         testSecret,
			Issuer:         "lenderhub",
			AccessTokenTTL: time.Hour,
		}),
	}
}

// run executes lenderctl with args and returns stdout, stderr and the error.
func (c *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", c.configPath}, args...))
	err := cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func (c *cliEnv) login(t *testing.T, orgID string) {
	t.Helper()
	token, err := c.tokens.GenerateAccessToken("user_ops", orgID, "admin", "ops@lender.test")
	require.NoError(t, err)
	_, _, err = c.run(t, "login", "--token", token)
	require.NoError(t, err)
}

func (c *cliEnv) openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: database.DialectSQLite, URL: "file:" + c.dbPath})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, database.DirectionUp))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogin(t *testing.T) {
	c := newCLIEnv(t)

	token, err := c.tokens.GenerateAccessToken("user_ops", "org1", "admin", "ops@lender.test")
	require.NoError(t, err)

	stdout, _, err := c.run(t, "login", "--token", token)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged in as user_ops (organization org1)")

	stored, err := keyring.Get("lenderhub-test", sessionAccount)
	require.NoError(t, err)
	assert.Equal(t, token, stored)
}

func TestLogin_RejectsInvalidToken(t *testing.T) {
	c := newCLIEnv(t)

	forged := auth.NewTokenService(config.JWTConfig{Secret: "other", Issuer: "lenderhub", AccessTokenTTL: time.Hour})
	token, err := forged.GenerateAccessToken("user_ops", "org1", "admin", "")
	require.NoError(t, err)

	_, _, err = c.run(t, "login", "--token", token)
	assert.ErrorContains(t, err, "invalid session token")

	_, err = keyring.Get("lenderhub-test", sessionAccount)
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	_, _, err = c.run(t, "login")
	assert.ErrorContains(t, err, "token cannot be empty")
}

func TestWhoamiAndLogout(t *testing.T) {
	c := newCLIEnv(t)
	c.login(t, "org1")

	stdout, _, err := c.run(t, "whoami")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`User:\s+user_ops`), stdout)
	assert.Regexp(t, regexp.MustCompile(`Organization:\s+org1`), stdout)
	assert.Regexp(t, regexp.MustCompile(`Email:\s+ops@lender.test`), stdout)

	stdout, _, err = c.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged out.")

	_, _, err = c.run(t, "whoami")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.ErrorContains(t, err, "lenderctl login")

	_, _, err = c.run(t, "logout")
	assert.NoError(t, err, "logout twice is fine")
}

func TestCommandsRequireLogin(t *testing.T) {
	c := newCLIEnv(t)

	for _, args := range [][]string{
		{"apikey", "list"},
		{"apikey", "create", "Prod"},
		{"webhook", "list"},
		{"trigger", "list"},
		{"audit", "list"},
	} {
		_, _, err := c.run(t, args...)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized, strings.Join(args, " "))
	}
}

var rawKeyLine = regexp.MustCompile(`Key: (lk_live_[0-9a-f]{48})`)
var createdKeyLine = regexp.MustCompile(`Created API key (key_\S+)`)

func TestAPIKeyCommands(t *testing.T) {
	c := newCLIEnv(t)
	c.login(t, "org1")

	stdout, _, err := c.run(t, "apikey", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No API keys found.")

	stdout, _, err = c.run(t, "apikey", "create", "Prod Key")
	require.NoError(t, err)
	idMatch := createdKeyLine.FindStringSubmatch(stdout)
	require.Len(t, idMatch, 2, stdout)
	keyMatch := rawKeyLine.FindStringSubmatch(stdout)
	require.Len(t, keyMatch, 2, stdout)
	keyID, rawKey := idMatch[1], keyMatch[1]

	stdout, _, err = c.run(t, "apikey", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, keyID)
	assert.Contains(t, stdout, "Prod Key")
	assert.Contains(t, stdout, rawKey[:12]+"...")
	assert.NotContains(t, stdout, rawKey)

	stdout, _, err = c.run(t, "apikey", "regenerate", keyID)
	require.NoError(t, err)
	newKey := rawKeyLine.FindStringSubmatch(stdout)
	require.Len(t, newKey, 2, stdout)
	assert.NotEqual(t, rawKey, newKey[1])

	_, _, err = c.run(t, "apikey", "revoke", keyID)
	require.NoError(t, err)
	stdout, _, err = c.run(t, "apikey", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "revoked")

	_, _, err = c.run(t, "apikey", "delete", keyID)
	require.NoError(t, err)

	_, _, err = c.run(t, "apikey", "delete", keyID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	stdout, _, err = c.run(t, "audit", "list", "--resource-id", keyID)
	require.NoError(t, err)
	for _, action := range []string{"created", "regenerated", "revoked", "deleted"} {
		assert.Contains(t, stdout, action)
	}
}

func TestAPIKeyDelete_DefaultKeyRefused(t *testing.T) {
	c := newCLIEnv(t)
	c.login(t, "org1")

	db := c.openDB(t)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	def := &models.APIKey{
		OrgID:     "org1",
		KeyName:   "Default",
		KeyHash:   "hash",
		Prefix:    "lk_live_defa",
		IsDefault: true,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repositories.NewAPIKeyRepository(db).Create(context.Background(), def))

	_, _, err := c.run(t, "apikey", "delete", def.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	stdout, _, err := c.run(t, "apikey", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "active (default)")
}

func TestWebhookCommands(t *testing.T) {
	var received map[string]any
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("queued"))
	}))
	defer target.Close()

	c := newCLIEnv(t)
	c.login(t, "org1")

	stdout, _, err := c.run(t, "webhook", "create", "--name", "Risk", "--url", target.URL, "--event", "application.approved", "--event", "loan.funded")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`Secret: whsec_[0-9a-f]{64}`), stdout)
	match := regexp.MustCompile(`Created webhook (wh_\S+)`).FindStringSubmatch(stdout)
	require.Len(t, match, 2, stdout)
	webhookID := match[1]

	stdout, _, err = c.run(t, "webhook", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, webhookID)
	assert.Contains(t, stdout, "application.approved,loan.funded")
	assert.NotContains(t, stdout, "whsec_")

	stdout, _, err = c.run(t, "webhook", "test", webhookID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Delivered: 202 Accepted")
	assert.Contains(t, stdout, "Response body: queued")
	assert.Equal(t, "webhook.test", received["event"])

	_, _, err = c.run(t, "webhook", "delete", webhookID)
	require.NoError(t, err)

	_, _, err = c.run(t, "webhook", "test", webhookID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, _, err = c.run(t, "webhook", "create", "--url", "ftp://example.com")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestWebhookTest_ReportsDeliveryFailure(t *testing.T) {
	target := httptest.NewServer(http.NotFoundHandler())
	url := target.URL
	target.Close()

	c := newCLIEnv(t)
	c.login(t, "org1")

	stdout, _, err := c.run(t, "webhook", "create", "--url", url)
	require.NoError(t, err)
	webhookID := regexp.MustCompile(`Created webhook (wh_\S+)`).FindStringSubmatch(stdout)[1]

	stdout, _, err = c.run(t, "webhook", "test", webhookID)
	require.NoError(t, err, "delivery failures are not command failures")
	assert.Contains(t, stdout, "Delivery failed:")
}

func TestTriggerCommands(t *testing.T) {
	c := newCLIEnv(t)
	c.login(t, "org1")

	db := c.openDB(t)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	trg := &models.Trigger{
		OrgID:         "org1",
		Name:          "Low balance",
		ConditionType: "balance_below",
		ActionType:    "send_email",
		Status:        models.TriggerActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repositories.NewTriggerRepository(db).Create(context.Background(), trg))

	stdout, _, err := c.run(t, "trigger", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Low balance")
	assert.Contains(t, stdout, "active")

	stdout, _, err = c.run(t, "trigger", "toggle", trg.ID, "inactive")
	require.NoError(t, err)
	assert.Contains(t, stdout, "is now inactive")

	stdout, _, err = c.run(t, "trigger", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "inactive")

	_, _, err = c.run(t, "trigger", "toggle", trg.ID, "paused")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestMigrateCommands(t *testing.T) {
	c := newCLIEnv(t)

	stdout, _, err := c.run(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Migrations up completed")

	stdout, _, err = c.run(t, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Migrations down completed")
}
