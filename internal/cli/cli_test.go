package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	historygrouper "shopping-assistant/internal/features/chat/history-grouper"
	"shopping-assistant/internal/mockserver"
	"shopping-assistant/internal/models"
	"shopping-assistant/pkg/catalog"
)

// resetFlags restores every flag to its default; commands are package globals.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

type cliEnv struct {
	configPath string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seed, err := catalog.Default()
	require.NoError(t, err)

	server := mockserver.NewServer(mockserver.Dependencies{
		Store:   mockserver.NewMemoryStore(),
		Catalog: mockserver.NewMemoryCatalog(seed),
		Logger:  logger.NewNoOpLogger(),
	})
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		srv.Close()
		server.Close()
	})

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
backend:
  base_url: %q
session:
  store: file
  file_path: %q
chat:
  typing_enabled: false
  location: Asia/Seoul
logging:
  level: error
output:
  colors: false
`, srv.URL, filepath.Join(dir, "session.json"))
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))

	t.Cleanup(func() {
		resetFlags(rootCmd)
		app = nil
	})
	return &cliEnv{configPath: configPath}
}

func (e *cliEnv) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", e.configPath, "--color", "never"}, args...)
	code := Execute(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	code, stdout, stderr := e.run(t, args...)
	require.Equal(t, errors.ExitSuccess, code, "shopctl %s\nstdout: %s\nstderr: %s", strings.Join(args, " "), stdout, stderr)
	return stdout
}

func (e *cliEnv) signupAndLogin(t *testing.T) {
	t.Helper()
	e.mustRun(t, "signup", "--email", "shopper@example.com", "--password", "password123",
		"--nickname", "쇼퍼", "--age", "30", "--sex", "female")
	out := e.mustRun(t, "login", "--email", "shopper@example.com", "--password", "password123")
	assert.Contains(t, out, "쇼퍼")
}

// ==========================================
// Version and usage
// ==========================================

func TestVersion_Short(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")
	resetFlags(rootCmd)

	var stdout bytes.Buffer
	code := Execute(context.Background(), []string{"version", "--short"}, &stdout, &bytes.Buffer{})
	assert.Equal(t, errors.ExitSuccess, code)
	assert.Equal(t, "1.2.3\n", stdout.String())
}

func TestVersion_JSON(t *testing.T) {
	resetFlags(rootCmd)

	var stdout bytes.Buffer
	code := Execute(context.Background(), []string{"version", "--json"}, &stdout, &bytes.Buffer{})
	require.Equal(t, errors.ExitSuccess, code)

	var info map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "goVersion")
}

func TestExecute_UsageError(t *testing.T) {
	env := setupCLI(t)

	code, _, stderr := env.run(t, "cart", "add", "only-one-arg")
	assert.Equal(t, errors.ExitUsageError, code)
	assert.Contains(t, stderr, "Error:")
}

// ==========================================
// Session lifecycle
// ==========================================

func TestCLI_RequiresLogin(t *testing.T) {
	env := setupCLI(t)

	code, _, stderr := env.run(t, "history")
	assert.Equal(t, errors.ExitAuthError, code)
	assert.Contains(t, stderr, "Not logged in")
}

func TestCLI_SignupValidation(t *testing.T) {
	env := setupCLI(t)

	code, _, stderr := env.run(t, "signup", "--email", "shopper@example.com", "--password", "short",
		"--nickname", "쇼퍼", "--age", "30", "--sex", "female")
	assert.Equal(t, errors.ExitValidation, code)
	assert.Contains(t, stderr, "password")
}

func TestCLI_WrongPassword(t *testing.T) {
	env := setupCLI(t)
	env.signupAndLogin(t)

	code, _, _ := env.run(t, "login", "--email", "shopper@example.com", "--password", "not-the-password")
	assert.Equal(t, errors.ExitAuthError, code)
}

func TestCLI_LogoutClearsSession(t *testing.T) {
	env := setupCLI(t)
	env.signupAndLogin(t)

	env.mustRun(t, "history")
	env.mustRun(t, "logout")

	code, _, _ := env.run(t, "history")
	assert.Equal(t, errors.ExitAuthError, code)
}

// ==========================================
// Chat
// ==========================================

func TestCLI_ChatSendAndHistory(t *testing.T) {
	env := setupCLI(t)
	env.signupAndLogin(t)

	out := env.mustRun(t, "chat", "send", "--no-typing", "셔츠", "추천")
	assert.Contains(t, out, "셔츠 추천")
	assert.Contains(t, out, "린넨 셔츠")
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "chat id: ")

	out = env.mustRun(t, "history", "--json")
	var groups []historygrouper.Group
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, historygrouper.LabelToday, groups[0].Label)
	require.Len(t, groups[0].Chats, 1)
	chatID := string(groups[0].Chats[0].ChatID)

	env.mustRun(t, "chat", "send", "--no-typing", "--chat", chatID, "청소기")

	out = env.mustRun(t, "chat", "show", chatID, "--json")
	var messages []models.DisplayMessage
	require.NoError(t, json.Unmarshal([]byte(out), &messages))
	assert.Len(t, messages, 6, "two turns of user, text and structured messages")
	for _, m := range messages {
		assert.False(t, m.IsTyping)
	}

	out = env.mustRun(t, "history")
	assert.Contains(t, out, string(historygrouper.LabelToday))
}

func TestCLI_ChatShowUnknown(t *testing.T) {
	env := setupCLI(t)
	env.signupAndLogin(t)

	code, _, _ := env.run(t, "chat", "show", "999")
	assert.Equal(t, errors.ExitValidation, code)

	code, _, _ = env.run(t, "chat", "show", "bad/id")
	assert.Equal(t, errors.ExitValidation, code)
}

// ==========================================
// Carts
// ==========================================

func TestCLI_CartLifecycle(t *testing.T) {
	env := setupCLI(t)
	env.signupAndLogin(t)

	out := env.mustRun(t, "cart", "create", "여름", "옷")
	assert.Contains(t, out, "여름 옷")

	out = env.mustRun(t, "cart", "list", "--json")
	var carts []models.CartSummary
	require.NoError(t, json.Unmarshal([]byte(out), &carts))
	require.Len(t, carts, 1)
	cartID := string(carts[0].CollectionID)

	env.mustRun(t, "cart", "add", cartID, "p-1001")

	out = env.mustRun(t, "cart", "show", cartID, "--json")
	var cart models.Cart
	require.NoError(t, json.Unmarshal([]byte(out), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "린넨 셔츠", cart.Items[0].ProductName)

	out = env.mustRun(t, "cart", "show", cartID)
	assert.Contains(t, out, "린넨 셔츠")

	env.mustRun(t, "cart", "remove", cartID, string(cart.Items[0].ItemID))
	env.mustRun(t, "cart", "delete", cartID)

	code, _, _ := env.run(t, "cart", "show", cartID)
	assert.NotEqual(t, errors.ExitSuccess, code)

	out = env.mustRun(t, "home")
	assert.Contains(t, out, "장바구니")
}

func TestCLI_AddToCartByTitle(t *testing.T) {
	env := setupCLI(t)
	env.signupAndLogin(t)

	env.mustRun(t, "cart", "create", "여름", "옷")
	env.mustRun(t, "cart", "create", "캠핑")

	env.mustRun(t, "cart", "add", "캠핑", "p-1001")

	rootCmd.SetIn(strings.NewReader("/add 여름 옷 p-1001\n/quit\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })
	env.mustRun(t, "chat", "--no-typing")

	out := env.mustRun(t, "cart", "list", "--json")
	var carts []models.CartSummary
	require.NoError(t, json.Unmarshal([]byte(out), &carts))
	require.Len(t, carts, 2)

	for _, summary := range carts {
		out = env.mustRun(t, "cart", "show", string(summary.CollectionID), "--json")
		var cart models.Cart
		require.NoError(t, json.Unmarshal([]byte(out), &cart))
		assert.Len(t, cart.Items, 1, summary.CollectionTitle)
	}
}
