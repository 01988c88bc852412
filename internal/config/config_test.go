package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"STORE_PATH", "SHEET_NAME", "TABLE_NAME", "TABLE_STYLE", "HTTP_ADDR",
	"CLEAR_FORM_ON_SAVE", "SHUTDOWN_TIMEOUT", "TELEGRAM_BOT_TOKEN",
	"TELEGRAM_CHAT_ID", "TELEGRAM_API_URL", "HTTP_TIMEOUT", "CHROME_PATH",
	"PDF_TIMEOUT", "DEBUG_MODE", "LOG_LEVEL",
}

// isolate clears every config variable and the embedded fallback for the
// duration of the test.
func isolate(t *testing.T) {
	t.Helper()
	orig := embeddedEnv
	embeddedEnv = ""
	t.Cleanup(func() { embeddedEnv = orig })

	for _, k := range configKeys {
		t.Setenv(k, "")
	}
	// An external .env would leak values into the defaults test
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "cadastro.xlsx", cfg.StorePath)
	assert.Equal(t, "Sheet1", cfg.SheetName)
	assert.Equal(t, "TabelaCadastro", cfg.TableName)
	assert.Equal(t, "TableStyleMedium9", cfg.TableStyle)
	assert.Equal(t, ":8501", cfg.HTTPAddr)
	assert.True(t, cfg.ClearFormOnSave)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://api.telegram.org", cfg.TelegramAPIURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 60*time.Second, cfg.PDFTimeout)
	assert.False(t, cfg.DebugMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_PATH", "/data/reclamacoes.xlsx")
	t.Setenv("CLEAR_FORM_ON_SAVE", "false")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/data/reclamacoes.xlsx", cfg.StorePath)
	assert.False(t, cfg.ClearFormOnSave)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	isolate(t)
	t.Setenv("HTTP_TIMEOUT", "soon")
	t.Setenv("CLEAR_FORM_ON_SAVE", "maybe")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.ClearFormOnSave)
}

func TestLoadConfigEnvFile(t *testing.T) {
	isolate(t)
	envFile := filepath.Join(t.TempDir(), "custom.env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORE_PATH=outro.xlsx\nTABLE_NAME=Outra\n"), 0644))

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "outro.xlsx", cfg.StorePath)
	assert.Equal(t, "Outra", cfg.TableName)
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	isolate(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadConfigEmbeddedFallback(t *testing.T) {
	isolate(t)
	embeddedEnv = "STORE_PATH=embutido.xlsx\n"
	t.Setenv("STORE_PATH", "")
	os.Unsetenv("STORE_PATH")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "embutido.xlsx", cfg.StorePath)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StorePath:   "cadastro.xlsx",
			SheetName:   "Sheet1",
			TableName:   "TabelaCadastro",
			TableStyle:  "TableStyleMedium9",
			HTTPAddr:    ":8501",
			HTTPTimeout: time.Second,
			PDFTimeout:  time.Second,
			LogLevel:    "info",
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"csv store", func(c *Config) { c.StorePath = "cadastro.csv" }},
		{"empty store", func(c *Config) { c.StorePath = "" }},
		{"sheet with slash", func(c *Config) { c.SheetName = "a/b" }},
		{"table with space", func(c *Config) { c.TableName = "Tabela Cadastro" }},
		{"table starting with digit", func(c *Config) { c.TableName = "1Tabela" }},
		{"empty addr", func(c *Config) { c.HTTPAddr = "" }},
		{"token without chat", func(c *Config) { c.TelegramBotToken = "123:abc" }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"zero pdf timeout", func(c *Config) { c.PDFTimeout = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.edit(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
