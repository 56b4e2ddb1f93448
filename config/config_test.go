package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeEnv(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeEnv(t,
		"TELEGRAM_BOT_TOKEN=token",
		"DB_URL=postgres://localhost/ncp",
	)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Storage != StoragePostgres {
		t.Fatalf("expected postgres storage, got %q", cfg.Storage)
	}
	if cfg.MinDeposit != 500 || cfg.DefaultMinWithdrawal != 500 {
		t.Fatalf("unexpected floors: deposit=%v withdrawal=%v", cfg.MinDeposit, cfg.DefaultMinWithdrawal)
	}
	if cfg.DefaultWithdrawPin != "1234" {
		t.Fatalf("unexpected default pin %q", cfg.DefaultWithdrawPin)
	}
	if cfg.TaskCooldown != 24*time.Hour {
		t.Fatalf("unexpected cooldown %v", cfg.TaskCooldown)
	}
	if cfg.AdminPhone != "01711111111" {
		t.Fatalf("unexpected admin phone %q", cfg.AdminPhone)
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	path := writeEnv(t,
		"TELEGRAM_BOT_TOKEN=token",
		"STORAGE=redis",
		"REDIS_URL=redis://localhost:6379/0",
		"DEFAULT_MIN_WITHDRAWAL=750",
		"TASK_COOLDOWN=12h",
		"ADMIN_CHAT_ID=42",
	)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Storage != StorageRedis || cfg.RedisURL == "" {
		t.Fatalf("expected redis storage, got %q (%q)", cfg.Storage, cfg.RedisURL)
	}
	if cfg.DefaultMinWithdrawal != 750 {
		t.Fatalf("expected min withdrawal 750, got %v", cfg.DefaultMinWithdrawal)
	}
	if cfg.TaskCooldown != 12*time.Hour {
		t.Fatalf("expected 12h cooldown, got %v", cfg.TaskCooldown)
	}
	if cfg.AdminChatID != 42 {
		t.Fatalf("expected admin chat 42, got %d", cfg.AdminChatID)
	}
}

func TestLoadConfig_MissingToken(t *testing.T) {
	path := writeEnv(t, "DB_URL=postgres://localhost/ncp")

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error when bot token is missing")
	}
}

func TestValidate_UnknownStorage(t *testing.T) {
	cfg := Config{
		TelegramBotToken:    "token",
		Storage:             "sqlite",
		MinDeposit:          500,
		TaskCooldown:        time.Hour,
		ExpirySweepInterval: time.Hour,
		BotRateLimit:        1,
		BotRateBurst:        1,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown storage to fail validation")
	}
}
