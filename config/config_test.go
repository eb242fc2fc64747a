package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EmbeddedDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	defer func() { GlobalConfig = nil }()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "sooraneh", cfg.Database.DBName)
	assert.Equal(t, "utf8mb4", cfg.Database.Charset)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.False(t, cfg.Email.Enabled)
}

func TestLoadConfig_ExternalOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  mode: release\ndatabase:\n  dbname: sooraneh_test\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	defer func() { GlobalConfig = nil }()

	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "sooraneh_test", cfg.Database.DBName)
	// 未覆盖的键保持内置默认
	assert.Equal(t, ":8080", cfg.Server.Port)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SOORANEH_SERVER_PORT", ":9090")
	t.Setenv("SOORANEH_JWT_EXPIRE_HOURS", "48")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	defer func() { GlobalConfig = nil }()

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 48*time.Hour, cfg.JWT.ExpireTime)
}

func TestSafeErrorMessage(t *testing.T) {
	fallback := "操作失败"
	testErr := errors.New("Error 1062: Duplicate entry 'sooraneh'")

	// nil err 返回 fallback
	assert.Equal(t, fallback, SafeErrorMessage(nil, fallback))

	// release 模式只返回 fallback，不把数据库错误细节透给客户端
	GlobalConfig = &Config{Server: ServerConfig{Mode: "release"}}
	defer func() { GlobalConfig = nil }()
	assert.Equal(t, fallback, SafeErrorMessage(testErr, fallback))

	// debug 模式返回 err.Error()
	GlobalConfig = &Config{Server: ServerConfig{Mode: "debug"}}
	assert.Equal(t, testErr.Error(), SafeErrorMessage(testErr, fallback))

	// GlobalConfig 为 nil 时返回 err.Error()（视为开发环境）
	GlobalConfig = nil
	assert.Equal(t, testErr.Error(), SafeErrorMessage(testErr, fallback))
}
