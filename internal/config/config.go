package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the player.
type Config struct {
	ListenAddr       string   `yaml:"listen_addr"`
	MediaDir         string   `yaml:"media_dir"`
	RemoteMediaDir   string   `yaml:"remote_media_dir"`
	TriggerFile      string   `yaml:"trigger_file"`
	ReplicaHosts     []string `yaml:"replica_hosts"`
	PhotoSeconds     float64  `yaml:"photo_transition_seconds"`
	SlideSeconds     int      `yaml:"slide_transition_seconds"`
	SyncRetrySeconds int      `yaml:"sync_retry_seconds"`
	SSHKey           string   `yaml:"ssh_key"`
	SSHUser          string   `yaml:"ssh_user"`
	AdminUser        string   `yaml:"admin_user"`
	AdminPass        string   `yaml:"admin_pass"`
	KeepAwake        []string `yaml:"keep_awake_command"`
}

// Default returns the built-in settings used when nothing is configured.
func Default() Config {
	return Config{
		ListenAddr:       ":8018",
		MediaDir:         "/srv/media",
		RemoteMediaDir:   "/srv/media",
		TriggerFile:      "remove-when-done",
		PhotoSeconds:     1.5,
		SlideSeconds:     2,
		SyncRetrySeconds: 30,
		KeepAwake:        []string{"caffeinate", "--"},
	}
}

// Load reads the YAML configuration file when it exists, then applies
// environment-variable overrides. A missing file is not an error; a
// malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults plus env only.
	case err != nil:
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.ListenAddr = getEnv("SKYLT_LISTEN_ADDR", cfg.ListenAddr)
	cfg.MediaDir = getEnv("SKYLT_MEDIA_DIR", cfg.MediaDir)
	cfg.RemoteMediaDir = getEnv("SKYLT_REMOTE_MEDIA_DIR", cfg.RemoteMediaDir)
	cfg.TriggerFile = getEnv("SKYLT_TRIGGER_FILE", cfg.TriggerFile)
	cfg.PhotoSeconds = getEnvFloat("SKYLT_PHOTO_SECONDS", cfg.PhotoSeconds)
	cfg.SlideSeconds = getEnvInt("SKYLT_SLIDE_SECONDS", cfg.SlideSeconds)
	cfg.SyncRetrySeconds = getEnvInt("SKYLT_SYNC_RETRY_SECONDS", cfg.SyncRetrySeconds)
	cfg.SSHKey = getEnv("SKYLT_SSH_KEY", cfg.SSHKey)
	cfg.SSHUser = getEnv("SKYLT_SSH_USER", cfg.SSHUser)
	cfg.AdminUser = getEnv("SKYLT_ADMIN_USER", cfg.AdminUser)
	cfg.AdminPass = getEnv("SKYLT_ADMIN_PASS", cfg.AdminPass)
	if hosts := strings.TrimSpace(os.Getenv("SKYLT_REPLICA_HOSTS")); hosts != "" {
		cfg.ReplicaHosts = strings.Fields(hosts)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	out, err := strconv.Atoi(value)
	if err != nil || out <= 0 {
		return fallback
	}
	return out
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	out, err := strconv.ParseFloat(value, 64)
	if err != nil || out <= 0 {
		return fallback
	}
	return out
}
