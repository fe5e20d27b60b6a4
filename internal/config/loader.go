package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/architeacher/gateways/internal/ports"
	"github.com/cenkalti/backoff/v5"
	"github.com/hashicorp/vault/api"
	"github.com/kelseyhightower/envconfig"
)

const (
	secretsDataPath     = "data"
	secretsMetadataPath = "metadata"
)

// secretBindings lists the credentials Vault may override, keyed by their
// name under apps/data/<mount>. Other keys are ignored.
var secretBindings = map[string]func(cfg *ServiceConfig, value string){
	"POSTGRES_PASSWORD": func(cfg *ServiceConfig, value string) { cfg.Database.Password = value },
	"CACHE_PASSWORD":    func(cfg *ServiceConfig, value string) { cfg.Cache.Password = value },
	"MQTT_USERNAME":     func(cfg *ServiceConfig, value string) { cfg.Events.Username = value },
	"MQTT_PASSWORD":     func(cfg *ServiceConfig, value string) { cfg.Events.Password = value },
}

// Loader keeps the inventory credentials in sync with Vault.
type Loader struct {
	cfg          *ServiceConfig
	secrets      ports.SecretsRepository
	reloadErrors chan error
	lastVersion  uint
	dumpTo       io.Writer
}

func NewLoader(cfg *ServiceConfig, secrets ports.SecretsRepository, initialVersion uint) *Loader {
	return &Loader{
		cfg:          cfg,
		secrets:      secrets,
		reloadErrors: make(chan error, 1),
		lastVersion:  initialVersion,
		dumpTo:       os.Stdout,
	}
}

// Init builds the configuration from the environment and validates it.
func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service configuration: %w", err)
	}

	return cfg, nil
}

// Load logs in, applies the stored credentials to cfg and returns the secret
// version they were read from.
func (l *Loader) Load(ctx context.Context, secrets ports.SecretsRepository, cfg *ServiceConfig) (uint, error) {
	if !cfg.SecretsStorage.Enabled {
		return 0, errors.New("secret storage is not enabled")
	}

	if err := login(ctx, secrets, cfg.SecretsStorage); err != nil {
		return 0, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	data, err := readKV(ctx, secrets, cfg, secretsDataPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load secrets from Vault: %w", err)
	}

	if data != nil {
		stored, ok := data[secretsDataPath].(map[string]any)
		if !ok {
			return 0, fmt.Errorf("secret at %s has no %q key", kvPath(cfg, secretsDataPath), secretsDataPath)
		}

		for key, value := range stored {
			bind, known := secretBindings[key]
			if str, isString := value.(string); known && isString && str != "" {
				bind(cfg, str)
			}
		}
	}

	return currentVersion(ctx, secrets, cfg)
}

// WatchConfigSignals reloads the credentials on SIGHUP or every poll interval
// and dumps the configuration on SIGUSR1. Reload outcomes go to the returned channel,
// which closes with ctx.
func (l *Loader) WatchConfigSignals(ctx context.Context) <-chan error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGUSR1)

	var (
		ticker *time.Ticker
		ticks  <-chan time.Time
	)

	if l.cfg.SecretsStorage.Enabled && l.cfg.SecretsStorage.PollInterval > 0 {
		ticker = time.NewTicker(l.cfg.SecretsStorage.PollInterval)
		ticks = ticker.C
	}

	go func() {
		defer close(l.reloadErrors)
		defer signal.Stop(signals)

		if ticker != nil {
			defer ticker.Stop()
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				l.handleConfigReload(ctx)
			case sig := <-signals:
				if sig == syscall.SIGUSR1 {
					l.dumpConfig()

					continue
				}

				l.handleConfigReload(ctx)
			}
		}
	}()

	return l.reloadErrors
}

func (l *Loader) dumpConfig() {
	encoder := json.NewEncoder(l.dumpTo)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(l.cfg); err != nil {
		fmt.Fprintf(l.dumpTo, "config dump failed: %v\n", err)
	}
}

// handleConfigReload only reloads when Vault reports a new secret version.
func (l *Loader) handleConfigReload(ctx context.Context) {
	version, err := currentVersion(ctx, l.secrets, l.cfg)
	if err != nil {
		l.reportReloadStatus(err)

		return
	}

	if version == l.lastVersion {
		return
	}

	if version, err = l.Load(ctx, l.secrets, l.cfg); err != nil {
		l.reportReloadStatus(err)

		return
	}

	l.lastVersion = version
	l.reportReloadStatus(nil)
}

func (l *Loader) reportReloadStatus(err error) {
	select {
	case l.reloadErrors <- err:
	default:
	}
}

func login(ctx context.Context, secrets ports.SecretsRepository, storage SecretsStorage) error {
	switch strings.ToLower(storage.AuthMethod) {
	case "token":
		if storage.Token == "" {
			return errors.New("token is required for token auth method")
		}

		secrets.SetToken(storage.Token)

		return nil
	case "approle":
		if storage.RoleID == "" || storage.SecretID == "" {
			return errors.New("role_id and secret_id are required for approle auth method")
		}

		resp, err := secrets.WriteWithContext(ctx, "auth/approle/login", map[string]any{
			"role_id":   storage.RoleID,
			"secret_id": storage.SecretID,
		})
		if err != nil {
			return fmt.Errorf("approle login: %w", err)
		}

		if resp == nil || resp.Auth == nil {
			return errors.New("no auth info returned from Vault")
		}

		secrets.SetToken(resp.Auth.ClientToken)

		return nil
	default:
		return fmt.Errorf("unsupported auth method: %s", storage.AuthMethod)
	}
}

func currentVersion(ctx context.Context, secrets ports.SecretsRepository, cfg *ServiceConfig) (uint, error) {
	metadata, err := readKV(ctx, secrets, cfg, secretsMetadataPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load secret metadata: %w", err)
	}

	return secretVersion(metadata)
}

func kvPath(cfg *ServiceConfig, kind string) string {
	return "apps/" + kind + "/" + cfg.SecretsStorage.MountPath
}

// readKV reads one KV v2 endpoint of the mount, retrying within the Vault timeout.
func readKV(ctx context.Context, secrets ports.SecretsRepository, cfg *ServiceConfig, kind string) (map[string]any, error) {
	path := kvPath(cfg, kind)

	ctx, cancel := context.WithTimeout(ctx, cfg.SecretsStorage.Timeout)
	defer cancel()

	secret, err := backoff.Retry(ctx, func() (*api.Secret, error) {
		return secrets.GetSecrets(ctx, path)
	},
		backoff.WithBackOff(cfg.Backoff.Exponential()),
		backoff.WithMaxTries(cfg.SecretsStorage.MaxRetries+1),
	)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if secret == nil {
		return nil, nil
	}

	return secret.Data, nil
}

// secretVersion extracts current_version from KV metadata. Missing metadata is version 0.
func secretVersion(metadata map[string]any) (uint, error) {
	switch version := metadata["current_version"].(type) {
	case nil:
		return 0, nil
	case float64:
		return uint(version), nil
	case json.Number:
		parsed, err := version.Int64()
		if err != nil {
			return 0, fmt.Errorf("failed to parse version: %w", err)
		}

		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unexpected version type: %T", version)
	}
}
