package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretsRepository struct {
	mu      sync.Mutex
	token   string
	secrets map[string]*api.Secret
	login   *api.Secret
	failFor map[string]int
	reads   map[string]int
}

func newFakeSecretsRepository() *fakeSecretsRepository {
	return &fakeSecretsRepository{
		secrets: make(map[string]*api.Secret),
		failFor: make(map[string]int),
		reads:   make(map[string]int),
	}
}

func (f *fakeSecretsRepository) SetToken(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.token = v
}

func (f *fakeSecretsRepository) GetSecrets(_ context.Context, path string) (*api.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads[path]++

	if f.failFor[path] > 0 {
		f.failFor[path]--

		return nil, errors.New("vault unavailable")
	}

	return f.secrets[path], nil
}

func (f *fakeSecretsRepository) WriteWithContext(_ context.Context, _ string, _ map[string]any) (*api.Secret, error) {
	return f.login, nil
}

func vaultConfig() *ServiceConfig {
	return &ServiceConfig{
		SecretsStorage: SecretsStorage{
			Enabled:    true,
			AuthMethod: "token",
			Token:      "root",
			MountPath:  "gatewayd",
			Timeout:    time.Second,
			MaxRetries: 2,
		},
		Backoff: Backoff{
			BaseDelay:  time.Millisecond,
			Multiplier: 1,
			MaxDelay:   time.Millisecond,
		},
	}
}

func storedSecrets(version float64) (*api.Secret, *api.Secret) {
	data := &api.Secret{Data: map[string]any{
		"data": map[string]any{
			"POSTGRES_PASSWORD": "pg-secret",
			"CACHE_PASSWORD":    "cache-secret",
			"MQTT_PASSWORD":     "mqtt-secret",
			"UNRELATED":         "ignored",
		},
	}}
	metadata := &api.Secret{Data: map[string]any{"current_version": version}}

	return data, metadata
}

func TestInit(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "sandbox")
	t.Setenv("APP_SERVICE_NAME", "gatewayd-test")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_GATEWAY_DEVICES", "2")
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := Init()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "sandbox", cfg.App.Env.Name)
	assert.Equal(t, "gatewayd-test", cfg.App.ServiceName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Inventory.MaxGatewayDevices)
	assert.Equal(t, DatabaseDriverMemory, cfg.Database.Driver)
}

func TestInit_DefaultValues(t *testing.T) {
	cfg, err := Init()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "gatewayd", cfg.App.ServiceName)
	assert.Equal(t, 10, cfg.Inventory.MaxGatewayDevices)
	assert.False(t, cfg.Inventory.SeedOnStart)

	assert.Equal(t, "0.0.0.0", cfg.PublicHTTPServer.Host)
	assert.Equal(t, uint(8088), cfg.PublicHTTPServer.Port)
	assert.Equal(t, uint(8089), cfg.AdminHTTPServer.Port)

	assert.Equal(t, DatabaseDriverPostgres, cfg.Database.Driver)
	assert.Equal(t, uint(5432), cfg.Database.Port)

	assert.False(t, cfg.SecretsStorage.Enabled)
	assert.Equal(t, "gatewayd", cfg.SecretsStorage.MountPath)

	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, byte(1), cfg.Events.QoS)
	assert.Equal(t, "inventory", cfg.Events.TopicPrefix)

	assert.Equal(t, []string{"POST"}, cfg.Idempotency.RequiredMethods)
}

func TestInit_RejectsInvalidConfiguration(t *testing.T) {
	t.Setenv("MAX_GATEWAY_DEVICES", "0")

	cfg, err := Init()
	require.Error(t, err)
	require.Nil(t, cfg)
	require.Contains(t, err.Error(), "max gateway devices")
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name            string
		mutate          func(cfg *ServiceConfig, repo *fakeSecretsRepository)
		expectedVersion uint
		expectedErr     string
	}{
		{
			name:            "token auth applies credentials",
			expectedVersion: 3,
		},
		{
			name: "approle auth uses the issued token",
			mutate: func(cfg *ServiceConfig, repo *fakeSecretsRepository) {
				cfg.SecretsStorage.AuthMethod = "approle"
				cfg.SecretsStorage.RoleID = "role"
				cfg.SecretsStorage.SecretID = "secret"
				repo.login = &api.Secret{Auth: &api.SecretAuth{ClientToken: "issued"}}
			},
			expectedVersion: 3,
		},
		{
			name: "transient read failures are retried",
			mutate: func(_ *ServiceConfig, repo *fakeSecretsRepository) {
				repo.failFor["apps/data/gatewayd"] = 2
			},
			expectedVersion: 3,
		},
		{
			name: "disabled storage",
			mutate: func(cfg *ServiceConfig, _ *fakeSecretsRepository) {
				cfg.SecretsStorage.Enabled = false
			},
			expectedErr: "secret storage is not enabled",
		},
		{
			name: "missing token",
			mutate: func(cfg *ServiceConfig, _ *fakeSecretsRepository) {
				cfg.SecretsStorage.Token = ""
			},
			expectedErr: "token is required",
		},
		{
			name: "unsupported auth method",
			mutate: func(cfg *ServiceConfig, _ *fakeSecretsRepository) {
				cfg.SecretsStorage.AuthMethod = "kerberos"
			},
			expectedErr: "unsupported auth method",
		},
		{
			name: "retries exhausted",
			mutate: func(_ *ServiceConfig, repo *fakeSecretsRepository) {
				repo.failFor["apps/data/gatewayd"] = 10
			},
			expectedErr: "failed to load secrets from Vault",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := vaultConfig()
			repo := newFakeSecretsRepository()
			repo.secrets["apps/data/gatewayd"], repo.secrets["apps/metadata/gatewayd"] = storedSecrets(3)

			if tc.mutate != nil {
				tc.mutate(cfg, repo)
			}

			loader := NewLoader(cfg, repo, 0)
			version, err := loader.Load(context.Background(), repo, cfg)

			if tc.expectedErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.expectedErr)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expectedVersion, version)
			require.Equal(t, "pg-secret", cfg.Database.Password)
			require.Equal(t, "cache-secret", cfg.Cache.Password)
			require.Equal(t, "mqtt-secret", cfg.Events.Password)
			require.NotEmpty(t, repo.token)
		})
	}
}

func TestLoader_HandleConfigReload(t *testing.T) {
	t.Parallel()

	cfg := vaultConfig()
	repo := newFakeSecretsRepository()
	repo.secrets["apps/data/gatewayd"], repo.secrets["apps/metadata/gatewayd"] = storedSecrets(1)

	loader := NewLoader(cfg, repo, 1)

	loader.handleConfigReload(context.Background())
	require.Empty(t, cfg.Database.Password, "unchanged version must not reload")

	repo.secrets["apps/data/gatewayd"], repo.secrets["apps/metadata/gatewayd"] = storedSecrets(2)
	loader.handleConfigReload(context.Background())

	require.Equal(t, "pg-secret", cfg.Database.Password)
	require.Equal(t, uint(2), loader.lastVersion)
	require.NoError(t, <-loader.reloadErrors)
}

func TestSecretVersion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		metadata    map[string]any
		expected    uint
		expectError bool
	}{
		{name: "nil metadata", metadata: nil, expected: 0},
		{name: "missing key", metadata: map[string]any{}, expected: 0},
		{name: "float", metadata: map[string]any{"current_version": float64(4)}, expected: 4},
		{name: "json number", metadata: map[string]any{"current_version": json.Number("7")}, expected: 7},
		{name: "unexpected type", metadata: map[string]any{"current_version": "seven"}, expectError: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			version, err := secretVersion(tc.metadata)
			if tc.expectError {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expected, version)
		})
	}
}

func TestLoader_DumpConfigRedactsCredentials(t *testing.T) {
	t.Parallel()

	cfg := vaultConfig()
	cfg.Database.Password = "pg-secret"

	var out bytes.Buffer

	loader := NewLoader(cfg, newFakeSecretsRepository(), 0)
	loader.dumpTo = &out
	loader.dumpConfig()

	require.Contains(t, out.String(), `"mount_path": "gatewayd"`)
	require.NotContains(t, out.String(), "pg-secret")
	require.NotContains(t, out.String(), "root")
}

func TestLoader_LoadRejectsMalformedSecret(t *testing.T) {
	t.Parallel()

	cfg := vaultConfig()
	repo := newFakeSecretsRepository()
	repo.secrets["apps/data/gatewayd"] = &api.Secret{Data: map[string]any{"POSTGRES_PASSWORD": "flat"}}

	_, err := NewLoader(cfg, repo, 0).Load(context.Background(), repo, cfg)
	require.ErrorContains(t, err, `has no "data" key`)
	require.Empty(t, cfg.Database.Password)
}
