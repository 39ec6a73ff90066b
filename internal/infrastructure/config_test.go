package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	cfg := new(AppConfig)
	cfg.AppID = "learn-gateway"
	cfg.Env = EnvDevelopment
	cfg.API.BaseURL = "https://api.example.org/api"
	cfg.Database.Driver = "postgres"
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.MaxConn = 10
	cfg.Database.Password = "secret"
	cfg.Database.Schema = "learn"
	cfg.Database.User = "learn"
	cfg.Logging.Level = "info"
	cfg.Security.IDLength = 21
	cfg.Security.JWTMethod = "HS256"
	cfg.Security.JWTSecret = "secret"
	cfg.Security.TokenName = "token"
	cfg.Security.SessionCookie = "learn_session"
	cfg.Security.AllowedOrigins = []string{"http://127.0.0.1:8080"}
	cfg.Navigation.SectionPolicy = "any"
	return cfg
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(validConfig()))

	cfg := validConfig()
	cfg.API.BaseURL = ""
	cfg.Database.Driver = "sqlite"
	cfg.Navigation.SectionPolicy = "last"
	cfg.Security.IDLength = 4
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url is required")
	assert.Contains(t, err.Error(), "database.driver must be one of (postgres mysql)")
	assert.Contains(t, err.Error(), "navigation.section_policy must be one of (any first)")
	assert.Contains(t, err.Error(), "security.id_length must be at least 8")

	cfg = validConfig()
	cfg.API.BaseURL = "not a url"
	err = ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url must be an absolute url")
}
