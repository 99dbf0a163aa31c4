package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, value := range values {
		v.Set(key, value)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg := fromViper(newViper(nil))

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "focused", cfg.Database.Name)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 10*time.Second, cfg.Mailer.Timeout)
	assert.Empty(t, cfg.Renderer.BaseURL)
	assert.Equal(t, 2, cfg.Notifications.Workers)
	assert.Equal(t, 5, cfg.RateLimit.EmailBurst)
	assert.True(t, cfg.Startup.Migrate)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.TrustForwardedHeaders)
}

func TestFromViperOverrides(t *testing.T) {
	cfg := fromViper(newViper(map[string]interface{}{
		"ENV":                     EnvProduction,
		"API_PREFIX":              "v1/",
		"ALLOWED_ORIGINS":         " https://a.test , ,https://b.test",
		"MAILER_TIMEOUT":          "not-a-duration",
		"PDF_RENDERER_URL":        "  http://renderer:9000  ",
		"PDF_RENDERER_TIMEOUT":    "3s",
		"EMAIL_RATE_LIMIT_RPS":    0.5,
		"TRUST_FORWARDED_HEADERS": true,
	}))

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, "/v1", cfg.APIPrefix)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.Mailer.Timeout)
	assert.Equal(t, "http://renderer:9000", cfg.Renderer.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, 0.5, cfg.RateLimit.EmailRPS)
	assert.True(t, cfg.TrustForwardedHeaders)
}

func TestNormalizePrefix(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"/":     "",
		"api":   "/api",
		"/api/": "/api",
		" /v2 ": "/v2",
		"a/b/":  "/a/b",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizePrefix(in), in)
	}
}
