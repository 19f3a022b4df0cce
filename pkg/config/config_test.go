package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "AY2526", cfg.Registrar.DefaultAcademicYear)
	assert.Equal(t, time.Minute, cfg.Registrar.ConfigCacheTTL)
	assert.Equal(t, 3, cfg.Registrar.ReconcilerRetries)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", "Mongo")
	v.Set("CONFIG_CACHE_TTL", "bogus")
	v.Set("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	cfg := fromViper(v)

	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, time.Minute, cfg.Registrar.ConfigCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
