package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-registrar-api/pkg/config"
)

func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "registrar", Password: "p w'd", Name: "sma"})
	assert.Equal(t, `host=db port=5432 user=registrar password='p w\'d' dbname=sma sslmode=disable application_name=sma-registrar`, dsn)
}

func TestPostgresDSNKeepsSSLMode(t *testing.T) {
	dsn := postgresDSN(config.DatabaseConfig{Host: "db", Port: 5432, Name: "sma", SSLMode: "require"})
	assert.Equal(t, "host=db port=5432 dbname=sma sslmode=require application_name=sma-registrar", dsn)
}
