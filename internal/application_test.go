package application

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ccooksey/bsi-server/internal/auth"
	"github.com/ccooksey/bsi-server/internal/config"
)

func TestNewIntrospector(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Introspection mode calls the OAuth2 server", func(t *testing.T) {
		introspector := newIntrospector(log, config.Auth{
			Mode:             config.AuthModeIntrospection,
			IntrospectionURL: "http://localhost:3001",
			ClientID:         "bsi",
			Timeout:          time.Second,
		})

		assert.IsType(t, &auth.HTTPIntrospector{}, introspector)
	})

	t.Run("JWT mode verifies locally", func(t *testing.T) {
		introspector := newIntrospector(log, config.Auth{Mode: config.AuthModeJWT, JWTSecret: "secret"})

		assert.IsType(t, &auth.JWTIntrospector{}, introspector)
	})
}

func TestRunApp_RequiresRedisAddress(t *testing.T) {
	// Given: a config without a redis host
	conf := &config.Config{}

	// When: the app starts
	err := RunApp(slog.New(slog.NewTextHandler(io.Discard, nil)), conf)

	// Then: it refuses before connecting to anything
	assert.ErrorIs(t, err, ErrAddrNotFound)
}
