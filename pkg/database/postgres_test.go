package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-shift-api/pkg/config"
)

func TestDSNPinsTimezoneAndEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "shift",
		Password: "p@ss/word",
		Name:     "tutor_shift",
		SSLMode:  "disable",
	}, "Asia/Tokyo")

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db:5433", u.Host)
	assert.Equal(t, "/tutor_shift", u.Path)
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", password)
	assert.Equal(t, "Asia/Tokyo", u.Query().Get("timezone"))
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, applicationName, u.Query().Get("application_name"))
}

func TestDSNOmitsEmptyTimezone(t *testing.T) {
	u, err := url.Parse(DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "require"}, ""))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("timezone"))
}
