package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSONConfigGroupedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"app": {"AppPort": "9000", "JWTSecret": "s3cret", "AllowedOrigins": ["https://a.example"]},
		"admin": {"Usernames": ["root"]},
		"database": {"Driver": "mysql", "DBName": "blog"},
		"posts": {"PerPage": 5, "IndexCacheSeconds": 30},
		"media": {"Root": "/srv/media"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))
	applyDefaults(&c)

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, []string{"https://a.example"}, c.AllowedOrigins)
	assert.Equal(t, []string{"root"}, c.AdminUsernames)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, "blog", c.DBName)
	assert.Equal(t, 5, c.PostsPerPage)
	assert.Equal(t, 30, c.IndexCacheSeconds)
	assert.Equal(t, "/srv/media", c.MediaRoot)
	assert.Equal(t, "/media/", c.MediaURL)
}

func TestLoadJSONConfigMissingFileIsIgnored(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "nope.json"), &c))
	assert.Equal(t, AppConfig{}, c)
}

func TestLoadJSONConfigRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	var c AppConfig
	assert.Error(t, loadJSONConfig(path, &c))
}

func TestDefaults(t *testing.T) {
	c := Defaults()
	assert.Equal(t, 10, c.PostsPerPage)
	assert.Equal(t, 20, c.IndexCacheSeconds)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 72, c.TokenTTLHours)
	assert.Empty(t, c.RedisHost)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POSTS_PER_PAGE", "3")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("ADMIN_USERNAMES", " alice , bob ,")
	t.Setenv("COOKIE_SECURE", "true")

	c := Defaults()
	applyEnvOverrides(&c)

	assert.Equal(t, 3, c.PostsPerPage)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, []string{"alice", "bob"}, c.AdminUsernames)
	assert.True(t, c.CookieSecure)
}

func TestSetBypassesLoading(t *testing.T) {
	c := Defaults()
	c.JWTSecret = "from-test"
	Set(c)
	assert.Equal(t, "from-test", Get().JWTSecret)
}

func TestDialectorForUnsupportedDriver(t *testing.T) {
	c := Defaults()
	c.DBDriver = "oracle"
	_, err := dialectorFor(c)
	assert.Error(t, err)
}

func TestOpenDatabaseSQLiteInMemory(t *testing.T) {
	c := Defaults()
	c.DatabaseURI = "file:config_test?mode=memory&cache=shared"
	c.LogLevel = "silent"

	type probe struct {
		ID   uint
		Name string
	}
	conn, err := OpenDatabase(c, &probe{})
	require.NoError(t, err)
	assert.True(t, conn.Migrator().HasTable(&probe{}))
}
