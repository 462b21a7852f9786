package server

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartscan/admingate/internal/dbx"
	"github.com/smartscan/admingate/internal/server/config"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCAddr = "127.0.0.1:0"
	c.RunMigrations = false
	c.ShutdownTimeout = time.Second
	return c
}

func stubOpenDB(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	orig := openDB
	openDB = func(ctx context.Context, dsn string, opts dbx.PoolOptions) (*sql.DB, error) {
		return db, err
	}
	t.Cleanup(func() { openDB = orig })
}

func TestNewApp_DBError(t *testing.T) {
	stubOpenDB(t, nil, errors.New("refused"))

	_, err := NewApp(context.Background(), testConfig(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
}

func TestNewApp_RefusesDefaultSecretInProduction(t *testing.T) {
	stubOpenDB(t, nil, errors.New("must not be reached"))
	c := testConfig()
	c.Environment = config.EnvProduction

	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default JWT secret")
}

func TestNewApp_WarnsOnDefaultSecret(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()
	stubOpenDB(t, db, nil)

	var logs bytes.Buffer
	app, err := NewApp(context.Background(), testConfig(), &logs)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Contains(t, logs.String(), "default JWT secret")
	require.NoError(t, app.db.Close())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()
	stubOpenDB(t, db, nil)

	app, err := NewApp(context.Background(), testConfig(), &bytes.Buffer{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_RunReturnsListenerError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	stubOpenDB(t, db, nil)

	c := testConfig()
	c.HTTPAddr = "127.0.0.1:99999"
	app, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http")
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after listener failure")
	}
}
