package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/folio/pkg/config"
)

func TestConfigurePool(t *testing.T) {
	db, _ := newMock(t)

	ConfigurePool(db, config.DatabaseConfig{MaxConns: 20, MinConns: 2, IdleTimeout: 30 * time.Second})
	assert.Equal(t, 20, db.Stats().MaxOpenConnections)
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	assert.NoError(t, Ping(context.Background(), db, 0))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err = Ping(context.Background(), db, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping postgres")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_Unreachable(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "127.0.0.1", Port: "1", Name: "folio", User: "folio",
		SSLMode: "disable", ConnectTimeout: 500 * time.Millisecond,
	}
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}
