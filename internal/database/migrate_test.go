package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementsSplitsSchema(t *testing.T) {
	stmts := Statements(schema)
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, stmts[3], "PRIMARY KEY (user_id, book_id)")
	assert.Empty(t, Statements(" ;\n ; "))
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "books", "subscriptions", "library_entries"} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no password", Options{User: "root", Host: "db", Port: "3306", Name: "books"}},
		{"plain password", Options{User: "root", Pass: "pw", Host: "db", Port: "3306", Name: "books"}},
		{"password with separators", Options{User: "app", Pass: "p@ss:w/rd", Host: "10.0.0.5", Port: "3307", Name: "books"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := tt.opts.DSN()
			assert.Contains(t, dsn, "charset=utf8mb4")
			cfg, err := mysql.ParseDSN(dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.opts.User, cfg.User)
			assert.Equal(t, tt.opts.Pass, cfg.Passwd)
			assert.Equal(t, "tcp", cfg.Net)
			assert.Equal(t, tt.opts.Host+":"+tt.opts.Port, cfg.Addr)
			assert.Equal(t, tt.opts.Name, cfg.DBName)
			assert.True(t, cfg.ParseTime)
			assert.Equal(t, time.UTC, cfg.Loc)
		})
	}
}
