package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass, want string
	}{
		{"native passthrough", "u:p@tcp(db:3306)/app?parseTime=true", "", "", "u:p@tcp(db:3306)/app?parseTime=true"},
		{"url form", "mysql://u:p@db:3306/app", "", "", "u:p@tcp(db:3306)/app?charset=utf8mb4&parseTime=true"},
		{"jdbc prefix", "jdbc:mysql://db:3306/app?charset=latin1", "", "", "tcp(db:3306)/app?charset=latin1&parseTime=true"},
		{"override creds", "mysql://u:p@db:3306/app", "root", "secret", "root:secret@tcp(db:3306)/app?charset=utf8mb4&parseTime=true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestNewGorm_Sqlite(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "t.db"), LogLevel: "silent"})
	require.NoError(t, err)
	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
