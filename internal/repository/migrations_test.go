package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	for _, dialect := range []Dialect{DialectPostgres, DialectSQLite} {
		t.Run(string(dialect), func(t *testing.T) {
			migrations, err := loadMigrations(dialect)
			require.NoError(t, err)
			require.NotEmpty(t, migrations)

			for i, m := range migrations {
				assert.Equal(t, i+1, m.Version, "versions must be contiguous")
				assert.NotEmpty(t, m.UpSQL)
				assert.NotEmpty(t, m.DownSQL)
			}
		})
	}
}

func TestParseFilename(t *testing.T) {
	version, name, direction, err := parseFilename("0001_create_todo_items.up.sql")
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, "create_todo_items", name)
	assert.Equal(t, "up", direction)

	version, _, direction, err = parseFilename("0012_x.down.sql")
	require.NoError(t, err)
	assert.Equal(t, 12, version)
	assert.Equal(t, "down", direction)

	for _, bad := range []string{
		"0001_create.sql",
		"create.up.sql",
		"0001_.up.sql",
		"abcd_name.up.sql",
		"0000_zero.up.sql",
	} {
		_, _, _, err := parseFilename(bad)
		assert.Error(t, err, bad)
	}
}

func TestMigrator_UpIsIdempotent(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()
	m := NewMigrator(repo.DB(), repo.Dialect(), quietLogger())

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx))

	migrations, err := loadMigrations(DialectSQLite)
	require.NoError(t, err)

	versions, err := m.AppliedVersions(ctx)
	require.NoError(t, err)
	require.Len(t, versions, len(migrations))
	for i, mg := range migrations {
		assert.Equal(t, mg.Version, versions[i])
	}

	_, err = repo.DB().ExecContext(ctx, "SELECT 1 FROM todo_items LIMIT 0")
	require.NoError(t, err, "todo_items table should exist")
}

func TestMigrator_DownAndUpAgain(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()
	m := NewMigrator(repo.DB(), repo.Dialect(), quietLogger())
	require.NoError(t, m.Up(ctx))

	migrations, err := loadMigrations(DialectSQLite)
	require.NoError(t, err)

	require.NoError(t, m.Down(ctx, 1))
	versions, err := m.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Len(t, versions, len(migrations)-1)

	require.NoError(t, m.Down(ctx, len(migrations)-1))
	versions, err = m.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, err = repo.DB().ExecContext(ctx, "SELECT 1 FROM todo_items LIMIT 0")
	require.Error(t, err, "todo_items table should be dropped")

	require.NoError(t, m.Up(ctx))
	_, err = repo.DB().ExecContext(ctx, "SELECT 1 FROM todo_items LIMIT 0")
	require.NoError(t, err)
}

func TestMigrator_DownErrors(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()
	m := NewMigrator(repo.DB(), repo.Dialect(), quietLogger())

	assert.Error(t, m.Down(ctx, 0))

	err := m.Down(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only 0 are applied")
}
