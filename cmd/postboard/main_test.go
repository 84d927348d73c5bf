package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/postboard/fixture"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func dbFlags(t *testing.T) []string {
	t.Helper()
	return []string{
		"--database-driver", "sqlite3",
		"--database-url", filepath.Join(t.TempDir(), "cli.db"),
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--log-level", "error",
	}
}

func TestFixturesGenerate(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "", "fixtures", "generate", "--users", "4", "--posts", "9", "--seed", "7", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 4 users and 9 posts")

	doc, err := fixture.Load(dir)
	require.NoError(t, err)
	assert.Len(t, doc.Users, 4)
	assert.Len(t, doc.Posts, 9)
}

func TestFixturesGenerate_InvalidCounts(t *testing.T) {
	_, err := run(t, "", "fixtures", "generate", "--users", "0", "--posts", "3", "--out", t.TempDir())
	require.Error(t, err)
}

func TestMigrateAndReseed(t *testing.T) {
	flags := dbFlags(t)

	out, err := run(t, "", append([]string{"migrate", "version"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "version: 0")

	_, err = run(t, "", append([]string{"migrate", "up"}, flags...)...)
	require.NoError(t, err)

	out, err = run(t, "", append([]string{"migrate", "version"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "version: 2  dirty: false")

	dir := t.TempDir()
	_, err = run(t, "", "fixtures", "generate", "--users", "3", "--posts", "1200", "--seed", "1", "--out", dir)
	require.NoError(t, err)

	out, err = run(t, "", append([]string{"reseed", "--fixtures-dir", dir}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, "users: 3  posts: 1,200\n", out)

	_, err = run(t, "", append([]string{"migrate", "down", "2"}, flags...)...)
	require.NoError(t, err)
	out, err = run(t, "", append([]string{"migrate", "version"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "version: 0")
}

func TestMigrateDown_InvalidSteps(t *testing.T) {
	_, err := run(t, "", append([]string{"migrate", "down", "zero"}, dbFlags(t)...)...)
	require.ErrorContains(t, err, "invalid steps")
}

func TestMigrateDrop_RequiresConfirmation(t *testing.T) {
	flags := dbFlags(t)
	_, err := run(t, "", append([]string{"migrate", "up"}, flags...)...)
	require.NoError(t, err)

	out, err := run(t, "no\n", append([]string{"migrate", "drop"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "aborted")

	out, err = run(t, "", append([]string{"migrate", "version"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "version: 2")
}

func TestReseed_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "", "reseed", "--env-file", filepath.Join(t.TempDir(), "none.env"))
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestServe_RejectsBadConfig(t *testing.T) {
	_, err := run(t, "", append([]string{"serve", "--port", "70000"}, dbFlags(t)...)...)
	require.ErrorContains(t, err, "out of range")
}
