package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cube/internal/model"
	"github.com/roach88/cube/internal/store"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInitDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hunt.db")

	out, err := execute(t, "initdb", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, `hunt "linear" (5 puzzles)`)

	_, err = os.Stat(dbPath)
	require.NoError(t, err)

	// Running it again changes nothing.
	out, err = execute(t, "initdb", "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   InitDBResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "linear", resp.Data.Hunt)
	assert.Equal(t, []string{"puzzle1", "puzzle2", "puzzle3", "puzzle4", "puzzle5"}, resp.Data.Puzzles)
}

func TestInitDB_HuntFile(t *testing.T) {
	dir := t.TempDir()
	huntFile := filepath.Join(dir, "hunt.cue")
	require.NoError(t, os.WriteFile(huntFile, []byte("puzzles: [\"a\", \"b\"]\ninitial: [\"a\"]\n"), 0o644))
	configFile := filepath.Join(dir, "cube.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("hunt:\n  name: linear\n  file: "+huntFile+"\n"), 0o644))

	out, err := execute(t, "initdb", "--config", configFile, "--db", filepath.Join(dir, "hunt.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "(2 puzzles)")
}

func TestInitDB_UnknownHunt(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "cube.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("hunt:\n  name: branching\n"), 0o644))

	out, err := execute(t, "initdb", "--config", configFile, "--db", filepath.Join(dir, "hunt.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}

func TestInitDB_MissingConfigFile(t *testing.T) {
	_, err := execute(t, "initdb", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E002")
}

func TestAddTeam(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hunt.db")

	out, err := execute(t, "addteam", "testerteam", "--db", dbPath, "--email", "team@example.com", "--property", "hints=3")
	require.NoError(t, err)
	assert.Contains(t, out, "Added team testerteam")

	_, err = execute(t, "addteam", "testerteam", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "already exists")

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	team, err := store.NewHuntStatusStore(s, model.StandardStatusSet{}).GetTeam(context.Background(), "testerteam")
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", team.Email)
	assert.Equal(t, map[string]string{"hints": "3"}, team.Properties)
}

func TestSetTeamProperty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hunt.db")

	_, err := execute(t, "addteam", "testerteam", "--db", dbPath, "--property", "hints=3")
	require.NoError(t, err)

	out, err := execute(t, "setteamproperty", "testerteam", "hints", "4", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Set hints=4 for team testerteam")
	_, err = execute(t, "setteamproperty", "testerteam", "tier", "gold", "--db", dbPath)
	require.NoError(t, err)

	out, err = execute(t, "setteamproperty", "nobody", "hints", "1", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	team, err := store.NewHuntStatusStore(s, model.StandardStatusSet{}).GetTeam(context.Background(), "testerteam")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"hints": "4", "tier": "gold"}, team.Properties)
}

func TestAddUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hunt.db")

	out, err := execute(t, "adduser", "writer", "--db", dbPath, "--password", "secret", "--role", "writingteam")
	require.NoError(t, err)
	assert.Contains(t, out, "Added user writer")

	_, err = execute(t, "adduser", "writer", "--db", dbPath, "--password", "other")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	user, ok, err := store.NewUserStore(s).Authenticate(context.Background(), "writer", "secret")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"writingteam"}, user.Roles)
}

func TestAddUser_RequiresPassword(t *testing.T) {
	_, err := execute(t, "adduser", "writer", "--db", filepath.Join(t.TempDir(), "hunt.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "password")
}

func TestVisibilityChangesAndReset(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hunt.db")
	ctx := context.Background()

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	hs := store.NewHuntStatusStore(s, model.StandardStatusSet{})
	_, err = hs.SetVisibility(ctx, "testerteam", "puzzle1", model.VisibilityUnlocked, true)
	require.NoError(t, err)
	_, err = hs.SetVisibility(ctx, "otherteam", "puzzle1", model.VisibilityUnlocked, true)
	require.NoError(t, err)
	_, err = hs.SetVisibility(ctx, "testerteam", "puzzle1", model.VisibilitySolved, true)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err := execute(t, "visibilitychanges", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "testerteam/puzzle1\tINVISIBLE -> UNLOCKED")
	assert.Contains(t, out, "testerteam/puzzle1\tUNLOCKED -> SOLVED")
	assert.Contains(t, out, "3 change(s)")

	out, err = execute(t, "visibilitychanges", "--db", dbPath, "--team", "testerteam", "--puzzle", "puzzle1", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data []model.VisibilityChange `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(1), resp.Data[0].Seq)
	assert.Equal(t, int64(3), resp.Data[1].Seq)

	out, err = execute(t, "visibilitychanges", "--db", dbPath, "--team", "otherteam")
	require.NoError(t, err)
	assert.Contains(t, out, "1 change(s)")

	_, err = execute(t, "resethunt", "--db", dbPath)
	require.NoError(t, err)

	out, err = execute(t, "visibilitychanges", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "0 change(s)")
}

func TestFilterChanges(t *testing.T) {
	changes := []model.VisibilityChange{
		{Seq: 1, TeamID: "a", PuzzleID: "p1"},
		{Seq: 2, TeamID: "b", PuzzleID: "p1"},
		{Seq: 3, TeamID: "a", PuzzleID: "p2"},
	}

	assert.Len(t, filterChanges(append([]model.VisibilityChange(nil), changes...), "", ""), 3)
	assert.Equal(t, []model.VisibilityChange{changes[0], changes[2]},
		filterChanges(append([]model.VisibilityChange(nil), changes...), "a", ""))
	assert.Equal(t, []model.VisibilityChange{changes[0], changes[1]},
		filterChanges(append([]model.VisibilityChange(nil), changes...), "", "p1"))
}
