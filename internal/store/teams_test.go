package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cube/internal/model"
)

func TestAddTeam_GetTeam(t *testing.T) {
	hs := newTestHuntStatusStore(t)
	ctx := context.Background()

	added, err := hs.AddTeam(ctx, model.Team{
		TeamID:     "testerteam",
		Email:      "testers@example.com",
		Properties: map[string]string{"hints": "3"},
	})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = hs.AddTeam(ctx, model.Team{TeamID: "testerteam"})
	require.NoError(t, err)
	assert.False(t, added, "duplicate team id")

	team, err := hs.GetTeam(ctx, "testerteam")
	require.NoError(t, err)
	assert.Equal(t, model.Team{
		TeamID:     "testerteam",
		Email:      "testers@example.com",
		Properties: map[string]string{"hints": "3"},
	}, team)
}

func TestGetTeam_NotFound(t *testing.T) {
	hs := newTestHuntStatusStore(t)

	_, err := hs.GetTeam(context.Background(), "ghosts")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetTeamProperty(t *testing.T) {
	hs := newTestHuntStatusStore(t)
	ctx := context.Background()

	_, err := hs.AddTeam(ctx, model.Team{TeamID: "testerteam"})
	require.NoError(t, err)

	require.NoError(t, hs.SetTeamProperty(ctx, "testerteam", "hints", "1"))
	require.NoError(t, hs.SetTeamProperty(ctx, "testerteam", "hints", "2"))

	team, err := hs.GetTeam(ctx, "testerteam")
	require.NoError(t, err)
	assert.Equal(t, "2", team.Properties["hints"])

	err = hs.SetTeamProperty(ctx, "ghosts", "hints", "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTeams_Ordered(t *testing.T) {
	hs := newTestHuntStatusStore(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "mu"} {
		_, err := hs.AddTeam(ctx, model.Team{TeamID: id})
		require.NoError(t, err)
	}

	teams, err := hs.GetTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 3)
	assert.Equal(t, "alpha", teams[0].TeamID)
	assert.Equal(t, "mu", teams[1].TeamID)
	assert.Equal(t, "zeta", teams[2].TeamID)
}

func TestPuzzles_RegistrationOrder(t *testing.T) {
	hs := newTestHuntStatusStore(t)
	ctx := context.Background()

	require.NoError(t, hs.AddPuzzles(ctx, []string{"puzzle2", "puzzle1"}))
	require.NoError(t, hs.AddPuzzles(ctx, []string{"puzzle1", "puzzle3"}))

	ids, err := hs.GetPuzzles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"puzzle2", "puzzle1", "puzzle3"}, ids)
}

func TestStartRun(t *testing.T) {
	hs := newTestHuntStatusStore(t)
	ctx := context.Background()

	_, err := hs.ActiveRun(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = hs.GetRun(ctx, "development")
	assert.ErrorIs(t, err, ErrNotFound)

	started, err := hs.StartRun(ctx, "development", testEpoch)
	require.NoError(t, err)
	assert.True(t, started)

	started, err = hs.StartRun(ctx, "development", testEpoch.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, started, "second start keeps the original timestamp")

	run, err := hs.GetRun(ctx, "development")
	require.NoError(t, err)
	require.NotNil(t, run.StartedAt)
	assert.Equal(t, testEpoch, *run.StartedAt)

	active, err := hs.ActiveRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run, active)
}
