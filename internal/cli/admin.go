package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cube/internal/hunt"
	"github.com/roach88/cube/internal/model"
	"github.com/roach88/cube/internal/store"
)

// InitDBResult is the JSON payload of initdb.
type InitDBResult struct {
	Database string   `json:"database"`
	Hunt     string   `json:"hunt"`
	Puzzles  []string `json:"puzzles"`
}

// NewInitDBCommand creates the initdb command.
func NewInitDBCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the database schema and puzzle rows",
		Long: `Create the database if needed, apply the schema, and register the
configured hunt's puzzles. Safe to run more than once.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			env, err := openEnvironment(rootOpts, f)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := hunt.Install(cmd.Context(), env.hunt, env.def); err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to install hunt", err)
			}
			puzzles, err := env.hunt.GetPuzzles(cmd.Context())
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read puzzles", err)
			}

			return f.Success(
				fmt.Sprintf("Initialized %s for hunt %q (%d puzzles)", env.cfg.Database.Path, env.def.Name(), len(puzzles)),
				InitDBResult{Database: env.cfg.Database.Path, Hunt: env.def.Name(), Puzzles: puzzles},
			)
		},
	}
}

// NewResetHuntCommand creates the resethunt command.
func NewResetHuntCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resethunt",
		Short: "Delete all hunt progress",
		Long: `Delete every submission, visibility, visibility change and team
property, and clear run start times. Teams, puzzles and users are kept.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			env, err := openEnvironment(rootOpts, f)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.store.ResetHunt(cmd.Context()); err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to reset hunt", err)
			}
			return f.Success("Hunt reset", map[string]bool{"reset": true})
		},
	}
}

// NewAddTeamCommand creates the addteam command.
func NewAddTeamCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		email      string
		properties map[string]string
	)

	cmd := &cobra.Command{
		Use:   "addteam <team-id>",
		Short: "Register a team",
		Example: `  cube addteam testerteam --email team@example.com
  cube addteam otherteam --property hints=3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			env, err := openEnvironment(rootOpts, f)
			if err != nil {
				return err
			}
			defer env.Close()

			team := model.Team{TeamID: args[0], Email: email, Properties: properties}
			added, err := env.hunt.AddTeam(cmd.Context(), team)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to add team", err)
			}
			if !added {
				return f.Fail(ExitFailure, ErrCodeDuplicate, fmt.Sprintf("team %q already exists", team.TeamID), nil)
			}
			return f.Success(fmt.Sprintf("Added team %s", team.TeamID), team)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "team contact email")
	cmd.Flags().StringToStringVar(&properties, "property", nil, "team property key=value (repeatable)")

	return cmd
}

// NewSetTeamPropertyCommand creates the setteamproperty command.
func NewSetTeamPropertyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "setteamproperty <team-id> <key> <value>",
		Short:         "Set one property of an existing team",
		Example:       `  cube setteamproperty testerteam hints 3`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			teamID, key, value := args[0], args[1], args[2]
			if key == "" {
				return f.Fail(ExitCommandError, ErrCodeArgument, "empty property key", nil)
			}

			env, err := openEnvironment(rootOpts, f)
			if err != nil {
				return err
			}
			defer env.Close()

			err = env.hunt.SetTeamProperty(cmd.Context(), teamID, key, value)
			if errors.Is(err, store.ErrNotFound) {
				return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("team %q not found", teamID), nil)
			}
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to set team property", err)
			}
			return f.Success(
				fmt.Sprintf("Set %s=%s for team %s", key, value, teamID),
				map[string]string{"teamId": teamID, "key": key, "value": value},
			)
		},
	}
}

// NewAddUserCommand creates the adduser command.
func NewAddUserCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		password string
		roles    []string
	)

	cmd := &cobra.Command{
		Use:   "adduser <username>",
		Short: "Create a login",
		Example: `  cube adduser admin --password secret --role admin
  cube adduser writer --password secret --role writingteam`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			for _, role := range roles {
				if strings.TrimSpace(role) == "" {
					return f.Fail(ExitCommandError, ErrCodeArgument, "empty role", nil)
				}
			}

			env, err := openEnvironment(rootOpts, f)
			if err != nil {
				return err
			}
			defer env.Close()

			user := model.User{Username: args[0], Roles: roles}
			added, err := store.NewUserStore(env.store).AddUser(cmd.Context(), user, password)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to add user", err)
			}
			if !added {
				return f.Fail(ExitFailure, ErrCodeDuplicate, fmt.Sprintf("user %q already exists", user.Username), nil)
			}
			return f.Success(fmt.Sprintf("Added user %s %v", user.Username, roles), user)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "login password (required)")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to grant, e.g. admin or writingteam (repeatable)")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewVisibilityChangesCommand creates the visibilitychanges command.
func NewVisibilityChangesCommand(rootOpts *RootOptions) *cobra.Command {
	var team, puzzle string

	cmd := &cobra.Command{
		Use:           "visibilitychanges",
		Short:         "Print the visibility change history",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			env, err := openEnvironment(rootOpts, f)
			if err != nil {
				return err
			}
			defer env.Close()

			var changes []model.VisibilityChange
			if team != "" && puzzle != "" {
				changes, err = env.hunt.GetVisibilityChangesFor(cmd.Context(), team, puzzle)
			} else {
				changes, err = env.hunt.GetVisibilityChanges(cmd.Context())
			}
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read visibility changes", err)
			}
			changes = filterChanges(changes, team, puzzle)

			var b strings.Builder
			for _, c := range changes {
				fmt.Fprintf(&b, "%d\t%s\t%s/%s\t%s -> %s\n",
					c.Seq, c.Timestamp.Format(time.RFC3339), c.TeamID, c.PuzzleID, c.OldStatus, c.NewStatus)
			}
			fmt.Fprintf(&b, "%d change(s)", len(changes))
			return f.Success(b.String(), changes)
		},
	}

	cmd.Flags().StringVar(&team, "team", "", "only changes for this team")
	cmd.Flags().StringVar(&puzzle, "puzzle", "", "only changes for this puzzle")

	return cmd
}

func filterChanges(changes []model.VisibilityChange, team, puzzle string) []model.VisibilityChange {
	out := changes[:0]
	for _, c := range changes {
		if team != "" && c.TeamID != team {
			continue
		}
		if puzzle != "" && c.PuzzleID != puzzle {
			continue
		}
		out = append(out, c)
	}
	return out
}
