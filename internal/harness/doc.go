// Package harness replays hunt scenarios against the real engine.
//
// A scenario names a hunt variant, the teams taking part, a list of steps
// (hunt start, submissions, grading, releases, visibility overrides, timer
// ticks) and assertions on the final state. Each run gets a fresh in-memory
// database, a stepping wall clock and sequential cascade tokens, so the
// visibility change log it produces is reproducible and can be compared with
// a golden file.
//
// # Scenario Format
//
//	name: linear_hunt_run
//	description: "Solving puzzle1 opens puzzle2"
//	hunt: linear
//	hunt_file: ../hunts/short.cue    # optional, relative to the scenario
//	teams: [testerteam, otherteam]
//	steps:
//	  - hunt_start: development
//	  - submit: { team: testerteam, puzzle: puzzle1, answer: guess }
//	    changed: true
//	  - grade: { submission: 1, status: CORRECT }
//	  - full_release: { run: development, puzzle: puzzle5 }
//	  - set_visibility: { team: otherteam, puzzle: puzzle3, status: VISIBLE }
//	  - tick: 1h
//	assertions:
//	  - type: visibility
//	    team: testerteam
//	    puzzle: puzzle2
//	    status: UNLOCKED
//	  - type: change_order
//	    team: testerteam
//	    puzzle: puzzle1
//	    statuses: [UNLOCKED, SOLVED]
//
// # Assertion Types
//
//   - visibility: current status of one (team, puzzle) pair
//   - submission: current status of one submission
//   - change_count: number of history entries, optionally filtered by team
//     and puzzle
//   - change_order: exact sequence of new statuses recorded for one pair
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/linear_hunt_run.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
package harness
