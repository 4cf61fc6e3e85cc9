// Package main plans a single trajectory through a scenario described in a JSON file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/metaplanner/dynamics"
	"go.viam.com/metaplanner/logging"
	"go.viam.com/metaplanner/motionplan"
	"go.viam.com/metaplanner/space"
)

const (
	// Flags.
	flagPlanner  = "planner"
	flagBudget   = "budget"
	flagLogLevel = "log-level"
	flagSeed     = "seed"
	flagTiming   = "timing"
	flagLogFile  = "log-file"

	plannerRace = "race"
)

// scenario is the contents of a scenario file.
type scenario struct {
	Space          space.BoxConfig        `json:"space"`
	MaxSpeed       float64                `json:"max_speed"`
	Start          r3.Vector              `json:"start"`
	Stop           r3.Vector              `json:"stop"`
	StartTime      float64                `json:"start_time"`
	PlannerOptions map[string]interface{} `json:"planner_options"`
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "cmd-plan",
		Usage:     "plan a trajectory through a box of moving obstacles",
		ArgsUsage: "<scenario.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagPlanner,
				Value: string(motionplan.AStarPlanner),
				Usage: "planner to run: astar, rrt or race",
			},
			&cli.DurationFlag{
				Name:  flagBudget,
				Value: 5 * time.Second,
				Usage: "wall clock planning budget",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "one of debug, info, warn or error",
			},
			&cli.IntFlag{
				Name:  flagSeed,
				Usage: "random seed, overriding the scenario's planner options",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write JSON logs to this file",
			},
			&cli.BoolFlag{
				Name:  flagTiming,
				Usage: "print time spent in each planner operation",
			},
		},
		Action: runPlan,
	}
}

func runPlan(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("need exactly one scenario file")
	}

	logger := logging.NewLogger("cmd-plan")
	if path := c.String(flagLogFile); path != "" {
		var closer io.Closer
		logger, closer = logging.NewFileLogger("cmd-plan", path)
		defer utils.UncheckedErrorFunc(closer.Close)
	}
	level, err := logging.LevelFromString(c.String(flagLogLevel))
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	logger.Infof("reading scenario from %s", c.Args().First())
	sc, err := readScenario(c.Args().First())
	if err != nil {
		return err
	}

	box, err := space.NewProbabilisticBox(sc.Space)
	if err != nil {
		return errors.Wrap(err, "invalid space")
	}
	pm, err := dynamics.NewPointMass(sc.MaxSpeed)
	if err != nil {
		return err
	}
	opts, err := motionplan.NewPlannerOptionsFromExtra(sc.PlannerOptions)
	if err != nil {
		return err
	}
	if c.IsSet(flagSeed) {
		opts.RandomSeed = c.Int(flagSeed)
	}

	planners, err := newPlanners(c.String(flagPlanner), box, pm, opts, logger)
	if err != nil {
		return err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	budget := c.Duration(flagBudget)
	start := time.Now()
	var traj *motionplan.Trajectory
	if len(planners) == 1 {
		traj, err = planners[0].Plan(ctx, sc.Start, sc.Stop, sc.StartTime, budget)
	} else {
		traj, err = motionplan.Race(ctx, planners, sc.Start, sc.Stop, sc.StartTime, budget)
	}
	if err != nil {
		return err
	}
	logger.Infof("planning took %v", time.Since(start))

	if _, err := fmt.Fprintln(c.App.Writer, trajectoryTable(traj)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.App.Writer, "duration: %.3f path length: %.3f max collision probability: %.4f\n",
		traj.Duration(), traj.PathLength(), traj.MaxCollisionProbability()); err != nil {
		return err
	}

	if c.Bool(flagTiming) {
		for _, mp := range planners {
			if err := writeTiming(c.App.Writer, mp); err != nil {
				return err
			}
		}
	}
	return nil
}

func readScenario(path string) (*scenario, error) {
	//nolint:gosec
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := &scenario{}
	if err := json.Unmarshal(content, sc); err != nil {
		return nil, errors.Wrapf(err, "cannot parse scenario %s", path)
	}
	return sc, nil
}

func newPlanners(
	name string,
	s space.Space,
	d dynamics.Dynamics,
	opts *motionplan.PlannerOptions,
	logger logging.Logger,
) ([]motionplan.Planner, error) {
	types := []motionplan.PlannerType{motionplan.PlannerType(name)}
	if name == plannerRace {
		types = []motionplan.PlannerType{motionplan.AStarPlanner, motionplan.RRTPlanner}
	}
	planners := make([]motionplan.Planner, 0, len(types))
	for _, pt := range types {
		mp, err := motionplan.NewPlanner(pt, s, d, opts, logger.Sublogger(string(pt)))
		if err != nil {
			return nil, err
		}
		planners = append(planners, mp)
	}
	return planners, nil
}

// trajectoryTable prints one row per waypoint.
func trajectoryTable(traj *motionplan.Trajectory) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Time", "Position", "Velocity", "Collision Probability"})
	times := traj.Times()
	probs := traj.CollisionProbabilities()
	for i, state := range traj.States() {
		p := dynamics.Position(state)
		velocity := ""
		if len(state) >= 6 {
			velocity = fmt.Sprintf("X:%.3f Y:%.3f Z:%.3f", state[3], state[4], state[5])
		}
		t.AppendRow(table.Row{
			i,
			fmt.Sprintf("%.3f", times[i]),
			fmt.Sprintf("X:%.3f Y:%.3f Z:%.3f", p.X, p.Y, p.Z),
			velocity,
			fmt.Sprintf("%.4f", probs[i]),
		})
	}
	return t.Render()
}

func writeTiming(w io.Writer, mp motionplan.Planner) error {
	metered, ok := mp.(interface{ Meta() *motionplan.PlanMeta })
	if !ok {
		return nil
	}
	return metered.Meta().OutputTiming(w)
}
