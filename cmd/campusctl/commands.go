package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/campusnav/pkg/calibration"
	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/constraints"
	"github.com/dd0wney/campusnav/pkg/routing"
	"github.com/dd0wney/campusnav/pkg/snapshot"
)

var errValidationFailed = errors.New("validation failed")

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <location>",
		Short: "Check a campus snapshot for errors and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := constraints.DefaultValidator(opts.shortSegmentM).Validate(doc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, result); err != nil {
					return err
				}
			} else {
				renderValidation(out, args[0], result)
			}
			if !result.Valid {
				return errValidationFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the validation result as JSON")
	return cmd
}

func newRouteCmd(opts *rootOptions) *cobra.Command {
	var (
		prefs  routing.Preferences
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "route <location> <building> <building> [building...]",
		Short: "Plan a walking route through buildings in order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.build(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			planner := routing.NewPlanner(routing.WithCost(prefs.Cost(routing.WalkingTime)))
			it, err := planner.ComposeRoute(snap.Graph, args[1:])
			if err != nil {
				if kind := routing.ErrorKind(err); kind != "" {
					return fmt.Errorf("%s: %w", kind, err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, it)
			}
			renderItinerary(out, snap.Graph, it)
			return nil
		},
	}
	cmd.Flags().BoolVar(&prefs.AvoidStairs, "avoid-stairs", false, "Never take edges with stairs")
	cmd.Flags().BoolVar(&prefs.AccessibleOnly, "accessible-only", false, "Only take accessible edges")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the itinerary as JSON")
	return cmd
}

// parsePoint reads "x,y" pixel coordinates
func parsePoint(s string) (calibration.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return calibration.Point{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return calibration.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return calibration.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return calibration.Point{X: x, Y: y}, nil
}

func newCalibrateCmd(opts *rootOptions) *cobra.Command {
	var (
		p1, p2 string
		meters float64
		write  bool
	)

	cmd := &cobra.Command{
		Use:   "calibrate <location>",
		Short: "Set px_per_meter from two map points a known distance apart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parsePoint(p1)
			if err != nil {
				return err
			}
			b, err := parsePoint(p2)
			if err != nil {
				return err
			}

			store, err := opts.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			g, err := campus.FromDocument(doc)
			if err != nil {
				return err
			}
			before := g.Settings().PxPerMeter
			ratio, err := calibration.FromTwoPoints(g, a, b, meters)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "px_per_meter: %.4f -> %.4f\n", before, ratio)
			if !write {
				fmt.Fprintln(out, mutedStyle.Render("dry run, pass --write to save"))
				return nil
			}
			if err := store.Save(cmd.Context(), g.Document()); err != nil {
				return err
			}
			fmt.Fprintln(out, successStyle.Render("saved "+args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&p1, "p1", "", "First reference point as x,y pixels")
	cmd.Flags().StringVar(&p2, "p2", "", "Second reference point as x,y pixels")
	cmd.Flags().Float64Var(&meters, "meters", 0, "Real distance between the points")
	cmd.Flags().BoolVar(&write, "write", false, "Save the recalibrated document")
	cmd.MarkFlagRequired("p1")
	cmd.MarkFlagRequired("p2")
	cmd.MarkFlagRequired("meters")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <location>",
		Short: "Summarize a campus snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.build(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderStats(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

func newConvertCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "convert <from> <to>",
		Short: "Copy a campus snapshot between locations",
		Long: `convert loads the document at <from> and saves it to <to>. Locations
may use different backends, e.g. campus.json to campus.json.sz or to a
postgres:// URL. Invalid documents are refused unless --force is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := opts.load(ctx, args[0])
			if err != nil {
				return err
			}
			snap, err := snapshot.Build(doc, snapshot.BuildOptions{
				AllowInvalid:  force,
				ShortSegmentM: opts.shortSegmentM,
			})
			if err != nil {
				return err
			}

			dst, err := opts.open(ctx, args[1])
			if err != nil {
				return err
			}
			defer dst.Close()
			if err := dst.Save(ctx, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s) fingerprint %s\n",
				args[0], args[1], dst.Kind(), snap.Fingerprint)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Convert documents with validation errors")
	return cmd
}

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var prefs routing.Preferences

	cmd := &cobra.Command{
		Use:   "plan <location>",
		Short: "Pick stops interactively and plan a route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.build(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			planner := routing.NewPlanner(routing.WithCost(prefs.Cost(routing.WalkingTime)))
			return runPlanner(cmd.InOrStdin(), cmd.OutOrStdout(), snap.Graph, planner)
		},
	}
	cmd.Flags().BoolVar(&prefs.AvoidStairs, "avoid-stairs", false, "Never take edges with stairs")
	cmd.Flags().BoolVar(&prefs.AccessibleOnly, "accessible-only", false, "Only take accessible edges")
	return cmd
}
