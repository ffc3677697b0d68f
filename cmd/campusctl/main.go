// Command campusctl inspects, validates and routes over campus snapshots
// without running the server.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/constraints"
	"github.com/dd0wney/campusnav/pkg/snapshot"
)

type rootOptions struct {
	shortSegmentM float64
	s3            snapshot.S3Options
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "campusctl",
		Short: "Inspect, validate and route over campus snapshots",
		Long: `campusctl works directly on a campus snapshot location: a JSON file,
a snappy-compressed .sz file, a postgres:// URL or an s3:// URL.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.Float64Var(&opts.shortSegmentM, "short-segment-m", constraints.DefaultShortSegmentM, "Edges shorter than this many meters are reported")
	flags.StringVar(&opts.s3.Region, "s3-region", os.Getenv("CAMPUSNAV_S3_REGION"), "Region for s3:// locations")
	flags.StringVar(&opts.s3.Endpoint, "s3-endpoint", os.Getenv("CAMPUSNAV_S3_ENDPOINT"), "Endpoint for S3-compatible services")
	flags.BoolVar(&opts.s3.UsePathStyle, "s3-path-style", false, "Use path-style S3 addressing")

	rootCmd.AddCommand(
		newValidateCmd(opts),
		newRouteCmd(opts),
		newCalibrateCmd(opts),
		newStatsCmd(opts),
		newConvertCmd(opts),
		newPlanCmd(opts),
	)
	return rootCmd
}

// open returns the store for a location using the global S3 flags
func (o *rootOptions) open(ctx context.Context, location string) (snapshot.Store, error) {
	return snapshot.Open(ctx, location, snapshot.OpenOptions{S3: o.s3})
}

// load reads the document at location
func (o *rootOptions) load(ctx context.Context, location string) (*campus.Document, error) {
	store, err := o.open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx)
}

// build loads location into a snapshot. Invalid documents are accepted so
// broken campuses can still be inspected.
func (o *rootOptions) build(ctx context.Context, location string) (*snapshot.Snapshot, error) {
	doc, err := o.load(ctx, location)
	if err != nil {
		return nil, err
	}
	return snapshot.Build(doc, snapshot.BuildOptions{
		AllowInvalid:  true,
		ShortSegmentM: o.shortSegmentM,
		Source:        location,
	})
}
