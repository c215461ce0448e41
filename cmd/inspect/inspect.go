// Package inspect implements the inspect command: it prepares archives the
// way a scan would and prints the planned work without loading a model.
package inspect

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/seismo-go/internal/conf"
	"github.com/tphakala/seismo-go/internal/errors"
	"github.com/tphakala/seismo-go/internal/preprocess"
	"github.com/tphakala/seismo-go/internal/scan"
	"github.com/tphakala/seismo-go/internal/waveform"
)

// Command creates the inspect command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [archives.csv]",
		Short: "Show aligned groups and planned batches of each archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := conf.GetSettings()
			archives, err := waveform.ReadArchiveList(args[0])
			if err != nil {
				return err
			}
			params, err := scan.ParamsFromSettings(&settings.Scan)
			if err != nil {
				return err
			}
			return Inspect(cmd.Context(), os.Stdout, waveform.NewFileLoader(), archives, params, Options{
				Preprocess: preprocess.OptionsFromSettings(settings.Scan.Preprocess),
				Workers:    settings.Input.Workers,
			})
		},
	}
}

// Options controls archive preparation.
type Options struct {
	Preprocess preprocess.Options
	Workers    int
}

// Inspect writes one row per aligned group of every archive. Archives that
// cannot be prepared get a row with the reason and do not stop the listing.
func Inspect(ctx context.Context, w io.Writer, loader waveform.Loader, archives []waveform.Archive, params scan.Params, opts Options) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCHIVE\tGROUP\tCHANNELS\tRATE\tSTART\tSAMPLES\tBATCHES\tWINDOWS\tMEMORY")

	planned := make(map[int]scan.MemoryPlan)
	for _, archive := range archives {
		if err := ctx.Err(); err != nil {
			return err
		}
		groups, err := prepare(ctx, loader, archive, opts)
		if err != nil {
			if !scan.IsArchiveSkip(err) {
				return err
			}
			fmt.Fprintf(tw, "%d\t-\t-\t-\t-\t-\t-\t-\tskipped: %v\n", archive.Index, err)
			continue
		}

		for _, g := range groups {
			plan, ok := planned[g.Channels()]
			if !ok {
				plan = scan.PlanMemory(params, g.Channels())
				planned[g.Channels()] = plan
			}
			memory := "ok"
			if !plan.Fits() {
				memory = "exceeds half of available"
			}

			batches, windows := 0, 0
			for b := range scan.Batches(g.Len(), params.BatchSize) {
				batches++
				windows += params.WindowCount(b.Len())
			}
			fmt.Fprintf(tw, "%d\t%d\t%d\t%g\t%s\t%d\t%d\t%d\t%s\n",
				archive.Index, g.Index, g.Channels(), g.SamplingRate,
				g.Start.UTC().Format(time.RFC3339Nano), g.Len(), batches, windows, memory)
		}
	}
	return tw.Flush()
}

func prepare(ctx context.Context, loader waveform.Loader, archive waveform.Archive, opts Options) ([]*scan.AlignedGroup, error) {
	streams, err := waveform.LoadArchive(ctx, loader, archive, max(1, opts.Workers))
	if err != nil {
		return nil, err
	}
	if err := preprocess.Apply(streams, opts.Preprocess); err != nil {
		return nil, errors.New(err).
			Component("inspect").
			Category(errors.CategoryArchive).
			ArchiveContext(archive.Index, archive.Paths()).
			Build()
	}
	return scan.Align(streams)
}
