package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/dmi-forecast/internal/forecast"
)

// window is the --from/--to pair shared by the query commands. Empty bounds
// default to the forecast's own span.
type window struct {
	from, to string
}

func (w *window) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.from, "from", "", "window start (RFC3339); defaults to the first point")
	cmd.Flags().StringVar(&w.to, "to", "", "window end (RFC3339); defaults to the last point")
}

func (w *window) resolve(f *forecast.Forecast) (time.Time, time.Time, error) {
	start, end := f.TimeSpan()
	var err error
	if w.from != "" {
		if start, err = time.Parse(time.RFC3339, w.from); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if w.to != "" {
		if end, err = time.Parse(time.RFC3339, w.to); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
	}
	return start, end, nil
}

func fetchOnce(ctx context.Context) (*app, *forecast.Forecast, error) {
	a, err := setup()
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	snap, err := a.service.Refresh(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	return a, snap.Forecast, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sliceCmd() *cobra.Command {
	var w window

	cmd := &cobra.Command{
		Use:   "slice",
		Short: "Summarize a window of the current forecast",
		Long:  "Fetch the forecast once and print average temperature, precipitation and precipitation types for a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, f, err := fetchOnce(cmd.Context())
			if err != nil {
				return err
			}
			defer a.log.Sync()

			start, end, err := w.resolve(f)
			if err != nil {
				return err
			}

			slice, err := f.ValuesInRange(start, end)
			if err != nil {
				return err
			}

			out := struct {
				forecast.Slice
				DurationSeconds      float64  `json:"durationSeconds"`
				PrecipitationPerHour *float64 `json:"precipitationPerHour"`
			}{
				Slice:           slice,
				DurationSeconds: slice.Duration().Seconds(),
			}
			rate, err := slice.PrecipitationPerHour()
			switch {
			case err == nil:
				out.PrecipitationPerHour = &rate
			case !errors.Is(err, forecast.ErrZeroDuration):
				return err
			}
			return printJSON(out)
		},
	}
	w.register(cmd)
	return cmd
}

func pointsCmd() *cobra.Command {
	var (
		w    window
		clip bool
	)

	cmd := &cobra.Command{
		Use:   "points",
		Short: "Print the hourly points of the current forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, f, err := fetchOnce(cmd.Context())
			if err != nil {
				return err
			}
			defer a.log.Sync()

			start, end, err := w.resolve(f)
			if err != nil {
				return err
			}

			points := []forecast.PredictionPoint{}
			if clip {
				for p := range f.PredictionsWithin(start, end) {
					points = append(points, p)
				}
				return printJSON(points)
			}

			seq, err := f.PredictionsInRange(start, end)
			if err != nil {
				return err
			}
			for p := range seq {
				points = append(points, p)
			}
			return printJSON(points)
		},
	}
	w.register(cmd)
	cmd.Flags().BoolVar(&clip, "clip", false, "narrow a window reaching past the forecast instead of failing")
	return cmd
}
