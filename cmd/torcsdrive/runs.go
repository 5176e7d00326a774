package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/torcsdrive/internal/storage"
	"github.com/san-kum/torcsdrive/internal/viz"
)

// plotFields are the tick columns the plot command can chart.
var plotFields = map[string]func(storage.Tick) float64{
	"speed":    func(t storage.Tick) float64 { return t.SpeedX },
	"steer":    func(t storage.Tick) float64 { return t.Steer },
	"accel":    func(t storage.Tick) float64 { return t.Accel },
	"brake":    func(t storage.Tick) float64 { return t.Brake },
	"trackpos": func(t storage.Tick) float64 { return t.TrackPos },
	"angle":    func(t storage.Tick) float64 { return t.Angle },
	"gear":     func(t storage.Tick) float64 { return float64(t.Gear) },
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPOLICY\tPRESET\tTRACK\tEPISODES\tTICKS\tLAPS")
	for _, run := range runs {
		ticks, laps := 0, 0
		for _, ep := range run.Episodes {
			ticks += ep.Ticks
			laps += ep.Laps
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Policy,
			run.Preset,
			run.Track,
			len(run.Episodes),
			ticks,
			laps,
		)
	}
	return w.Flush()
}

func newPlotCmd() *cobra.Command {
	var (
		fields  []string
		episode int
		width   int
		height  int
	)
	plotCmd := &cobra.Command{
		Use:   "plot <run_id>",
		Short: "chart recorded ticks of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			ticks, err := st.LoadTicks(meta.ID)
			if err != nil {
				return err
			}
			if episode > 0 {
				ticks = filterEpisode(ticks, episode)
			}
			if len(ticks) == 0 {
				return fmt.Errorf("no data to plot")
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("policy: %s/%s on %s\n", meta.Policy, meta.Preset, meta.Track)
			fmt.Printf("ticks: %d\n\n", len(ticks))

			for _, field := range fields {
				get, ok := plotFields[field]
				if !ok {
					return fmt.Errorf("unknown field %q", field)
				}
				series := make([]float64, len(ticks))
				for i, t := range ticks {
					series[i] = get(t)
				}
				fmt.Println(viz.Chart(series, field+" vs tick", width, height))
				fmt.Println()
			}
			return nil
		},
	}
	plotCmd.Flags().StringSliceVar(&fields, "field", []string{"speed", "steer"}, "columns to chart: speed, steer, accel, brake, trackpos, angle, gear")
	plotCmd.Flags().IntVar(&episode, "episode", 0, "only chart this episode")
	plotCmd.Flags().IntVar(&width, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&height, "height", 10, "chart height")
	return plotCmd
}

func filterEpisode(ticks []storage.Tick, episode int) []storage.Tick {
	out := ticks[:0:0]
	for _, t := range ticks {
		if t.Episode == episode {
			out = append(out, t)
		}
	}
	return out
}

func newExportCmd() *cobra.Command {
	var out string
	exportCmd := &cobra.Command{
		Use:   "export <run_id>",
		Short: "export a run with its ticks as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if out == "" || out == "-" {
				return st.ExportJSON(os.Stdout, args[0])
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := st.ExportJSON(f, args[0]); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file, stdout when empty")
	return exportCmd
}
