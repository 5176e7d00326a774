package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/torcsdrive/internal/config"
	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/log"
	"github.com/san-kum/torcsdrive/internal/scenario"
	"github.com/san-kum/torcsdrive/internal/session"
	"github.com/san-kum/torcsdrive/internal/track"
)

// probeDistances are the positions the track command reports lookahead for.
var probeDistances = []float64{0, 100, 300, 500, 900, 1200}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list driving presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tTARGET\tSTEER\tCENTER\tTIGHT\tTRACTION\tSPIN")
			for _, name := range config.ListPresets() {
				c, _ := config.Preset(name)
				fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.2f\t%.2f\t%v\t%v\n",
					name, c.TargetSpeed, c.SteerGain, c.CenteringGain,
					c.BrakeThresholdTight, c.TractionControl, c.SpinPrevention)
			}
			return w.Flush()
		},
	}
}

func newPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "list driving policy variants",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range control.Variants() {
				marker := " "
				if name == control.DefaultVariant {
					marker = "*"
				}
				fmt.Printf("%s %-10s %s\n", marker, name, control.Describe(name))
			}
		},
	}
}

func newTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track [name]",
		Short: "show a segment table and what the lookahead sees",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := session.DefaultTrack
			if len(args) > 0 {
				name = args[0]
			}
			tm, err := loadTrack(name)
			if err != nil {
				return fmt.Errorf("%w (built in: %s)", err, strings.Join(track.Names(), ", "))
			}
			return printTrack(tm)
		},
	}
}

func printTrack(tm *track.Map) error {
	fmt.Printf("track: %s, %d segments, %.1f m\n\n", tm.Name(), tm.Len(), tm.Length())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SEGMENT\tKIND\tSTART\tLENGTH\tRADIUS\tBRAKE\t")
	for _, seg := range tm.Segments() {
		start, _ := tm.Start(seg.Name)
		radius := "-"
		if seg.HasRadius() {
			radius = fmt.Sprintf("%.1f", seg.Radius)
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\t%s\t%.2f\t\n",
			seg.Name, seg.Kind, start, seg.Length, radius, seg.BrakeThreshold)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nlookahead %.0f m:\n", track.DefaultLookahead)
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIST\tNEXT\tIN\tBRAKE\tCORNER SPEED")
	for _, d := range probeDistances {
		next, in := "-", "-"
		if c, ok := tm.Upcoming(d, track.DefaultLookahead); ok {
			next = fmt.Sprintf("%s (%s)", c.Name, c.Kind)
			in = fmt.Sprintf("%.1f", c.Distance)
		}
		speed := "-"
		if v, ok := tm.CornerSpeed(d); ok {
			speed = fmt.Sprintf("%.0f", v)
		}
		fmt.Fprintf(w, "%.0f\t%s\t%s\t%.2f\t%s\n", d, next, in, tm.AdaptiveBrake(d, 0), speed)
	}
	return w.Flush()
}

func newReplayCmd() *cobra.Command {
	var (
		sweep  bool
		rankBy string
	)
	replayCmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "drive scripted telemetry offline and check the commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := log.Init(logLevel, logFormat); err != nil {
				return err
			}
			defer log.Sync()

			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("policy") || lookahead {
				sc.Policy = policy
				if lookahead {
					sc.Policy = control.Lookahead
				}
			}
			if cmd.Flags().Changed("preset") {
				sc.Preset = preset
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if sweep {
				results, err := scenario.Sweep(ctx, sc, nil, nil)
				if err != nil {
					return err
				}
				if err := printSweep(results); err != nil {
					return err
				}
				if best, ok := scenario.Best(results, rankBy, true); ok {
					fmt.Printf("\nbest %s: %s/%s (%.3f)\n", rankBy, best.Policy, best.Preset, best.Metrics[rankBy])
				}
				return nil
			}

			report, err := scenario.Run(ctx, sc, log.Named("replay"))
			if err != nil {
				return err
			}
			printReport(report)
			if !report.Passed() {
				return fmt.Errorf("scenario %s: %d expectations failed", report.Name, report.Failures)
			}
			return nil
		},
	}
	replayCmd.Flags().BoolVar(&sweep, "sweep", false, "replay once per policy and preset and compare metrics")
	replayCmd.Flags().StringVar(&rankBy, "rank-by", "avg_speed", "metric the sweep maximizes among passing runs")
	return replayCmd
}

func printReport(r *scenario.Report) {
	fmt.Printf("scenario: %s (%s/%s), %d ticks\n", r.Name, r.Policy, r.Preset, r.Ticks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAME\tTICK\tSTEER\tACCEL\tBRAKE\tGEAR\tLAPS\tPHASE\tRESULT")
	for _, f := range r.Frames {
		result := "ok"
		if len(f.Failures) > 0 {
			result = strings.Join(f.Failures, "; ")
		}
		fmt.Fprintf(w, "%d\t%d\t%.3f\t%.3f\t%.3f\t%d\t%d\t%s\t%s\n",
			f.Frame, f.Tick, f.Command.Steer, f.Command.Accel, f.Command.Brake,
			f.Command.Gear, f.Memory.Laps, f.Memory.Phase, result)
	}
	_ = w.Flush()

	fmt.Println()
	for _, name := range sortedKeys(r.Metrics) {
		fmt.Printf("  %-14s %.3f\n", name, r.Metrics[name])
	}
}

func printSweep(results []scenario.SweepResult) error {
	if len(results) == 0 {
		return nil
	}
	names := sortedKeys(results[0].Metrics)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "POLICY\tPRESET\tFAILURES\t%s\n", strings.ToUpper(strings.Join(names, "\t")))
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d", r.Policy, r.Preset, r.Failures)
		for _, name := range names {
			fmt.Fprintf(w, "\t%.3f", r.Metrics[name])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
