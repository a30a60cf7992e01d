package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/uygaratabay1015-boop/kutupp/internal/history"
)

func newHistoryCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded observations",
	}

	open := func() (*history.Store, error) {
		cfg, err := load()
		if err != nil {
			return nil, err
		}
		if cfg.History.Path == "" {
			return nil, fmt.Errorf("history is disabled; set history.path in the configuration file")
		}
		return history.Open(cfg.History.Path)
	}

	cmd.AddCommand(newHistoryListCmd(open), newHistorySummaryCmd(open))
	return cmd
}

func newHistoryListCmd(open func() (*history.Store, error)) *cobra.Command {
	var (
		limit     int
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List observations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			obs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if outputFmt == "json" {
				return writeJSON(cmd.OutOrStdout(), obs)
			}
			printObservations(cmd.OutOrStdout(), obs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum observations to show (0 for all)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	return cmd
}

func newHistorySummaryCmd(open func() (*history.Store, error)) *cobra.Command {
	var outputFmt string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Combine all observations into one weighted estimate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := store.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if outputFmt == "json" {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			w := cmd.OutOrStdout()
			if s.Count == 0 {
				fmt.Fprintln(w, "No observations recorded.")
				return nil
			}
			fmt.Fprintf(w, "Observations: %d\n", s.Count)
			fmt.Fprintf(w, "Weighted latitude: %.2f° ± %.2f°\n", s.WeightedLatitude, s.CombinedError)
			fmt.Fprintf(w, "Mean latitude: %.2f° (range %.2f° to %.2f°)\n", s.MeanLatitude, s.MinLatitude, s.MaxLatitude)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	return cmd
}

func printObservations(w io.Writer, obs []history.Observation) {
	if len(obs) == 0 {
		fmt.Fprintln(w, "No observations recorded.")
		return
	}
	for _, o := range obs {
		fmt.Fprintf(w, "%s  %s  %6.2f° ± %.2f°  %s", o.ID[:8], o.TakenAt.Local().Format("2006-01-02 15:04"),
			o.Result.Latitude, o.Result.ErrorMargin, o.Source)
		if o.Note != "" {
			fmt.Fprintf(w, "  (%s)", o.Note)
		}
		fmt.Fprintln(w)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
