package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/uygaratabay1015-boop/kutupp/internal/history"
	"github.com/uygaratabay1015-boop/kutupp/internal/imaging"
	"github.com/uygaratabay1015-boop/kutupp/internal/pipeline"
	"github.com/uygaratabay1015-boop/kutupp/internal/places"
)

type analyzeOpts struct {
	imagePath    string
	profile      string
	fov          float64
	azimuth      *float64
	maxDimension int
	outputFmt    string
	annotatePath string
	geojsonPath  string
	record       bool
	note         string
}

func newAnalyzeCmd(load configLoader) *cobra.Command {
	var (
		opts    analyzeOpts
		azimuth float64
	)

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Estimate latitude from a photograph",
		Long: `Detects stars, selects Polaris and estimates latitude. The camera must be
level, facing north, with its vertical field of view known.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.imagePath = args[0]
			if cmd.Flags().Changed("azimuth") {
				opts.azimuth = &azimuth
			}
			if !cmd.Flags().Changed("max-dimension") {
				opts.maxDimension = -1
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cfg.History.Path, func() (pipeline.Options, error) {
				return pipeline.OptionsFromConfig(cfg, opts.profile)
			}, opts)
		},
	}

	cmd.Flags().StringVar(&opts.profile, "profile", "", "Camera profile from the configuration file")
	cmd.Flags().Float64Var(&opts.fov, "fov", 0, "Vertical field of view in degrees (default: from configuration)")
	cmd.Flags().Float64Var(&azimuth, "azimuth", 0, "Compass heading of the camera in degrees")
	cmd.Flags().IntVar(&opts.maxDimension, "max-dimension", 0, "Downscale frames larger than this before detection")
	cmd.Flags().StringVar(&opts.outputFmt, "output", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.annotatePath, "annotate", "", "Write an annotated PNG to this path")
	cmd.Flags().StringVar(&opts.geojsonPath, "geojson", "", "Write the latitude band as GeoJSON to this path")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Store the result in the observation history")
	cmd.Flags().StringVar(&opts.note, "note", "", "Note stored with a recorded observation")

	return cmd
}

func runAnalyze(ctx context.Context, w io.Writer, historyPath string, options func() (pipeline.Options, error), opts analyzeOpts) error {
	if opts.outputFmt != "text" && opts.outputFmt != "json" {
		return fmt.Errorf("unknown output format %q (want text or json)", opts.outputFmt)
	}
	if opts.record && historyPath == "" {
		return fmt.Errorf("--record needs history.path in the configuration file")
	}

	po, err := options()
	if err != nil {
		return err
	}
	if opts.fov != 0 {
		po.VerticalFOV = opts.fov
	}
	if opts.maxDimension >= 0 {
		po.Prepare.MaxDimension = opts.maxDimension
	}
	po.Azimuth = opts.azimuth

	img, err := imaging.NewFrameCache().Load(opts.imagePath)
	if err != nil {
		return err
	}
	log.Printf("analyzing %s (%dx%d, fov %.1f°)", opts.imagePath, img.Bounds().Dx(), img.Bounds().Dy(), po.VerticalFOV)

	report, err := pipeline.Analyze(img, po)
	if err != nil {
		return err
	}
	log.Printf("detected %d stars", report.StarCount)

	if opts.annotatePath != "" {
		if err := writeAnnotated(opts.annotatePath, img, report); err != nil {
			return err
		}
	}
	if opts.geojsonPath != "" && report.Found {
		data, err := places.BandGeoJSON(report.Latitude.Latitude, report.Latitude.ErrorMargin, places.TurkeyBound, places.TurkeyCities)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.geojsonPath, data, 0644); err != nil {
			return fmt.Errorf("writing GeoJSON: %w", err)
		}
	}

	var observationID string
	if opts.record && report.Found {
		store, err := history.Open(historyPath)
		if err != nil {
			return err
		}
		defer store.Close()
		obs, err := store.Record(ctx, history.Observation{
			Source:      opts.imagePath,
			Result:      *report.Latitude,
			Polaris:     *report.Polaris,
			Score:       report.Score,
			ImageWidth:  report.Width,
			ImageHeight: report.Height,
			VerticalFOV: report.VerticalFOV,
			Azimuth:     opts.azimuth,
			Note:        opts.note,
		})
		if err != nil {
			return err
		}
		observationID = obs.ID
	}

	if opts.outputFmt == "json" {
		return writeJSON(w, struct {
			*pipeline.Report
			ObservationID string `json:"observation_id,omitempty"`
		}{report, observationID})
	}

	printReport(w, report)
	if observationID != "" {
		fmt.Fprintf(w, "\nRecorded as %s\n", observationID)
	}
	if !report.Found {
		return fmt.Errorf("no stars found in %s", opts.imagePath)
	}
	return nil
}

func printReport(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "Frame: %dx%d, vertical FOV %.1f°\n", r.Width, r.Height, r.VerticalFOV)
	if r.Heading != nil {
		fmt.Fprintf(w, "Heading: %.1f° (%s)\n", r.Heading.Azimuth, r.Heading.Cardinal)
	}
	fmt.Fprintf(w, "Stars detected: %d\n", r.StarCount)

	if r.Found {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top candidates:")
		for i, c := range r.Candidates {
			fmt.Fprintf(w, "  %d. (%7.1f, %7.1f)  brightness %5.1f  score %.3f\n",
				i+1, c.Star.X, c.Star.Y, c.Star.Brightness, c.TotalScore)
		}

		lat := r.Latitude
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Polaris: (%.1f, %.1f), score %.2f\n", r.Polaris.X, r.Polaris.Y, r.Score)
		fmt.Fprintf(w, "Latitude: %.2f° ± %.2f°\n", lat.Latitude, lat.ErrorMargin)
		fmt.Fprintf(w, "Range: %.2f° to %.2f°\n", lat.LowerBound, lat.UpperBound)

		if c := r.NearestCity; c != nil {
			mark := ""
			if c.InRange {
				mark = " (within margin)"
			}
			fmt.Fprintf(w, "Nearest city: %s (%.2f°N, %.2f° away)%s\n", c.City.Name, c.City.Lat(), c.Distance, mark)
		}
	}

	if r.Sky != nil {
		fmt.Fprintf(w, "Sky: %s (median %.0f, tint %s)\n", r.Sky.Condition, r.Sky.Median, r.Sky.Tint)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
	}
}

func writeAnnotated(path string, img image.Image, r *pipeline.Report) error {
	label := "no stars detected"
	if r.Found {
		label = fmt.Sprintf("lat %.2f +/- %.2f", r.Latitude.Latitude, r.Latitude.ErrorMargin)
	}
	annotated, err := imaging.Annotate(img, imaging.AnnotateOptions{
		Scores:  r.Candidates,
		Polaris: r.Polaris,
		Label:   label,
		Horizon: true,
	})
	if err != nil {
		return err
	}
	data, err := base64.StdEncoding.DecodeString(annotated.ImageBase64)
	if err != nil {
		return fmt.Errorf("decoding annotated image: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing annotated image: %w", err)
	}
	log.Printf("wrote annotated frame to %s", path)
	return nil
}
