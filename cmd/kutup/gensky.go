package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uygaratabay1015-boop/kutupp/internal/skygen"
)

func newGenSkyCmd() *cobra.Command {
	var (
		opts     = skygen.DefaultOptions()
		position string
		bg       int
	)

	cmd := &cobra.Command{
		Use:   "gen-sky <output>",
		Short: "Generate a synthetic night-sky frame for testing",
		Long: `Draws a dark frame with random stars in the lower part, a bright Polaris
near the top and a few dim neighbours around it. The output format follows
the file extension (.png or .jpg).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := skygen.ParsePosition(position)
			if err != nil {
				return err
			}
			if bg < 0 || bg > 255 {
				return fmt.Errorf("background %d outside 0-255", bg)
			}
			opts.Position = p
			opts.Background = uint8(bg)

			sky, err := skygen.Generate(opts)
			if err != nil {
				return err
			}
			if err := sky.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d), Polaris at (%d, %d)\n",
				args[0], opts.Width, opts.Height, sky.PolarisX, sky.PolarisY)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", opts.Width, "Frame width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", opts.Height, "Frame height in pixels")
	cmd.Flags().IntVar(&opts.Stars, "stars", opts.Stars, "Number of background stars")
	cmd.Flags().StringVar(&position, "position", string(opts.Position), "Polaris position: top_center, top_left or top_right")
	cmd.Flags().IntVar(&bg, "background", int(opts.Background), "Sky background luminance (0-255)")
	cmd.Flags().Float64Var(&opts.BlurSigma, "blur", opts.BlurSigma, "Gaussian blur sigma (0 disables)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", opts.Seed, "Random seed")

	return cmd
}
