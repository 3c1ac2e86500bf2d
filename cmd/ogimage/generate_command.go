package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/ogimage"
	"github.com/3-lines-studio/ogimage/internal/adapters/cli"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string
	var strict bool
	var noCapture bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Strip directives and write og:images for every page in the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := outputDir(cfg, dirFlag)
			if err != nil {
				return err
			}

			output := newOutput(cmd.OutOrStdout())
			output.PrintHeader("ogimage generate")

			opts, err := ctx.generatorOptions(cmd)
			if err != nil {
				return err
			}
			opts = append(opts, ogimage.WithProgress(cli.NewCaptureProgress(output)))
			if noCapture {
				opts = append(opts, ogimage.WithCapture(false))
			}

			gen, err := ogimage.New(dir, opts...)
			if err != nil {
				return err
			}
			defer func() { _ = gen.Close() }()

			res, err := gen.GenerateDir(cmd.Context())
			if err != nil {
				output.PrintError("%v", err)
				return err
			}

			output.PrintStep("Scanned %d pages, %d with an og:image", res.Pages, res.Images)
			if len(res.Rendered) > 0 {
				output.PrintSuccess("Rendered %d vector images", len(res.Rendered))
				for _, rel := range res.Rendered {
					output.PrintFile(rel)
				}
			}
			for _, f := range res.Failed {
				output.PrintWarning("%s: %v", f.Route, f.Err)
			}
			cli.RenderCaptureSummary(output, res.Report)

			if (strict || cfg.Capture.Strict) && len(res.Failed) > 0 {
				return fmt.Errorf("%d og:images could not be rendered", len(res.Failed))
			}
			if (strict || cfg.Capture.Strict) && res.Report.HasFailures() {
				if res.Report.Err != nil {
					return fmt.Errorf("og:image capture failed: %w", res.Report.Err)
				}
				return fmt.Errorf("%d of %d og:image screenshots failed", res.Report.Failed(), len(res.Report.Results))
			}

			output.PrintDone("Done")
			return nil
		},
	}

	cmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Output directory (defaults to output_dir)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any screenshot fails")
	cmd.Flags().BoolVar(&noCapture, "no-capture", false, "Skip browser screenshots")
	return cmd
}
