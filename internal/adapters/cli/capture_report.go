package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/3-lines-studio/ogimage/internal/core"
)

// CaptureProgress prints one tree line per captured screenshot.
type CaptureProgress struct {
	output *Output
}

func NewCaptureProgress(output *Output) *CaptureProgress {
	return &CaptureProgress{output: output}
}

func (p *CaptureProgress) CaptureStarted(total int) {
	p.output.PrintStep("Pre-rendering %d og:image screenshots...", total)
}

func (p *CaptureProgress) CaptureProgress(index, total int, result core.CaptureResult) {
	line := FormatProgressLine(index, total, result.OutputPath, result.Elapsed)
	if result.Success() {
		fmt.Fprintln(p.output.out, p.output.Gray(line))
		return
	}
	fmt.Fprintln(p.output.out, p.output.Red(line))
}

func FormatProgressLine(index, total int, relPath string, elapsed time.Duration) string {
	branch := "├─"
	if index == total-1 {
		branch = "└─"
	}
	percent := 100
	if total > 0 {
		percent = int(math.Round(float64(index+1) / float64(total) * 100))
	}
	return fmt.Sprintf("  %s %s (%dms) %d%%", branch, relPath, elapsed.Milliseconds(), percent)
}

// RenderCaptureSummary prints the outcome of a capture batch: a single line
// when everything succeeded, the failed jobs otherwise.
func RenderCaptureSummary(output *Output, report core.CaptureReport) {
	if report.Skipped() {
		fmt.Fprintf(output.out, "  %s\n", output.Gray("og:image capture skipped: "+report.SkipReason))
		return
	}

	if report.Err != nil {
		fmt.Fprintf(output.errOut, "  "+output.Red("✗ ")+"og:image capture failed: %v\n", report.Err)
	}

	if len(report.Results) > 0 && report.Failed() == 0 {
		fmt.Fprintf(output.out, "  "+output.Green("✓ ")+"%d og:image screenshots captured in %s\n",
			len(report.Results), formatDuration(report.Elapsed))
	} else if report.Failed() > 0 {
		fmt.Fprintln(output.out)
		fmt.Fprintf(output.errOut, "  "+output.Red("✗ ")+"Failed screenshots (%d of %d):\n", report.Failed(), len(report.Results))
		for _, res := range report.Results {
			if res.Success() {
				continue
			}
			fmt.Fprintf(output.out, "  %s %s\n", output.Red("✗"), res.Spec.Path)
			fmt.Fprintf(output.out, "      • %s\n", res.Err)
		}
	}

	if report.CleanupErr != nil {
		fmt.Fprintf(output.out, "  "+output.Yellow("⚠ ")+"cleanup: %v\n", report.CleanupErr)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.1fs", float64(d)/float64(time.Second))
}
