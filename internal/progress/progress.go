// Package progress wraps github.com/cheggaaa/pb/v3 for the CLI's
// human-facing package counter, in place of the teacher's own
// fmt.Printf("\r%d/%d") progress line in install/install.go. --quiet and
// non-terminal stdout both disable it, matching pb's own AutoDetect
// behavior.
package progress

import (
	"io"

	"github.com/cheggaaa/pb/v3"
)

// Reporter tracks completed units against a known total. A nil *Reporter
// is safe to call Increment/Finish on, so callers don't need to branch on
// whether progress reporting is enabled.
type Reporter struct {
	bar *pb.ProgressBar
}

// New starts a bar over total units, writing to out. Pass io.Discard to
// suppress output while still counting; with quiet set, New returns a nil
// *Reporter and nothing is counted.
func New(total int, quiet bool, out io.Writer) *Reporter {
	if quiet {
		return nil
	}
	bar := pb.New(total)
	bar.SetWriter(out)
	bar.SetTemplateString(`{{counters . }} packages {{bar . }} {{percent . }} {{etime . }}`)
	bar.Start()
	return &Reporter{bar: bar}
}

func (r *Reporter) Increment() {
	if r == nil {
		return
	}
	r.bar.Increment()
}

func (r *Reporter) Finish() {
	if r == nil {
		return
	}
	r.bar.Finish()
}
