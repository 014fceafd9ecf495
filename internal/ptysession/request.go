package ptysession

import "time"

// Defaults applied to zero-valued Request fields.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultCols      = 120
	DefaultRows      = 30
	DefaultInputWait = 500 * time.Millisecond

	// DefaultInitialDelay is how long the runner waits after spawn before
	// the first scripted input is considered.
	DefaultInitialDelay = time.Second

	// TimeoutExitCode is reported when the timer wins.
	TimeoutExitCode = 124
)

// TimeoutMarker is appended to the transcript of a timed-out session.
const TimeoutMarker = "\n[TIMEOUT: Command exceeded time limit]"

// Reason tells how a session ended.
type Reason string

const (
	ReasonNormal  Reason = "normal"
	ReasonTimeout Reason = "timeout"
)

// Input is one scripted keystroke payload. Send is written verbatim, so a
// caller that wants to press Enter includes "\r" or "\n" itself.
type Input struct {
	Wait time.Duration
	Send string
}

// Request describes a single PTY session.
type Request struct {
	Command string
	Args    []string
	// Cwd overrides the runner's default directory when non-empty.
	Cwd     string
	Timeout time.Duration
	Cols    uint16
	Rows    uint16
	Inputs  []Input
}

func (r Request) withDefaults() Request {
	if r.Timeout <= 0 {
		r.Timeout = DefaultTimeout
	}
	if r.Cols == 0 {
		r.Cols = DefaultCols
	}
	if r.Rows == 0 {
		r.Rows = DefaultRows
	}
	if len(r.Inputs) > 0 {
		inputs := make([]Input, len(r.Inputs))
		for i, in := range r.Inputs {
			if in.Wait <= 0 {
				in.Wait = DefaultInputWait
			}
			inputs[i] = in
		}
		r.Inputs = inputs
	}
	return r
}

// Result is the terminal outcome of a session.
type Result struct {
	SessionID string
	Output    string
	ExitCode  int
	Reason    Reason
	// Truncated is set when the transcript exceeded the runner's cap.
	Truncated bool
	Duration  time.Duration
}

// TimedOut reports whether the timer resolved the session.
func (r *Result) TimedOut() bool {
	return r.Reason == ReasonTimeout
}
