package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// JSON reports whether output is machine readable
func (o *Output) JSON() bool {
	return o.format == "json"
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.JSON() {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.JSON() {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		_, _ = fmt.Fprintln(o.errW, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.JSON() {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case AuthResult:
		o.printAuthResult(v)
	case MeResult:
		o.printMe(v)
	case EntriesResult:
		o.printEntries(v.Entries)
	case MutationResult:
		o.printEntries(v.Entries)
	case PlayResult:
		o.printPlayResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// AuthResult is the response for login (matches API)
type AuthResult struct {
	OK       bool   `json:"ok"`
	Mode     string `json:"mode"`
	Username string `json:"username"`
	Note     string `json:"note,omitempty"`
}

// MeUser identifies the signed-in user
type MeUser struct {
	Username string `json:"username"`
}

// MeResult is the response for me
type MeResult struct {
	User *MeUser `json:"user"`
}

// Entry is one saved score
type Entry struct {
	Name   string `json:"name"`
	TimeMs int64  `json:"timeMs"`
	Score  int64  `json:"score"`
	Ts     int64  `json:"ts"`
}

// EntriesResult is the response for scores list
type EntriesResult struct {
	Entries []Entry `json:"entries"`
}

// MutationResult is the response for score changes
type MutationResult struct {
	OK      bool    `json:"ok"`
	Entries []Entry `json:"entries"`
}

// PlayResult describes a finished round
type PlayResult struct {
	State       string  `json:"state"`
	RemainingMs int64   `json:"remainingMs"`
	Score       int64   `json:"score"`
	Saved       bool    `json:"saved"`
	Entries     []Entry `json:"entries,omitempty"`
}

// HealthResult is the response for health
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printAuthResult(a AuthResult) {
	if a.Mode == "register" {
		_, _ = fmt.Fprintf(o.w, "Registered as %s\n", a.Username)
	} else {
		_, _ = fmt.Fprintf(o.w, "Logged in as %s\n", a.Username)
	}
	if a.Note != "" {
		_, _ = fmt.Fprintln(o.w, a.Note)
	}
}

func (o *Output) printMe(m MeResult) {
	if m.User == nil {
		_, _ = fmt.Fprintln(o.w, "Not logged in")
		return
	}
	_, _ = fmt.Fprintf(o.w, "Logged in as %s\n", m.User.Username)
}

func (o *Output) printEntries(entries []Entry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(o.w, "No scores yet")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tNAME\tTIME\tSCORE\tID")
	for i, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d ms\t%d\t%d\n", i+1, e.Name, e.TimeMs, e.Score, e.Ts)
	}
	_ = tw.Flush()
}

func (o *Output) printPlayResult(p PlayResult) {
	if p.State == "failed" {
		_, _ = fmt.Fprintln(o.w, "Too slow! The timer ran out.")
		return
	}
	_, _ = fmt.Fprintf(o.w, "Stopped with %d ms left (score %d)\n", p.RemainingMs, p.Score)
	if p.Saved {
		o.printEntries(p.Entries)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
