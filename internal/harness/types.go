package harness

// Trace entry kinds.
const (
	KindSetupMap   = "setup_map"
	KindSwitch     = "switch"
	KindVariable   = "variable"
	KindSelfSwitch = "self_switch"
	KindTouch      = "touch"
	KindRun        = "run"
	KindShowText   = "show_text"
	KindPlugin     = "plugin"
	KindPluginErr  = "plugin_error"
	KindPromote    = "promote"
	KindPage       = "page"
	KindSave       = "save"
	KindLoad       = "load"
)

// TraceEntry is one observable effect of a flow step.
type TraceEntry struct {
	Kind   string         `json:"kind"`
	Frame  int64          `json:"frame"`
	Seq    int64          `json:"seq"`
	Detail map[string]any `json:"detail,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace holds every flow effect in order.
	Trace []TraceEntry `json:"trace"`

	// Messages holds every line shown, in order.
	Messages []string `json:"messages"`

	// Errors holds assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEntry{},
		Messages: []string{},
		Errors:   []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
