package engine

type Result struct {
	Violations   []Violation
	Reasons      []Reason
	RulesVersion string
}

// Blocked reports whether any guard tripped.
func (r Result) Blocked() bool { return len(r.Violations) > 0 }

type Reason struct {
	RuleID string
	Phase  PipelinePhase
	Why    string
}

type Violation struct {
	RuleID  string
	Message string
}
