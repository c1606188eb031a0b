package thread

import "time"

// Status is the per-thread summary derived from its comments. It is computed
// on demand and never cached, since comment content can change in place.
type Status struct {
	Unresolved                  bool
	HasDraft                    bool
	IsEditing                   bool
	HasRobotComment             bool
	HasHumanReplyToRobotComment bool
	EffectiveUpdated            time.Time
	LastID                      string
}

// Annotate derives the Status of t in a single pass over its comments.
func Annotate(t Thread) Status {
	var st Status

	for _, c := range t.Comments {
		if c.IsRobot() {
			st.HasRobotComment = true
		} else if st.HasRobotComment {
			st.HasHumanReplyToRobotComment = true
		}
	}

	last, ok := t.Last()
	if !ok {
		return st
	}

	st.Unresolved = last.IsUnresolved()
	st.HasDraft = last.Draft
	st.IsEditing = last.Editing
	st.EffectiveUpdated = last.Timestamp()
	st.LastID = last.ID
	return st
}
