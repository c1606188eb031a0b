package thread

// Filters are the independent visibility toggles. A nil toggle has not been
// initialized yet; IsVisible hides everything until all three are set.
type Filters struct {
	UnresolvedOnly                  *bool `json:"unresolved_only" yaml:"unresolved_only"`
	DraftsOnly                      *bool `json:"drafts_only" yaml:"drafts_only"`
	OnlyRobotCommentsWithHumanReply *bool `json:"robot_reply_only" yaml:"robot_reply_only"`
}

// NewFilters returns a fully initialized filter set.
func NewFilters(unresolvedOnly, draftsOnly, robotReplyOnly bool) Filters {
	return Filters{
		UnresolvedOnly:                  &unresolvedOnly,
		DraftsOnly:                      &draftsOnly,
		OnlyRobotCommentsWithHumanReply: &robotReplyOnly,
	}
}

// Complete reports whether every toggle has been initialized.
func (f Filters) Complete() bool {
	return f.UnresolvedOnly != nil && f.DraftsOnly != nil && f.OnlyRobotCommentsWithHumanReply != nil
}

// Active reports whether any initialized toggle is on.
func (f Filters) Active() bool {
	return isSet(f.UnresolvedOnly) || isSet(f.DraftsOnly) || isSet(f.OnlyRobotCommentsWithHumanReply)
}

// Merge returns f with nil toggles taken from fallback.
func (f Filters) Merge(fallback Filters) Filters {
	if f.UnresolvedOnly == nil {
		f.UnresolvedOnly = fallback.UnresolvedOnly
	}
	if f.DraftsOnly == nil {
		f.DraftsOnly = fallback.DraftsOnly
	}
	if f.OnlyRobotCommentsWithHumanReply == nil {
		f.OnlyRobotCommentsWithHumanReply = fallback.OnlyRobotCommentsWithHumanReply
	}
	return f
}

// IsVisible decides whether t should be shown under f. Incomplete input (a
// nil or empty thread, or an uninitialized toggle) hides the thread.
func IsVisible(t *Thread, st Status, f Filters) bool {
	if t == nil || len(t.Comments) == 0 || !f.Complete() {
		return false
	}

	unresolvedOnly := *f.UnresolvedOnly
	draftsOnly := *f.DraftsOnly
	robotReplyOnly := *f.OnlyRobotCommentsWithHumanReply

	if !unresolvedOnly && !draftsOnly && !robotReplyOnly {
		return true
	}

	// Never hide content the user is composing.
	if st.IsEditing {
		return true
	}

	if robotReplyOnly && st.HasRobotComment && !st.HasHumanReplyToRobotComment {
		return false
	}

	switch {
	case draftsOnly && unresolvedOnly:
		return st.HasDraft && st.Unresolved
	case draftsOnly:
		return st.HasDraft
	case unresolvedOnly:
		return st.Unresolved
	default:
		return true
	}
}

func isSet(b *bool) bool {
	return b != nil && *b
}
