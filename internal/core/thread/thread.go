// Package thread models review comment threads and provides the ordering and
// visibility rules used to present them.
package thread

import (
	"time"

	"github.com/google/uuid"
)

// Path sentinels used by Gerrit for comments not attached to a real file.
const (
	PatchsetLevelPath = "/PATCHSET_LEVEL"
	CommitMessagePath = "/COMMIT_MSG"
)

// Comment is a single entry in a thread.
type Comment struct {
	ID         string
	Path       string
	Line       int       // 0 for file-level comments
	Updated    time.Time // zero until the comment has been saved
	PendingAt  time.Time // locally assigned while a draft is being composed
	Unresolved *bool     // nil when the server omitted the field
	RobotID    string    // non-empty for machine-generated comments
	InReplyTo  string
	Message    string
	Author     string

	// Client-side working state, never persisted.
	Editing bool
	Draft   bool
}

// IsRobot reports whether the comment was authored by an automated system.
func (c Comment) IsRobot() bool {
	return c.RobotID != ""
}

// IsUnresolved returns the unresolved flag, treating an absent flag as resolved.
func (c Comment) IsUnresolved() bool {
	return c.Unresolved != nil && *c.Unresolved
}

// Timestamp returns the saved update time, falling back to the pending time
// for comments that are still being composed.
func (c Comment) Timestamp() time.Time {
	if !c.Updated.IsZero() {
		return c.Updated
	}
	return c.PendingAt
}

// Thread is an ordered list of comments anchored to a file, a line, or the
// whole change. The last comment is authoritative for thread status.
type Thread struct {
	RootID   string
	Path     string
	Line     int // 0 for file-level threads
	Comments []Comment
}

// Last returns the final comment of the thread.
func (t Thread) Last() (Comment, bool) {
	if len(t.Comments) == 0 {
		return Comment{}, false
	}
	return t.Comments[len(t.Comments)-1], true
}

// IsFileLevel reports whether the thread has no line anchor.
func (t Thread) IsFileLevel() bool {
	return t.Line == 0
}

// Clone returns a copy that does not share the comment slice.
func (t Thread) Clone() Thread {
	out := t
	if t.Comments != nil {
		out.Comments = make([]Comment, len(t.Comments))
		copy(out.Comments, t.Comments)
	}
	return out
}

// NewDraft starts a new thread whose only comment is a draft being edited.
func NewDraft(path string, line int, message string, now time.Time) Thread {
	id := uuid.NewString()
	unresolved := true
	return Thread{
		RootID: id,
		Path:   path,
		Line:   line,
		Comments: []Comment{{
			ID:         id,
			Path:       path,
			Line:       line,
			PendingAt:  now,
			Unresolved: &unresolved,
			Message:    message,
			Editing:    true,
			Draft:      true,
		}},
	}
}

// Reply returns a copy of the thread with a draft reply appended. The thread
// keeps its RootID, so swapping it into a list is a value-only change.
func (t Thread) Reply(message string, unresolved bool, now time.Time) Thread {
	out := t.Clone()

	var parent string
	if last, ok := t.Last(); ok {
		parent = last.ID
	}

	out.Comments = append(out.Comments, Comment{
		ID:         uuid.NewString(),
		Path:       t.Path,
		Line:       t.Line,
		PendingAt:  now,
		Unresolved: &unresolved,
		InReplyTo:  parent,
		Message:    message,
		Editing:    true,
		Draft:      true,
	})
	return out
}
