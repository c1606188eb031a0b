// Package gerrit decodes Gerrit REST comment payloads and assembles them into
// threads.
package gerrit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeFormat is the layout Gerrit uses for timestamps. Values are always UTC.
const TimeFormat = "2006-01-02 15:04:05.999999999"

// Timestamp is a time encoded in Gerrit's quoted timestamp format.
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}

	t, err := time.ParseInLocation(TimeFormat, s, time.UTC)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	ts.Time = t
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(TimeFormat))
}

// AccountInfo identifies a comment author.
type AccountInfo struct {
	AccountID int    `json:"_account_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName returns the most readable identifier available.
func (a AccountInfo) DisplayName() string {
	switch {
	case a.Name != "":
		return a.Name
	case a.Username != "":
		return a.Username
	case a.Email != "":
		return a.Email
	case a.AccountID != 0:
		return fmt.Sprintf("account %d", a.AccountID)
	default:
		return ""
	}
}

// CommentInfo is a published comment, draft, or robot comment as returned by
// the comments endpoints.
type CommentInfo struct {
	ID         string       `json:"id"`
	Path       string       `json:"path,omitempty"`
	PatchSet   int          `json:"patch_set,omitempty"`
	Side       string       `json:"side,omitempty"`
	Line       int          `json:"line,omitempty"`
	InReplyTo  string       `json:"in_reply_to,omitempty"`
	Message    string       `json:"message,omitempty"`
	Updated    Timestamp    `json:"updated"`
	Author     *AccountInfo `json:"author,omitempty"`
	Unresolved *bool        `json:"unresolved,omitempty"`
	RobotID    string       `json:"robot_id,omitempty"`
	RobotRunID string       `json:"robot_run_id,omitempty"`
}

// ChangeComments is every comment on a change, keyed by file path.
type ChangeComments struct {
	Comments      map[string][]CommentInfo `json:"comments,omitempty"`
	Drafts        map[string][]CommentInfo `json:"drafts,omitempty"`
	RobotComments map[string][]CommentInfo `json:"robot_comments,omitempty"`
}

// Len returns the total number of comments across all kinds.
func (cc ChangeComments) Len() int {
	n := 0
	for _, m := range []map[string][]CommentInfo{cc.Comments, cc.Drafts, cc.RobotComments} {
		for _, list := range m {
			n += len(list)
		}
	}
	return n
}

// IsSpecialPath reports whether path is a Gerrit sentinel rather than a file.
func IsSpecialPath(path string) bool {
	return strings.HasPrefix(path, "/")
}
