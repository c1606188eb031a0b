package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/colonyops/revthreads/internal/core/styles"
	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/colonyops/revthreads/internal/core/threadlist"
	"github.com/urfave/cli/v3"
)

const messagePreviewLen = 60

// toggleFlags are the filter switches shared by list, watch and filters set.
type toggleFlags struct {
	unresolvedOnly bool
	draftsOnly     bool
	robotReply     bool
}

const (
	flagUnresolvedOnly = "unresolved-only"
	flagDraftsOnly     = "drafts-only"
	flagRobotReply     = "robot-reply"
)

func (tf *toggleFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        flagUnresolvedOnly,
			Usage:       "only show unresolved threads",
			Destination: &tf.unresolvedOnly,
		},
		&cli.BoolFlag{
			Name:        flagDraftsOnly,
			Usage:       "only show threads with drafts",
			Destination: &tf.draftsOnly,
		},
		&cli.BoolFlag{
			Name:        flagRobotReply,
			Usage:       "hide robot threads nobody has replied to",
			Destination: &tf.robotReply,
		},
	}
}

// overrides returns only the toggles given explicitly on the command line.
func (tf *toggleFlags) overrides(c *cli.Command) thread.Filters {
	var f thread.Filters
	if c.IsSet(flagUnresolvedOnly) {
		f.UnresolvedOnly = &tf.unresolvedOnly
	}
	if c.IsSet(flagDraftsOnly) {
		f.DraftsOnly = &tf.draftsOnly
	}
	if c.IsSet(flagRobotReply) {
		f.OnlyRobotCommentsWithHumanReply = &tf.robotReply
	}
	return f
}

// changeName picks the change identifier: the explicit flag, else the
// input file name without its extension.
func changeName(flag, file string) string {
	if flag != "" {
		return flag
	}
	if file == "" {
		return ""
	}
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// filterPaths keeps threads whose path matches any of the glob patterns.
func filterPaths(threads []thread.Thread, patterns []string) ([]thread.Thread, error) {
	if len(patterns) == 0 {
		return threads, nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid path pattern %q", p)
		}
	}

	out := threads[:0:0]
	for _, t := range threads {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, t.Path); ok {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

// threadInfo is the JSON output format for a thread.
type threadInfo struct {
	RootID          string    `json:"root_id"`
	Path            string    `json:"path"`
	Line            int       `json:"line,omitempty"`
	Comments        int       `json:"comments"`
	Unresolved      bool      `json:"unresolved"`
	HasDraft        bool      `json:"has_draft"`
	IsEditing       bool      `json:"is_editing,omitempty"`
	HasRobotComment bool      `json:"has_robot_comment"`
	HumanReplied    bool      `json:"human_replied_to_robot"`
	Updated         time.Time `json:"updated,omitzero"`
	LastAuthor      string    `json:"last_author,omitempty"`
	LastMessage     string    `json:"last_message,omitempty"`
	Visible         bool      `json:"visible"`
}

func toThreadInfo(e threadlist.Entry) threadInfo {
	info := threadInfo{
		RootID:          e.Thread.RootID,
		Path:            e.Thread.Path,
		Line:            e.Thread.Line,
		Comments:        len(e.Thread.Comments),
		Unresolved:      e.Status.Unresolved,
		HasDraft:        e.Status.HasDraft,
		IsEditing:       e.Status.IsEditing,
		HasRobotComment: e.Status.HasRobotComment,
		HumanReplied:    e.Status.HasHumanReplyToRobotComment,
		Updated:         e.Status.EffectiveUpdated,
		Visible:         e.Visible,
	}
	if last, ok := e.Thread.Last(); ok {
		info.LastAuthor = last.Author
		info.LastMessage = last.Message
	}
	return info
}

// badges renders the status column. The draft badge is omitted for
// anonymous users.
func badges(st thread.Status, showDraft bool) string {
	parts := make([]string, 0, 4)
	if st.Unresolved {
		parts = append(parts, styles.UnresolvedBadge.Render("unresolved"))
	} else {
		parts = append(parts, styles.ResolvedBadge.Render("resolved"))
	}
	if showDraft && st.HasDraft {
		parts = append(parts, styles.DraftBadge.Render("draft"))
	}
	if st.IsEditing {
		parts = append(parts, styles.EditingBadge.Render("editing"))
	}
	if st.HasRobotComment {
		label := "robot"
		if st.HasHumanReplyToRobotComment {
			label = "robot+reply"
		}
		parts = append(parts, styles.RobotBadge.Render(label))
	}
	return strings.Join(parts, " ")
}

// location renders a thread anchor. Gerrit's sentinel paths get readable
// labels.
func location(t thread.Thread) string {
	switch t.Path {
	case thread.PatchsetLevelPath:
		return "(patchset)"
	case thread.CommitMessagePath:
		if t.IsFileLevel() {
			return "(commit message)"
		}
		return fmt.Sprintf("(commit message):%d", t.Line)
	}
	if t.IsFileLevel() {
		return t.Path
	}
	return fmt.Sprintf("%s:%d", t.Path, t.Line)
}

func preview(msg string) string {
	msg = strings.Join(strings.Fields(msg), " ")
	if r := []rune(msg); len(r) > messagePreviewLen {
		return string(r[:messagePreviewLen-3]) + "..."
	}
	return msg
}

// renderTable prints visible entries, or the empty message when none are.
func renderTable(w io.Writer, entries []threadlist.Entry, showDraft bool, emptyMsg string) {
	visible := 0
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		if !e.Visible {
			continue
		}
		if visible == 0 {
			_, _ = fmt.Fprintln(tw, styles.HeaderStyle.Render("LOCATION")+"\t"+
				styles.HeaderStyle.Render("COMMENTS")+"\t"+
				styles.HeaderStyle.Render("LAST")+"\t"+
				styles.HeaderStyle.Render("STATUS"))
		}
		visible++

		var last string
		if c, ok := e.Thread.Last(); ok {
			last = preview(c.Message)
			if c.Author != "" {
				last = c.Author + ": " + last
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			location(e.Thread), len(e.Thread.Comments), last, badges(e.Status, showDraft))
	}
	_ = tw.Flush()

	if visible == 0 {
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(emptyMsg))
		return
	}

	hidden := len(entries) - visible
	if hidden > 0 {
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(fmt.Sprintf("%d thread(s) hidden by filters", hidden)))
	}
}
