package gerrit

import (
	"cmp"
	"slices"

	"github.com/colonyops/revthreads/internal/core/thread"
)

// Threads assembles every comment in cc into threads. Comments are linked by
// in_reply_to; a comment whose parent is unknown starts its own thread.
// Comments within a thread are ordered by update time then ID, and the
// threads are returned ordered by root ID.
func Threads(cc ChangeComments) []thread.Thread {
	var all []thread.Comment
	all = appendComments(all, cc.Comments, false)
	all = appendComments(all, cc.RobotComments, false)
	all = appendComments(all, cc.Drafts, true)

	byID := make(map[string]thread.Comment, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	groups := make(map[string][]thread.Comment)
	for _, c := range all {
		root := rootOf(c, byID)
		groups[root] = append(groups[root], c)
	}

	threads := make([]thread.Thread, 0, len(groups))
	for rootID, comments := range groups {
		slices.SortStableFunc(comments, func(a, b thread.Comment) int {
			if c := a.Timestamp().Compare(b.Timestamp()); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})

		root := byID[rootID]
		threads = append(threads, thread.Thread{
			RootID:   rootID,
			Path:     root.Path,
			Line:     root.Line,
			Comments: comments,
		})
	}

	slices.SortFunc(threads, func(a, b thread.Thread) int {
		return cmp.Compare(a.RootID, b.RootID)
	})
	return threads
}

// rootOf walks the reply chain up to the first comment without a known
// parent. A cycle stops at the first repeated comment.
func rootOf(c thread.Comment, byID map[string]thread.Comment) string {
	seen := map[string]bool{c.ID: true}
	for c.InReplyTo != "" {
		parent, ok := byID[c.InReplyTo]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		c = parent
	}
	return c.ID
}

func appendComments(dst []thread.Comment, byPath map[string][]CommentInfo, draft bool) []thread.Comment {
	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, p := range paths {
		for _, ci := range byPath[p] {
			if ci.ID == "" {
				continue
			}
			dst = append(dst, toComment(p, ci, draft))
		}
	}
	return dst
}

func toComment(path string, ci CommentInfo, draft bool) thread.Comment {
	if ci.Path != "" {
		path = ci.Path
	}

	c := thread.Comment{
		ID:         ci.ID,
		Path:       path,
		Line:       ci.Line,
		Updated:    ci.Updated.Time,
		Unresolved: ci.Unresolved,
		RobotID:    ci.RobotID,
		InReplyTo:  ci.InReplyTo,
		Message:    ci.Message,
		Draft:      draft,
	}
	if ci.Author != nil {
		c.Author = ci.Author.DisplayName()
	}
	return c
}
