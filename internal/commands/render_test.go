package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/colonyops/revthreads/internal/core/threadlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeName(t *testing.T) {
	tests := []struct {
		flag, file, want string
	}{
		{"I1", "/tmp/12345.json", "I1"},
		{"", "/tmp/12345.json", "12345"},
		{"", "comments", "comments"},
		{"", "", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, changeName(tt.flag, tt.file))
	}
}

func TestFilterPaths(t *testing.T) {
	threads := []thread.Thread{
		{RootID: "1", Path: "src/a.go"},
		{RootID: "2", Path: "src/sub/b.go"},
		{RootID: "3", Path: "docs/readme.md"},
		{RootID: "4", Path: thread.PatchsetLevelPath},
	}

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"no patterns keeps all", nil, []string{"1", "2", "3", "4"}},
		{"single star stays in directory", []string{"src/*.go"}, []string{"1"}},
		{"double star recurses", []string{"src/**"}, []string{"1", "2"}},
		{"any pattern matches", []string{"docs/*", "src/a.go"}, []string{"1", "3"}},
		{"sentinel paths match literally", []string{thread.PatchsetLevelPath}, []string{"4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filterPaths(threads, tt.patterns)
			require.NoError(t, err)

			ids := make([]string, len(got))
			for i, th := range got {
				ids[i] = th.RootID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestBadges(t *testing.T) {
	st := thread.Status{Unresolved: true, HasDraft: true, HasRobotComment: true}

	assert.Equal(t, "unresolved draft robot", badges(st, true))
	assert.Equal(t, "unresolved robot", badges(st, false), "draft badge hidden for anonymous users")
	assert.Equal(t, "resolved editing", badges(thread.Status{IsEditing: true}, true))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n\n  b"))

	long := strings.Repeat("x", 100)
	got := preview(long)
	assert.Len(t, []rune(got), messagePreviewLen)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestRenderTable_HiddenCount(t *testing.T) {
	entries := []threadlist.Entry{
		{
			Thread:  thread.Thread{RootID: "a", Path: "a.go", Line: 3, Comments: []thread.Comment{{ID: "a", Author: "Ada", Message: "fix"}}},
			Status:  thread.Status{Unresolved: true},
			Visible: true,
		},
		{
			Thread: thread.Thread{RootID: "b", Path: "b.go", Comments: []thread.Comment{{ID: "b"}}},
		},
	}

	var buf bytes.Buffer
	renderTable(&buf, entries, true, "empty")

	out := buf.String()
	assert.Contains(t, out, "a.go:3")
	assert.Contains(t, out, "Ada: fix")
	assert.NotContains(t, out, "b.go")
	assert.Contains(t, out, "1 thread(s) hidden by filters")
	assert.NotContains(t, out, "empty")
}

func TestLocation(t *testing.T) {
	tests := []struct {
		name string
		th   thread.Thread
		want string
	}{
		{"line comment", thread.Thread{Path: "src/main.go", Line: 12}, "src/main.go:12"},
		{"file comment", thread.Thread{Path: "src/main.go"}, "src/main.go"},
		{"patchset level", thread.Thread{Path: thread.PatchsetLevelPath}, "(patchset)"},
		{"commit message file", thread.Thread{Path: thread.CommitMessagePath}, "(commit message)"},
		{"commit message line", thread.Thread{Path: thread.CommitMessagePath, Line: 7}, "(commit message):7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, location(tt.th))
		})
	}
}
