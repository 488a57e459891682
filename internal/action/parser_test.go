package action

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ignoreOffset = cmpopts.IgnoreFields(Action{}, "Offset")

func TestParsePartialFailureKeepsOrder(t *testing.T) {
	text := strings.Join([]string{
		"I'll create the file now.",
		"```action",
		"write_file path=notes.txt content=hello",
		"```",
		"And then remove the old one:",
		"```action",
		"delete_file",
		"```",
	}, "\n")

	got := Parse(text)

	require.Len(t, got.Actions, 1)
	require.Len(t, got.Errors, 1)
	want := &Action{Kind: WriteFile, Path: "notes.txt", Content: "hello"}
	if diff := cmp.Diff(want, got.Actions[0], ignoreOffset); diff != "" {
		t.Fatalf("action mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "delete_file", got.Errors[0].Name)
	assert.Contains(t, got.Errors[0].Reason, "path")

	items := got.Items()
	require.Len(t, items, 2)
	assert.NotNil(t, items[0].Action, "well-formed block comes first in the text")
	assert.NotNil(t, items[1].Err)
	assert.Less(t, items[0].Offset, items[1].Offset)
}

func TestParseErrorBeforeActionKeepsOrder(t *testing.T) {
	text := "```action\nfrobnicate path=x\n```\n```action\nread_file path=a.go\n```\n"
	items := Parse(text).Items()
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Err)
	assert.Equal(t, "unknown action", items[0].Err.Reason)
	require.NotNil(t, items[1].Action)
	assert.Equal(t, ReadFile, items[1].Action.Kind)
}

func TestParseActions(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []*Action
	}{
		{
			name: "create_file alias with quoted content",
			text: "```action\ncreate_file path=\"docs/a b.md\" content='# Title'\n```",
			want: []*Action{{Kind: WriteFile, Path: "docs/a b.md", Content: "# Title"}},
		},
		{
			name: "heredoc content",
			text: "```action\nwrite_file path=main.go\ncontent<<EOF\npackage main\n\nfunc main() {}\nEOF\n```",
			want: []*Action{{Kind: WriteFile, Path: "main.go", Content: "package main\n\nfunc main() {}"}},
		},
		{
			name: "parameter lines",
			text: "```agent\nrename_file\nfrom = old.txt\nto = \"new name.txt\"\n```",
			want: []*Action{{Kind: RenameFile, From: "old.txt", To: "new name.txt"}},
		},
		{
			name: "move_file with src and dest",
			text: "```action\nmove_file src=a dest=b\n```",
			want: []*Action{{Kind: RenameFile, From: "a", To: "b"}},
		},
		{
			name: "run_command with args",
			text: "```action\nrun_command command=go args=\"test ./... -run 'Test X'\"\n```",
			want: []*Action{{Kind: RunCommand, Command: "go", Args: []string{"test", "./...", "-run", "Test X"}}},
		},
		{
			name: "execute splits a command line",
			text: "```action\nexecute command=\"ls -la src\"\n```",
			want: []*Action{{Kind: RunCommand, Command: "ls", Args: []string{"-la", "src"}}},
		},
		{
			name: "list_dir defaults to project root",
			text: "```action\nlist_dir\n```",
			want: []*Action{{Kind: ListDir, Path: "."}},
		},
		{
			name: "search defaults root",
			text: "```action\nsearch pattern=\"TODO|FIXME\"\n```",
			want: []*Action{{Kind: SearchText, Pattern: "TODO|FIXME", Root: "."}},
		},
		{
			name: "replace_in_file allows empty replacement",
			text: "```action\nreplace_in_file path=a.txt old=foo new=\n```",
			want: []*Action{{Kind: ReplaceInFile, Path: "a.txt", Old: "foo", New: ""}},
		},
		{
			name: "create_dir and file_info",
			text: "```action\ncreate_dir path=build\n```\ntext\n```action\nfile_info path=go.mod\n```",
			want: []*Action{{Kind: CreateDir, Path: "build"}, {Kind: FileInfo, Path: "go.mod"}},
		},
		{
			name: "json object",
			text: "```json\n{\"action\": \"write_file\", \"path\": \"x.txt\", \"content\": \"hi\"}\n```",
			want: []*Action{{Kind: WriteFile, Path: "x.txt", Content: "hi"}},
		},
		{
			name: "json array with externally tagged action",
			text: "```json\n[{\"ReadFile\": {\"path\": \"a\"}}, {\"action\": \"run_command\", \"command\": \"echo\", \"args\": [\"it's\", \"ok\"]}]\n```",
			want: []*Action{
				{Kind: ReadFile, Path: "a"},
				{Kind: RunCommand, Command: "echo", Args: []string{"it's", "ok"}},
			},
		},
		{
			name: "crlf line endings",
			text: "```action\r\nread_file path=a.txt\r\n```\r\n",
			want: []*Action{{Kind: ReadFile, Path: "a.txt"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.text)
			require.Empty(t, got.Errors)
			if diff := cmp.Diff(tc.want, got.Actions, ignoreOffset); diff != "" {
				t.Fatalf("actions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		reason string
	}{
		{"unknown name", "```action\nteleport path=x\n```", "unknown action"},
		{"missing content", "```action\nwrite_file path=x\n```", `missing required parameter "content"`},
		{"empty path", "```action\nread_file path=\n```", `parameter "path" is empty`},
		{"unterminated block", "text\n```action\nread_file path=x\n", "unterminated action block"},
		{"bad parameter line", "```action\nread_file\nthis is prose\n```", "invalid parameter line"},
		{"unterminated heredoc", "```action\nwrite_file path=x\ncontent<<EOF\nhello\n```", "not terminated"},
		{"empty block", "```action\n\n```", "empty action block"},
		{"unterminated quote", "```action\nread_file path=\"x\n```", "unterminated quote"},
		{"invalid json action", "```json\n{\"action\": \"read_file\", \n```", "invalid json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.text)
			assert.Empty(t, got.Actions)
			require.Len(t, got.Errors, 1)
			assert.Contains(t, got.Errors[0].Reason, tc.reason)
		})
	}
}

func TestParseIgnoresProseAndOtherFences(t *testing.T) {
	text := "Here is some Go:\n```go\nfmt.Println(\"write_file path=x\")\n```\n" +
		"And config:\n```json\n{\"name\": \"demo\"}\n```\nread the file main.go please"
	got := Parse(text)
	assert.Empty(t, got.Actions)
	assert.Empty(t, got.Errors)
}

func TestParseErrorReportsLine(t *testing.T) {
	got := Parse("line one\nline two\n```action\nnope\n```")
	require.Len(t, got.Errors, 1)
	assert.Equal(t, 3, got.Errors[0].Line)
	assert.Equal(t, len("line one\nline two\n"), got.Errors[0].Offset)
	assert.Contains(t, got.Errors[0].Error(), "line 3: nope")
}

func TestSplitWords(t *testing.T) {
	words, err := SplitWords(`a "b c" 'd e' f\ g "h\"i" 'x\ny' issue#4`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b c", "d e", "f g", `h"i`, `x\ny`, "issue#4"}, words)

	_, err = SplitWords(`"open`)
	assert.ErrorIs(t, err, errUnterminatedQuote)

	_, err = SplitWords(`trailing\`)
	assert.ErrorIs(t, err, errDanglingEscape)

	words, err = SplitWords("   ")
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestHeredocMayContainFences(t *testing.T) {
	text := strings.Join([]string{
		"Writing the README:",
		"```action",
		"write_file path=README.md",
		"content<<END",
		"# Demo",
		"",
		"```go",
		"fmt.Println(\"hi\")",
		"```",
		"END",
		"```",
		"Then reading another file:",
		"```action",
		"read_file path=b",
		"```",
	}, "\n")

	got := Parse(text)
	assert.Empty(t, got.Errors)
	want := []*Action{
		{Kind: WriteFile, Path: "README.md", Content: "# Demo\n\n```go\nfmt.Println(\"hi\")\n```"},
		{Kind: ReadFile, Path: "b"},
	}
	if diff := cmp.Diff(want, got.Actions, ignoreOffset); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONArrayKeepsObjectsAfterBadOne(t *testing.T) {
	text := "```json\n[" +
		`{"action": "read_file", "path": "a"},` +
		`{"action": "delete_file"},` +
		`{"action": "read_file", "path": "c"}` +
		"]\n```"

	got := Parse(text)
	want := []*Action{
		{Kind: ReadFile, Path: "a"},
		{Kind: ReadFile, Path: "c"},
	}
	if diff := cmp.Diff(want, got.Actions, ignoreOffset); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "delete_file", got.Errors[0].Name)
}

func TestJSONArrayReportsMalformedElement(t *testing.T) {
	text := "```json\n[" + `{"action": "read_file", "path": "a"}, "action", {"action": "read_file", "path": "c"}` + "]\n```"
	got := Parse(text)
	assert.Len(t, got.Actions, 2)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0].Reason, "element 1")
}

func TestCommentOnlyHeaderIsAnError(t *testing.T) {
	got := Parse("```action\n# nothing here\n```")
	assert.Empty(t, got.Actions)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "missing action name", got.Errors[0].Reason)
}
