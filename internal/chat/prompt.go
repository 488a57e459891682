package chat

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are the assistant inside agentide, a terminal IDE. The project root is %s.

You can answer questions in plain text. When the user has enabled agentic mode you may also
change the project by emitting action blocks. Each block is a fenced code block tagged
"action" whose first line names the action and its parameters:

` + "```action" + `
write_file path=notes.txt content=hello
` + "```" + `

Multi-line values use a heredoc:

` + "```action" + `
write_file path=src/main.go
content<<END
package main
END
` + "```" + `

Available actions:
%s
Paths are relative to the project root. Paths outside the root and protected locations are
refused. Running commands may be disabled. After a batch runs you will see a report of
every action's outcome.`

var promptActions = []string{
	"read_file path=...",
	"write_file path=... content=...",
	"delete_file path=...",
	"rename_file from=... to=...",
	"create_dir path=...",
	"replace_in_file path=... old=... new=...",
	"file_info path=...",
	"list_dir path=...",
	"search_text pattern=... root=...",
	`run_command command=... args="..."`,
}

// SystemPrompt describes the action grammar to the model.
func SystemPrompt(root string) string {
	var b strings.Builder
	for _, a := range promptActions {
		b.WriteString("- ")
		b.WriteString(a)
		b.WriteString("\n")
	}
	return fmt.Sprintf(promptTemplate, root, b.String())
}
