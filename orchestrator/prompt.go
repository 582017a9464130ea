package orchestrator

import (
	"slices"
	"strings"
)

// PromptFunc builds the model prompt once the context text is known.
type PromptFunc func(contextText string) string

// QueryPrompt is the context followed by the user's query.
func QueryPrompt(query string) PromptFunc {
	return func(contextText string) string {
		return contextText + "\n" + query
	}
}

// CodePrompt is the context, the instruction, the code in a fenced block, then each extra file
// under a "Filename:" header, in file name order.
func CodePrompt(instruction, code string, files map[string]string) PromptFunc {
	return func(contextText string) string {
		var sb strings.Builder
		sb.WriteString(contextText)
		sb.WriteString("\n")
		sb.WriteString(instruction)
		sb.WriteString("\n```\n")
		sb.WriteString(code)
		sb.WriteString("\n```")
		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			sb.WriteString("\nFilename: ")
			sb.WriteString(name)
			sb.WriteString("\n")
			sb.WriteString(files[name])
		}
		return sb.String()
	}
}
