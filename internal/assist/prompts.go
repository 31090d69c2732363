package assist

import (
	"fmt"
	"strings"
)

// PromptBuilder constructs the refinement prompt sent to a provider.
type PromptBuilder struct{}

const responseContract = `
**RESPONSE FORMAT**: Reply with a single JSON object and nothing else:
{"code": "<the complete refined file>", "confidence": <integer 0-100>, "requiresReview": <bool>, "notes": ["<short note per change>"]}
Do not wrap the JSON in markdown fences. The "code" value must be the whole file, not a fragment.
`

// BuildRefinePrompt renders the request as a prompt. The deterministic
// output is the starting point; the original is context only.
func (pb *PromptBuilder) BuildRefinePrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Role: Senior Migration Engineer. Task: Finish migrating one %s file from %s to %s.\n",
		req.FileType, req.SourceFramework, req.TargetFramework)
	sb.WriteString("A deterministic AST pass already rewrote imports and known symbols. Your job is the part symbol tables cannot express: data fetching idioms, routing structure, configuration shape.\n")
	sb.WriteString("Preserve all business logic, handlers, and validation exactly. Do not invent features.\n")

	fmt.Fprintf(&sb, "\nFile: %s\n", req.FilePath)

	sb.WriteString("\n### ORIGINAL SOURCE\n```\n")
	sb.WriteString(req.Code)
	sb.WriteString("\n```\n")

	sb.WriteString("\n### AFTER DETERMINISTIC PASS (refine this)\n```\n")
	sb.WriteString(req.DeterministicCode)
	sb.WriteString("\n```\n")

	if len(req.Notes) > 0 {
		sb.WriteString("\nKnown issues from validation:\n")
		for _, n := range req.Notes {
			fmt.Fprintf(&sb, "- %s\n", n)
		}
	}

	sb.WriteString(responseContract)
	return sb.String()
}
