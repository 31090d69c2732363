package migration

// PlanActionKind is what the structure plan wants done with a file.
type PlanActionKind string

const (
	PlanMove   PlanActionKind = "move"
	PlanCreate PlanActionKind = "create"
	PlanDelete PlanActionKind = "delete"
)

// PlanAction is one file-structure change decided before any file is
// rewritten: a move to the target layout, a scaffold file to create, or
// a source-only file to drop.
type PlanAction struct {
	Action       PlanActionKind    `json:"action"`
	OriginalPath string            `json:"originalPath,omitempty"`
	NewPath      string            `json:"newPath,omitempty"`
	FileType     FileType          `json:"fileType,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
