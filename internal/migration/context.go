package migration

// FileContext is the per-file working state derived when processing
// starts and discarded when the file completes. Dependencies and Exports
// hold the surface extracted from the original source; Imports and
// RelatedFiles double as the audit trail the transformation pass appends
// "X -> Y" entries to.
type FileContext struct {
	Path         string
	FileType     FileType
	Dependencies []string
	Imports      []string
	Exports      []string
	RelatedFiles []string
}

// NewFileContext builds a context for path with its inferred file type.
func NewFileContext(path, content string) *FileContext {
	return &FileContext{
		Path:     path,
		FileType: InferFileType(path, content),
	}
}

// RecordImportChange appends an import audit entry, skipping duplicates.
func (c *FileContext) RecordImportChange(entry string) {
	c.Imports = appendUnique(c.Imports, entry)
}

// RecordRewrite appends a rewrite audit entry, skipping duplicates.
func (c *FileContext) RecordRewrite(entry string) {
	c.RelatedFiles = appendUnique(c.RelatedFiles, entry)
}

func appendUnique(list []string, entry string) []string {
	for _, e := range list {
		if e == entry {
			return list
		}
	}
	return append(list, entry)
}
