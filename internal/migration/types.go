package migration

// Specification is the immutable per-job description of a migration:
// where the code is coming from, where it is going, and which symbol
// tables and rules drive the rewrite. It is produced once per job and
// consumed read-only by every pipeline stage.
type Specification struct {
	Source   Stack             `yaml:"source" json:"source"`
	Target   Stack             `yaml:"target" json:"target"`
	Mappings Mappings          `yaml:"mappings" json:"mappings"`
	Rules    Rules             `yaml:"rules" json:"rules"`
	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Stack identifies one side of the migration.
type Stack struct {
	Language         string `yaml:"language" json:"language"`
	Framework        string `yaml:"framework" json:"framework"`
	Version          string `yaml:"version,omitempty" json:"version,omitempty"`
	BuildTool        string `yaml:"buildTool,omitempty" json:"buildTool,omitempty"`
	FileStructure    string `yaml:"fileStructure,omitempty" json:"fileStructure,omitempty"`
	NamingConvention string `yaml:"namingConvention,omitempty" json:"namingConvention,omitempty"`
}

// Mappings are the symbol tables applied by the deterministic pass.
// Keys are source-framework identifiers, values their target equivalents.
type Mappings struct {
	Imports    map[string]string `yaml:"imports,omitempty" json:"imports,omitempty"`
	Routing    map[string]string `yaml:"routing,omitempty" json:"routing,omitempty"`
	Components map[string]string `yaml:"components,omitempty" json:"components,omitempty"`
	Styling    map[string]string `yaml:"styling,omitempty" json:"styling,omitempty"`
	State      map[string]string `yaml:"state,omitempty" json:"state,omitempty"`
	BuildTool  map[string]string `yaml:"buildTool,omitempty" json:"buildTool,omitempty"`
}

// Rules is the declarative rule set a transformed file is validated against.
// All six collections must be present (possibly empty) for the rule set to
// be considered well-formed.
type Rules struct {
	MustPreserve    []string         `yaml:"mustPreserve" json:"mustPreserve"`
	MustTransform   []string         `yaml:"mustTransform" json:"mustTransform"`
	MustRemove      []string         `yaml:"mustRemove" json:"mustRemove"`
	MustRefactor    []string         `yaml:"mustRefactor" json:"mustRefactor"`
	BreakingChanges []BreakingChange `yaml:"breakingChanges" json:"breakingChanges"`
	Deprecations    []Deprecation    `yaml:"deprecations" json:"deprecations"`
}

// BreakingChange names target-framework APIs that changed incompatibly.
type BreakingChange struct {
	ID          string   `yaml:"id" json:"id"`
	APIs        []string `yaml:"apis" json:"apis"`
	Description string   `yaml:"description" json:"description"`
	Migration   string   `yaml:"migration,omitempty" json:"migration,omitempty"`
	AutoFixable bool     `yaml:"autoFixable,omitempty" json:"autoFixable,omitempty"`
}

// Deprecation marks a symbol that still works but should be replaced.
type Deprecation struct {
	Name        string `yaml:"name" json:"name"`
	Replacement string `yaml:"replacement" json:"replacement"`
	Version     string `yaml:"version,omitempty" json:"version,omitempty"`
	RemovedIn   string `yaml:"removedIn,omitempty" json:"removedIn,omitempty"`
}

// FileRecord is one input file of a migration batch.
type FileRecord struct {
	Path    string `yaml:"path" json:"path"`
	Content string `yaml:"content" json:"content"`
}
