package endpoint

// --- Validation Types ---

type ValidationResult struct {
	Valid           bool
	Message         string
	DetectedVersion string
}

// --- Capabilities ---

type Capabilities struct {
	SupportsFull        bool
	SupportsIncremental bool
	SupportsMetadata    bool
	SupportsSoftDelete  bool

	// IncrementalLiteral is "timestamp" or "epoch".
	IncrementalLiteral string
}

// --- Dataset Types ---

type Dataset struct {
	ID                  string
	Name                string
	Kind                string // "entity", "table", "stream"
	SupportsIncremental bool
	IngestionStrategy   string // "full", "scd1"
	IncrementalColumn   string
	IncrementalLiteral  string
	PrimaryKeys         []string
}

// --- Schema Types ---

type Schema struct {
	Fields      []*FieldDefinition
	Constraints []*Constraint
}

type FieldDefinition struct {
	Name     string
	DataType string
	Format   string
	Nullable bool
	Comment  string
	Position int
}

type Constraint struct {
	Name   string
	Type   string // "primary_key"
	Fields []string
}
