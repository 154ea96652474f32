package observability

// Span names recorded by the migration runner.
const (
	SpanMigrate = "codemod.migrate"
	SpanStep    = "codemod.migrate.step"
)

// Span attribute keys. Spans carry only these keys; see NewRedactingProcessor.
const (
	AttrMigration = "migration.name"
	AttrChanged   = "migration.changed"
	AttrStep      = "step.name"
	AttrFile      = "file.path"
	AttrCatalog   = "catalog.language"
	AttrVisited   = "rewrite.visited"
	AttrRebuilt   = "rewrite.rebuilt"
	AttrReplaced  = "rewrite.replaced"
	AttrErrorType = "error.type"
)

// spanKeys is the set of attribute keys exported with spans.
//
//nolint:gochecknoglobals // read-only lookup table.
var spanKeys = map[string]struct{}{
	AttrMigration: {},
	AttrChanged:   {},
	AttrStep:      {},
	AttrFile:      {},
	AttrCatalog:   {},
	AttrVisited:   {},
	AttrRebuilt:   {},
	AttrReplaced:  {},
	AttrErrorType: {},
}
