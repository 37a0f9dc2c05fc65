package tags

// Diff is the per-entity pair of one-sided differences between a source tag
// set S and a catalog tag set C: (S−C, C−S). It is recomputed each run and
// never persisted.
type Diff struct {
	SourceOnly  Set `json:"source_only" yaml:"source_only"`
	CatalogOnly Set `json:"catalog_only" yaml:"catalog_only"`
}

// Compare computes the diff between source-declared and catalog-observed
// tags for one entity.
func Compare(source, catalog Set) Diff {
	return Diff{
		SourceOnly:  source.Minus(catalog),
		CatalogOnly: catalog.Minus(source),
	}
}

// Empty reports whether both sides of the diff are empty, i.e. source and
// catalog agree exactly.
func (d Diff) Empty() bool {
	return d.SourceOnly.Len() == 0 && d.CatalogOnly.Len() == 0
}

// EntityDiff pairs an entity id with its tag diff, for reporting.
type EntityDiff struct {
	Entity EntityID `json:"entity" yaml:"entity"`
	Diff   Diff     `json:"diff" yaml:"diff"`
}
