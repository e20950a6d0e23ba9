package divergence

// AttributeDiff is one attribute whose values differ between two records.
type AttributeDiff struct {
	Attribute   string
	SourceValue interface{}
	DestValue   interface{}
}

// DiffAttributes walks names in order and returns every attribute that is not
// Equal between source and dest. A name missing from a record reads as NULL.
func DiffAttributes(names []string, source, dest Row) []AttributeDiff {
	var diffs []AttributeDiff
	for _, name := range names {
		s, d := source[name], dest[name]
		if Equal(s, d) {
			continue
		}
		diffs = append(diffs, AttributeDiff{
			Attribute:   name,
			SourceValue: Display(s),
			DestValue:   Display(d),
		})
	}
	return diffs
}
