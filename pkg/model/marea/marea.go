package marea

// Area is a named bucket holding an ordered collection of operations.
// Name is the unique, case-sensitive key. DisplayOrder is a dense 1..N
// integer unique across the board; areas are renumbered wholesale on every
// reorder rather than fractionally keyed.
type Area struct {
	Name         string `json:"name"`
	DisplayOrder int    `json:"displayOrder"`
}
