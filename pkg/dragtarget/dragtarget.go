package dragtarget

import "strings"

// The gesture collaborator distinguishes area handles from operation ids
// purely by a string prefix. That disambiguation happens here, once, at the
// boundary; everything downstream switches on the decoded tag instead of
// re-checking prefixes.

// AreaPrefix marks an area drag handle, e.g. "area-Review".
const AreaPrefix = "area-"

type Kind int8

const (
	KindUnspecified Kind = iota
	KindArea
	KindOperation
)

// Target is the decoded form of a raw drag id.
type Target struct {
	Kind Kind

	// AreaName is set when Kind == KindArea.
	AreaName string

	// OperationID is the raw id when Kind == KindOperation.
	OperationID string
}

// Decode classifies a raw drag id. An empty id decodes to KindUnspecified,
// which callers treat as "no valid drop target".
func Decode(raw string) Target {
	if raw == "" {
		return Target{}
	}
	if name, ok := strings.CutPrefix(raw, AreaPrefix); ok {
		return Target{Kind: KindArea, AreaName: name}
	}
	return Target{Kind: KindOperation, OperationID: raw}
}

// AreaID renders the drag handle id for an area, the inverse of Decode.
func AreaID(name string) string {
	return AreaPrefix + name
}
