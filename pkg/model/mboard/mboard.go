package mboard

import (
	"opsboard/server/pkg/model/marea"
	"opsboard/server/pkg/model/moperation"
)

// Board is the full in-memory state: the flat operation list plus the area
// configuration. It is the unit of snapshot and rollback, so copies must be
// deep with respect to both slices.
type Board struct {
	Operations []moperation.Operation `json:"operations"`
	Areas      []marea.Area           `json:"areas"`
}

// Clone returns a value copy sharing no slice backing with the receiver.
// Operation and Area are flat value types, so copying the slices is enough.
func (b Board) Clone() Board {
	out := Board{}
	if b.Operations != nil {
		out.Operations = make([]moperation.Operation, len(b.Operations))
		copy(out.Operations, b.Operations)
	}
	if b.Areas != nil {
		out.Areas = make([]marea.Area, len(b.Areas))
		copy(out.Areas, b.Areas)
	}
	return out
}
