package moperation

import (
	"time"

	"opsboard/server/pkg/idwrap"
)

const (
	OperationKindUnspecified int8 = 0
	OperationKindManual      int8 = 1
	OperationKindAutomated   int8 = 2
)

// Operation is the ordered unit arranged inside an area. Position is a
// fractional key: unique-enough within an area, ascending order is display
// order. Kind and Notes are payload only and never affect ordering.
type Operation struct {
	ID       idwrap.IDWrap `json:"id"`
	Name     string        `json:"name"`
	AreaName string        `json:"areaName"`
	Position float64       `json:"position"`
	Kind     int8          `json:"kind"`
	Notes    string        `json:"notes,omitempty"`
}

func (o Operation) GetCreatedTime() time.Time {
	return o.ID.Time()
}
