package model

import (
	"bistro/shared/model"
)

const (
	TableName  = "tables"
	EntityName = "table"

	FieldID            = "table_id"
	FieldName          = "table_name"
	FieldCapacity      = "capacity"
	FieldReservationID = "reservation_id"
)

type Table struct {
	ID            string  `db:"table_id"`
	Name          string  `db:"table_name"`
	Capacity      int     `db:"capacity"`
	ReservationID *string `db:"reservation_id"`
	model.Metadata
}

// Occupied is derived, never stored: a table is occupied exactly while it
// holds a reservation.
func (t *Table) Occupied() bool {
	return t.ReservationID != nil
}
