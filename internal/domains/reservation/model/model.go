package model

import (
	"time"

	"bistro/shared/model"
)

const (
	TableName  = "reservations"
	EntityName = "reservation"

	FieldID           = "reservation_id"
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldMobileNumber = "mobile_number"
	FieldDate         = "reservation_date"
	FieldTime         = "reservation_time"
	FieldPeople       = "people"
	FieldStatus       = "status"
)

type Reservation struct {
	ID           string    `db:"reservation_id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	MobileNumber string    `db:"mobile_number"`
	Date         time.Time `db:"reservation_date"`
	Time         string    `db:"reservation_time"`
	People       int       `db:"people"`
	Status       Status    `db:"status"`
	model.Metadata
}
