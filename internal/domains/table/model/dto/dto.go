package dto

import (
	"github.com/google/uuid"

	"bistro/internal/domains/table/model"
	"bistro/shared"
	gDto "bistro/shared/dto"
	gModel "bistro/shared/model"
	"bistro/shared/timezone"
)

// AllowedFields is the whitelist of request body keys for table creation.
var AllowedFields = []string{
	model.FieldName,
	model.FieldCapacity,
	model.FieldReservationID,
}

// SortFields is the whitelist of columns the table list can be sorted by.
var SortFields = []string{
	model.FieldID,
	model.FieldName,
	model.FieldCapacity,
}

type CreateTableRequest struct {
	Name          string `json:"table_name"     validate:"required,min=2"`
	Capacity      int    `json:"capacity"       validate:"required,min=1"`
	ReservationID string `json:"reservation_id" validate:"omitempty,uuid"`
}

func (c *CreateTableRequest) ToModel() model.Table {
	var reservationID *string
	if c.ReservationID != "" {
		reservationID = &c.ReservationID
	}

	return model.Table{
		ID:            uuid.NewString(),
		Name:          c.Name,
		Capacity:      c.Capacity,
		ReservationID: reservationID,
		Metadata: gModel.Metadata{
			CreatedAt: timezone.Now(),
			UpdatedAt: timezone.Now(),
		},
	}
}

type SeatReservationRequest struct {
	ReservationID string `json:"reservation_id" validate:"required"`
}

// SeatAllowedFields restricts the seat endpoint body to its single key.
var SeatAllowedFields = []string{model.FieldReservationID}

type TableResponse struct {
	TableID       string  `json:"table_id"`
	Name          string  `json:"table_name"`
	Capacity      int     `json:"capacity"`
	Occupied      bool    `json:"occupied"`
	ReservationID *string `json:"reservation_id"`
	gDto.Metadata
}

func (r *TableResponse) FromModel(table model.Table) {
	r.TableID = table.ID
	r.Name = table.Name
	r.Capacity = table.Capacity
	r.Occupied = table.Occupied()
	r.ReservationID = table.ReservationID
	r.Metadata.FromModel(table.Metadata)
}

type GetTablesResponse struct {
	Tables    []TableResponse `json:"tables"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetTablesResponse) FromModels(models []model.Table, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Tables = make([]TableResponse, len(models))
	for i, mod := range models {
		r.Tables[i].FromModel(mod)
	}
}
