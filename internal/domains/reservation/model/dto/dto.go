package dto

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"bistro/internal/domains/reservation/model"
	"bistro/shared"
	"bistro/shared/constant"
	gDto "bistro/shared/dto"
	"bistro/shared/failure"
	gModel "bistro/shared/model"
	"bistro/shared/timezone"
)

// AllowedFields is the whitelist of request body keys for create and update.
var AllowedFields = []string{
	model.FieldID,
	model.FieldFirstName,
	model.FieldLastName,
	model.FieldMobileNumber,
	model.FieldDate,
	model.FieldTime,
	model.FieldPeople,
	model.FieldStatus,
	constant.FieldCreatedAt,
	constant.FieldUpdatedAt,
}

// QueryFields is the whitelist of list query keys, the searchable columns.
var QueryFields = []string{
	model.FieldID,
	model.FieldFirstName,
	model.FieldLastName,
	model.FieldMobileNumber,
	model.FieldDate,
	model.FieldTime,
	model.FieldPeople,
	model.FieldStatus,
}

// Times only need to lead with HH:MM; trailing seconds are tolerated.
var timePattern = regexp.MustCompile(`^\d{2}:\d{2}`)

type CreateReservationRequest struct {
	FirstName    string `json:"first_name"       validate:"required"`
	LastName     string `json:"last_name"        validate:"required"`
	MobileNumber string `json:"mobile_number"    validate:"required"`
	Date         string `json:"reservation_date" validate:"required,datetime=2006-01-02"`
	Time         string `json:"reservation_time" validate:"required"`
	People       int    `json:"people"           validate:"required,gt=0"`
	Status       string `json:"status"           validate:"omitempty,oneof=booked"`
}

func (c *CreateReservationRequest) ToModel() (model.Reservation, error) {
	date, err := timezone.Parse(constant.DateOnlyFormat, c.Date)
	if err != nil {
		return model.Reservation{}, failure.BadRequestFromString(fmt.Sprintf("reservation_date is not a valid date: %s", c.Date)) //nolint:wrapcheck
	}

	clock, err := parseClock(c.Time)
	if err != nil {
		return model.Reservation{}, err
	}

	return model.Reservation{
		ID:           uuid.NewString(),
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		MobileNumber: c.MobileNumber,
		Date:         date,
		Time:         clock,
		People:       c.People,
		Status:       model.StatusBooked,
		Metadata: gModel.Metadata{
			CreatedAt: timezone.Now(),
			UpdatedAt: timezone.Now(),
		},
	}, nil
}

type UpdateReservationRequest struct {
	ReservationID string `json:"reservation_id"   validate:"omitempty"`
	FirstName     string `json:"first_name"       validate:"required"`
	LastName      string `json:"last_name"        validate:"required"`
	MobileNumber  string `json:"mobile_number"    validate:"required"`
	Date          string `json:"reservation_date" validate:"required,datetime=2006-01-02"`
	Time          string `json:"reservation_time" validate:"required"`
	People        int    `json:"people"           validate:"required,gt=0"`
	Status        string `json:"status"           validate:"omitempty,oneof=booked"`
	CreatedAt     string `json:"created_at"       validate:"omitempty"`
	UpdatedAt     string `json:"updated_at"       validate:"omitempty"`
}

// Fields returns the columns a full update writes. updated_at is stamped by
// the service; any client-supplied value is discarded.
func (u *UpdateReservationRequest) Fields() (map[string]any, error) {
	date, err := timezone.Parse(constant.DateOnlyFormat, u.Date)
	if err != nil {
		return nil, failure.BadRequestFromString(fmt.Sprintf("reservation_date is not a valid date: %s", u.Date)) //nolint:wrapcheck
	}

	clock, err := parseClock(u.Time)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		model.FieldFirstName:    u.FirstName,
		model.FieldLastName:     u.LastName,
		model.FieldMobileNumber: u.MobileNumber,
		model.FieldDate:         date,
		model.FieldTime:         clock,
		model.FieldPeople:       u.People,
	}, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// StatusAllowedFields restricts the status-only endpoint to its single key.
var StatusAllowedFields = []string{model.FieldStatus}

type ReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	MobileNumber  string `json:"mobile_number"`
	Date          string `json:"reservation_date"`
	Time          string `json:"reservation_time"`
	People        int    `json:"people"`
	Status        string `json:"status"`
	gDto.Metadata
}

func (r *ReservationResponse) FromModel(res model.Reservation) {
	r.ReservationID = res.ID
	r.FirstName = res.FirstName
	r.LastName = res.LastName
	r.MobileNumber = res.MobileNumber
	r.Date = res.Date.Format(constant.DateOnlyFormat)
	r.Time = res.Time
	r.People = res.People
	r.Status = res.Status.String()
	r.Metadata.FromModel(res.Metadata)
}

type GetReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetReservationsResponse) FromModels(models []model.Reservation, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reservations = make([]ReservationResponse, len(models))
	for i, mod := range models {
		r.Reservations[i].FromModel(mod)
	}
}

// ReservationQuery captures the recognized list filters after query
// validation: an exact date filter or per-field substring conditions.
type ReservationQuery struct {
	Date   string
	Fields map[string]string
}

const (
	EventCreated   = "reservation.created"
	EventUpdated   = "reservation.updated"
	EventSeated    = "reservation.seated"
	EventFinished  = "reservation.finished"
	EventCancelled = "reservation.cancelled"
)

// ReservationEvent is the payload published to the lifecycle topic.
type ReservationEvent struct {
	Type        string              `json:"type"`
	Reservation ReservationResponse `json:"reservation"`
	At          time.Time           `json:"at"`
}

func parseClock(value string) (string, error) {
	if !timePattern.MatchString(value) {
		return "", failure.BadRequestFromString(fmt.Sprintf("reservation_time must be in HH:MM format: %s", value)) //nolint:wrapcheck
	}

	clock := value[:5]

	if _, err := time.Parse(constant.TimeOnlyFormat, clock); err != nil {
		return "", failure.BadRequestFromString(fmt.Sprintf("reservation_time is not a valid time: %s", value)) //nolint:wrapcheck
	}

	return clock, nil
}
