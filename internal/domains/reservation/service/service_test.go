package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"bistro/config"
	kafkaMocks "bistro/infras/kafka/mocks"
	"bistro/infras/otel/mocks"
	resMocks "bistro/internal/domains/reservation/mocks"
	"bistro/internal/domains/reservation/model"
	"bistro/internal/domains/reservation/model/dto"
	"bistro/internal/domains/reservation/service"
	cacheMocks "bistro/shared/cache/mocks"
	"bistro/shared/constant"
	gDto "bistro/shared/dto"
	"bistro/shared/failure"
	gModel "bistro/shared/model"
	"bistro/shared/timezone"
)

func testConfig(closedDays ...string) *config.Config {
	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.Restaurant.ClosedDays = closedDays
	cfg.Restaurant.OpenTime = "10:30"
	cfg.Restaurant.CloseTime = "21:30"

	return cfg
}

// nextWeek lands on the same weekday seven days out, so tests can steer the
// closed-day check relative to the wall clock.
func nextWeek() (date string, weekday string, otherWeekday string) {
	target := timezone.Now().AddDate(0, 0, 7)

	return target.Format(constant.DateOnlyFormat),
		target.Weekday().String(),
		target.AddDate(0, 0, 1).Weekday().String()
}

func newService(t *testing.T, cfg *config.Config) (service.Reservation, *resMocks.MockReservation) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockRepo := resMocks.NewMockReservation(ctrl)

	svc := service.New(mockRepo, cfg, cacheMocks.NewRedisCache(), kafkaMocks.NewClient(), mocks.NewOtel())

	return svc, mockRepo
}

func TestReservationService_Create(t *testing.T) {
	date, weekday, otherWeekday := nextWeek()

	valid := dto.CreateReservationRequest{
		FirstName:    "Grace",
		LastName:     "Hopper",
		MobileNumber: "0123456789",
		Date:         date,
		Time:         "19:30",
		People:       4,
	}

	tests := []struct {
		name      string
		req       dto.CreateReservationRequest
		cfg       *config.Config
		setupMock func(repo *resMocks.MockReservation)
		wantErr   string
		wantCode  int
	}{
		{
			name: "successful creation",
			req:  valid,
			cfg:  testConfig(otherWeekday),
			setupMock: func(repo *resMocks.MockReservation) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "past date rejected",
			req: dto.CreateReservationRequest{
				FirstName:    "Grace",
				LastName:     "Hopper",
				MobileNumber: "0123456789",
				Date:         "2020-01-01",
				Time:         "19:30",
				People:       4,
			},
			cfg:      testConfig(otherWeekday),
			wantErr:  "reservation must be in the future",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "closed day rejected",
			req:      valid,
			cfg:      testConfig(weekday),
			wantErr:  fmt.Sprintf("the restaurant is closed on %ss.", weekday),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "two closed days are spelled out",
			req:      valid,
			cfg:      testConfig(weekday, otherWeekday),
			wantErr:  fmt.Sprintf("the restaurant is closed on %ss and %ss.", weekday, otherWeekday),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "three closed days are comma separated",
			req:  valid,
			cfg: testConfig(
				weekday,
				otherWeekday,
				timezone.Now().AddDate(0, 0, 9).Weekday().String(),
			),
			wantErr: fmt.Sprintf("the restaurant is closed on %ss, %ss and %ss.",
				weekday,
				otherWeekday,
				timezone.Now().AddDate(0, 0, 9).Weekday().String(),
			),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "before opening rejected",
			req: dto.CreateReservationRequest{
				FirstName:    "Grace",
				LastName:     "Hopper",
				MobileNumber: "0123456789",
				Date:         date,
				Time:         "09:00",
				People:       4,
			},
			cfg:      testConfig(otherWeekday),
			wantErr:  "reservation time must be between 10:30 and 21:30",
			wantCode: http.StatusBadRequest,
		},
		{
			name: "after closing rejected",
			req: dto.CreateReservationRequest{
				FirstName:    "Grace",
				LastName:     "Hopper",
				MobileNumber: "0123456789",
				Date:         date,
				Time:         "22:00",
				People:       4,
			},
			cfg:      testConfig(otherWeekday),
			wantErr:  "reservation time must be between 10:30 and 21:30",
			wantCode: http.StatusBadRequest,
		},
		{
			name: "malformed time rejected",
			req: dto.CreateReservationRequest{
				FirstName:    "Grace",
				LastName:     "Hopper",
				MobileNumber: "0123456789",
				Date:         date,
				Time:         "7:30",
				People:       4,
			},
			cfg:      testConfig(otherWeekday),
			wantErr:  "reservation_time must be in HH:MM format: 7:30",
			wantCode: http.StatusBadRequest,
		},
		{
			name: "repository error",
			req:  valid,
			cfg:  testConfig(otherWeekday),
			setupMock: func(repo *resMocks.MockReservation) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantErr: "failed to create reservation: database error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo := newService(t, tt.cfg)

			if tt.setupMock != nil {
				tt.setupMock(mockRepo)
			}

			res, err := svc.Create(context.Background(), tt.req)

			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, res.ReservationID)
			assert.Equal(t, "booked", res.Status)
			assert.Equal(t, tt.req.Date, res.Date)
			assert.Equal(t, "19:30", res.Time)
		})
	}
}

func TestReservationService_Get(t *testing.T) {
	stored := model.Reservation{
		ID:        "res-1",
		FirstName: "Grace",
		Status:    model.StatusBooked,
		Metadata:  gModel.Metadata{CreatedAt: timezone.Now(), UpdatedAt: timezone.Now()},
	}

	t.Run("found", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig())

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(stored, nil)

		res, err := svc.Get(context.Background(), "res-1")

		assert.NoError(t, err)
		assert.Equal(t, "res-1", res.ReservationID)
	})

	t.Run("not found", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig())

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Reservation{}, nil)

		_, err := svc.Get(context.Background(), "missing")

		assert.EqualError(t, err, "reservation missing not found")
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestReservationService_GetAll(t *testing.T) {
	stored := []model.Reservation{
		{ID: "res-1", Status: model.StatusBooked, Time: "18:00"},
		{ID: "res-2", Status: model.StatusBooked, Time: "19:00"},
	}

	tests := []struct {
		name        string
		query       dto.ReservationQuery
		wantSortBy  string
		wantSortDir string
		wantFilters int
		wantOp      string
	}{
		{
			name:        "no query lists by identifier",
			query:       dto.ReservationQuery{},
			wantSortBy:  model.FieldID,
			wantSortDir: gDto.SortDirAsc,
			wantFilters: 0,
		},
		{
			name:        "date query excludes finished and sorts by time",
			query:       dto.ReservationQuery{Date: "2031-05-14"},
			wantSortBy:  model.FieldTime,
			wantSortDir: gDto.SortDirAsc,
			wantFilters: 2,
		},
		{
			name: "field query matches substrings newest first",
			query: dto.ReservationQuery{Fields: map[string]string{
				model.FieldFirstName: "gra",
				model.FieldStatus:    "book",
			}},
			wantSortBy:  model.FieldDate,
			wantSortDir: gDto.SortDirDesc,
			wantFilters: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo := newService(t, testConfig())

			var gotFilter gDto.FilterGroup

			mockRepo.EXPECT().
				Count(gomock.Any(), gomock.Any()).
				Return(len(stored), nil)

			mockRepo.EXPECT().
				GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, params gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Reservation, error) {
					gotFilter = filter

					assert.Equal(t, tt.wantSortBy, params.SortBy)
					assert.Equal(t, tt.wantSortDir, params.SortDir)

					return stored, nil
				})

			res, err := svc.GetAll(context.Background(), gDto.QueryParams{Limit: 10, Page: 1}, tt.query)

			assert.NoError(t, err)
			assert.Len(t, res.Reservations, 2)
			assert.Equal(t, 2, res.TotalData)
			assert.Len(t, gotFilter.Filters, tt.wantFilters)
		})
	}
}

func TestReservationService_Update(t *testing.T) {
	date, _, otherWeekday := nextWeek()

	booked := model.Reservation{
		ID:        "res-1",
		FirstName: "Grace",
		Status:    model.StatusBooked,
		Time:      "18:00",
		Metadata:  gModel.Metadata{CreatedAt: timezone.Now(), UpdatedAt: timezone.Now()},
	}

	valid := dto.UpdateReservationRequest{
		FirstName:    "Grace",
		LastName:     "Hopper",
		MobileNumber: "0123456789",
		Date:         date,
		Time:         "19:30",
		People:       4,
	}

	t.Run("successful update", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig(otherWeekday))

		updated := booked
		updated.LastName = "Hopper"
		updated.Time = "19:30"

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(booked, nil)
		mockRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, "19:30", fields[model.FieldTime])
				assert.Contains(t, fields, constant.FieldUpdatedAt)
				assert.NotContains(t, fields, model.FieldStatus)

				return nil
			})
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(updated, nil)

		res, err := svc.Update(context.Background(), valid, "res-1")

		assert.NoError(t, err)
		assert.Equal(t, "19:30", res.Time)
	})

	t.Run("not found", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig(otherWeekday))

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Reservation{}, nil)

		_, err := svc.Update(context.Background(), valid, "missing")

		assert.EqualError(t, err, "reservation missing not found")
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	for _, status := range []model.Status{model.StatusSeated, model.StatusFinished, model.StatusCancelled} {
		t.Run("a "+status.String()+" reservation cannot be edited", func(t *testing.T) {
			svc, mockRepo := newService(t, testConfig(otherWeekday))

			stored := booked
			stored.Status = status

			mockRepo.EXPECT().
				Get(gomock.Any(), gomock.Any()).
				Return(stored, nil)

			_, err := svc.Update(context.Background(), valid, "res-1")

			assert.EqualError(t, err, fmt.Sprintf("a %s reservation cannot be edited", status))
			assert.Equal(t, http.StatusConflict, failure.GetCode(err))
		})
	}

	t.Run("identifier cannot be changed", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig(otherWeekday))

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(booked, nil)

		req := valid
		req.ReservationID = "other-id"

		_, err := svc.Update(context.Background(), req, "res-1")

		assert.EqualError(t, err, "reservation_id cannot be changed")
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("created_at cannot be changed", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig(otherWeekday))

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(booked, nil)

		req := valid
		req.CreatedAt = "1999-01-01T00:00:00Z"

		_, err := svc.Update(context.Background(), req, "res-1")

		assert.EqualError(t, err, "created_at cannot be changed")
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("schedule still applies on update", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig(otherWeekday))

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(booked, nil)

		req := valid
		req.Time = "09:00"

		_, err := svc.Update(context.Background(), req, "res-1")

		assert.EqualError(t, err, "reservation time must be between 10:30 and 21:30")
	})
}

func TestReservationService_UpdateStatus(t *testing.T) {
	booked := model.Reservation{
		ID:       "res-1",
		Status:   model.StatusBooked,
		Metadata: gModel.Metadata{CreatedAt: timezone.Now(), UpdatedAt: timezone.Now()},
	}

	t.Run("booked to cancelled", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig())

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(booked, nil)
		mockRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		res, err := svc.UpdateStatus(context.Background(), "res-1", "cancelled")

		assert.NoError(t, err)
		assert.Equal(t, "cancelled", res.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig())

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(booked, nil)

		_, err := svc.UpdateStatus(context.Background(), "res-1", "archived")

		assert.EqualError(t, err, "unknown status: archived")
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("terminal reservation", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig())

		stored := booked
		stored.Status = model.StatusCancelled

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(stored, nil)

		_, err := svc.UpdateStatus(context.Background(), "res-1", "booked")

		assert.EqualError(t, err, "a cancelled reservation cannot be updated")
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("illegal transition", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig())

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(booked, nil)

		_, err := svc.UpdateStatus(context.Background(), "res-1", "finished")

		assert.EqualError(t, err, "a booked reservation cannot be changed to finished")
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("not found", func(t *testing.T) {
		svc, mockRepo := newService(t, testConfig())

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Reservation{}, nil)

		_, err := svc.UpdateStatus(context.Background(), "missing", "cancelled")

		assert.EqualError(t, err, "reservation missing not found")
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}
