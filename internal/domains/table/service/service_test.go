package service_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"bistro/config"
	kafkaMocks "bistro/infras/kafka/mocks"
	"bistro/infras/otel/mocks"
	resMocks "bistro/internal/domains/reservation/mocks"
	resModel "bistro/internal/domains/reservation/model"
	tableMocks "bistro/internal/domains/table/mocks"
	"bistro/internal/domains/table/model"
	"bistro/internal/domains/table/model/dto"
	"bistro/internal/domains/table/service"
	cacheMocks "bistro/shared/cache/mocks"
	gDto "bistro/shared/dto"
	"bistro/shared/failure"
	gModel "bistro/shared/model"
	"bistro/shared/timezone"
)

func newService(t *testing.T) (service.Table, *tableMocks.MockTable, *resMocks.MockReservation) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockRepo := tableMocks.NewMockTable(ctrl)
	mockResRepo := resMocks.NewMockReservation(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 60

	svc := service.New(mockRepo, mockResRepo, cfg, cacheMocks.NewRedisCache(), kafkaMocks.NewClient(), mocks.NewOtel())

	return svc, mockRepo, mockResRepo
}

func freeTable(capacity int) model.Table {
	return model.Table{
		ID:       "table-1",
		Name:     "Window 2",
		Capacity: capacity,
		Metadata: gModel.Metadata{CreatedAt: timezone.Now(), UpdatedAt: timezone.Now()},
	}
}

func bookedReservation(people int) resModel.Reservation {
	return resModel.Reservation{
		ID:       "res-1",
		People:   people,
		Status:   resModel.StatusBooked,
		Metadata: gModel.Metadata{CreatedAt: timezone.Now(), UpdatedAt: timezone.Now()},
	}
}

func expectTx(mockRepo *tableMocks.MockTable) {
	mockRepo.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
}

func TestTableService_Create(t *testing.T) {
	t.Run("without reservation", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(nil)

		res, err := svc.Create(context.Background(), dto.CreateTableRequest{Name: "Window 2", Capacity: 4})

		assert.NoError(t, err)
		assert.NotEmpty(t, res.TableID)
		assert.False(t, res.Occupied)
	})

	t.Run("with existing reservation", func(t *testing.T) {
		svc, mockRepo, mockResRepo := newService(t)

		mockResRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)
		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(nil)

		res, err := svc.Create(context.Background(), dto.CreateTableRequest{
			Name:          "Window 2",
			Capacity:      4,
			ReservationID: "res-1",
		})

		assert.NoError(t, err)
		assert.True(t, res.Occupied)
	})

	t.Run("with unknown reservation", func(t *testing.T) {
		svc, _, mockResRepo := newService(t)

		mockResRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		_, err := svc.Create(context.Background(), dto.CreateTableRequest{
			Name:          "Window 2",
			Capacity:      4,
			ReservationID: "res-9",
		})

		assert.EqualError(t, err, "reservation res-9 does not exist")
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("duplicate table name", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("failed to insert data (table): %w", &pq.Error{Code: "23505"}))

		_, err := svc.Create(context.Background(), dto.CreateTableRequest{Name: "Window 2", Capacity: 4})

		assert.EqualError(t, err, "table Window 2 already exists")
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("reservation deleted between check and insert", func(t *testing.T) {
		svc, mockRepo, mockResRepo := newService(t)

		mockResRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)
		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("failed to insert data (table): %w", &pq.Error{Code: "23503"}))

		_, err := svc.Create(context.Background(), dto.CreateTableRequest{
			Name:          "Window 2",
			Capacity:      4,
			ReservationID: "res-1",
		})

		assert.EqualError(t, err, "reservation res-1 does not exist")
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestTableService_GetAll(t *testing.T) {
	svc, mockRepo, _ := newService(t)

	stored := []model.Table{freeTable(2), freeTable(4)}

	mockRepo.EXPECT().
		Count(gomock.Any(), gomock.Any()).
		Return(2, nil)
	mockRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.Table, error) {
			assert.Equal(t, model.FieldName, params.SortBy)
			assert.Equal(t, gDto.SortDirAsc, params.SortDir)

			return stored, nil
		})

	res, err := svc.GetAll(context.Background(), gDto.QueryParams{Limit: 10, Page: 1})

	assert.NoError(t, err)
	assert.Len(t, res.Tables, 2)
	assert.Equal(t, 2, res.TotalData)
}

func TestTableService_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(freeTable(4), nil)

		res, err := svc.Get(context.Background(), "table-1")

		assert.NoError(t, err)
		assert.Equal(t, "table-1", res.TableID)
	})

	t.Run("not found", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Table{}, nil)

		_, err := svc.Get(context.Background(), "missing")

		assert.EqualError(t, err, "table missing not found")
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestTableService_Seat(t *testing.T) {
	req := dto.SeatReservationRequest{ReservationID: "res-1"}

	t.Run("party fills the table exactly", func(t *testing.T) {
		svc, mockRepo, mockResRepo := newService(t)

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(freeTable(4), nil)
		mockResRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(bookedReservation(4), nil)

		expectTx(mockRepo)

		mockResRepo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Nil(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, resModel.StatusSeated, fields[resModel.FieldStatus])

				return nil
			})
		mockRepo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Nil(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, "res-1", fields[model.FieldReservationID])

				return nil
			})

		res, err := svc.Seat(context.Background(), "table-1", req)

		assert.NoError(t, err)
		assert.True(t, res.Occupied)
		assert.Equal(t, "res-1", *res.ReservationID)
	})

	t.Run("table not found", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Table{}, nil)

		_, err := svc.Seat(context.Background(), "missing", req)

		assert.EqualError(t, err, "table missing not found")
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("reservation not found", func(t *testing.T) {
		svc, mockRepo, mockResRepo := newService(t)

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(freeTable(4), nil)
		mockResRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(resModel.Reservation{}, nil)

		_, err := svc.Seat(context.Background(), "table-1", req)

		assert.EqualError(t, err, "reservation res-1 not found")
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("occupied table", func(t *testing.T) {
		svc, mockRepo, mockResRepo := newService(t)

		occupied := freeTable(4)
		other := "res-2"
		occupied.ReservationID = &other

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(occupied, nil)
		mockResRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(bookedReservation(2), nil)

		_, err := svc.Seat(context.Background(), "table-1", req)

		assert.EqualError(t, err, "table Window 2 is already occupied")
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("party exceeds capacity", func(t *testing.T) {
		svc, mockRepo, mockResRepo := newService(t)

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(freeTable(4), nil)
		mockResRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(bookedReservation(5), nil)

		_, err := svc.Seat(context.Background(), "table-1", req)

		assert.EqualError(t, err, "table Window 2 cannot seat reservation res-1: party of 5 exceeds capacity 4")
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("reservation already seated elsewhere", func(t *testing.T) {
		svc, mockRepo, mockResRepo := newService(t)

		seated := bookedReservation(2)
		seated.Status = resModel.StatusSeated

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(freeTable(4), nil)
		mockResRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(seated, nil)

		_, err := svc.Seat(context.Background(), "table-1", req)

		assert.EqualError(t, err, "reservation res-1 is already seated at another table")
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("archived reservation", func(t *testing.T) {
		svc, mockRepo, mockResRepo := newService(t)

		finished := bookedReservation(2)
		finished.Status = resModel.StatusFinished

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(freeTable(4), nil)
		mockResRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(finished, nil)

		_, err := svc.Seat(context.Background(), "table-1", req)

		assert.EqualError(t, err, "reservation res-1 is archived and cannot be seated")
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("cancelled reservation", func(t *testing.T) {
		svc, mockRepo, mockResRepo := newService(t)

		cancelled := bookedReservation(2)
		cancelled.Status = resModel.StatusCancelled

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(freeTable(4), nil)
		mockResRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(cancelled, nil)

		_, err := svc.Seat(context.Background(), "table-1", req)

		assert.EqualError(t, err, "a cancelled reservation cannot be updated")
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})
}

func TestTableService_Unseat(t *testing.T) {
	t.Run("successful unseat", func(t *testing.T) {
		svc, mockRepo, mockResRepo := newService(t)

		occupied := freeTable(4)
		reservationID := "res-1"
		occupied.ReservationID = &reservationID

		seated := bookedReservation(4)
		seated.Status = resModel.StatusSeated

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(occupied, nil)
		mockResRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(seated, nil)

		expectTx(mockRepo)

		mockResRepo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Nil(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, resModel.StatusFinished, fields[resModel.FieldStatus])

				return nil
			})
		mockRepo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Nil(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Nil(t, fields[model.FieldReservationID])

				return nil
			})

		res, err := svc.Unseat(context.Background(), "table-1")

		assert.NoError(t, err)
		assert.False(t, res.Occupied)
		assert.Nil(t, res.ReservationID)
	})

	t.Run("vacant table", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(freeTable(4), nil)

		_, err := svc.Unseat(context.Background(), "table-1")

		assert.EqualError(t, err, "table Window 2 is not occupied")
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("table not found", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Table{}, nil)

		_, err := svc.Unseat(context.Background(), "missing")

		assert.EqualError(t, err, "table missing not found")
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}
