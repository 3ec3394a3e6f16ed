package table

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	otelMocks "bistro/infras/otel/mocks"
	"bistro/internal/domains/table/model/dto"
	gDto "bistro/shared/dto"
)

// stubService records the list parameters the handler forwards and answers
// with empty payloads.
type stubService struct {
	gotParams gDto.QueryParams
	listed    bool
}

func (s *stubService) Create(_ context.Context, _ dto.CreateTableRequest) (dto.TableResponse, error) {
	return dto.TableResponse{}, nil
}

func (s *stubService) GetAll(_ context.Context, params gDto.QueryParams) (dto.GetTablesResponse, error) {
	s.gotParams = params
	s.listed = true

	return dto.GetTablesResponse{}, nil
}

func (s *stubService) Get(_ context.Context, _ string) (dto.TableResponse, error) {
	return dto.TableResponse{}, nil
}

func (s *stubService) Seat(_ context.Context, _ string, _ dto.SeatReservationRequest) (dto.TableResponse, error) {
	return dto.TableResponse{}, nil
}

func (s *stubService) Unseat(_ context.Context, _ string) (dto.TableResponse, error) {
	return dto.TableResponse{}, nil
}

func listTables(t *testing.T, service *stubService, target string) *httptest.ResponseRecorder {
	t.Helper()

	handler := New(service, otelMocks.NewOtel())

	router := chi.NewRouter()
	router.Route("/v1", func(routerGroup chi.Router) {
		handler.Router(routerGroup)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	return recorder
}

func TestGetTables_SortValidation(t *testing.T) {
	t.Run("sort column outside the whitelist is rejected", func(t *testing.T) {
		service := &stubService{}
		recorder := listTables(t, service, "/v1/tables?sort_by=capacity%3B+DROP+TABLE+tables--&sort_dir=DESC")

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "cannot sort by capacity; DROP TABLE tables--")
		assert.False(t, service.listed)
	})

	t.Run("whitelisted sort column reaches the service", func(t *testing.T) {
		service := &stubService{}
		recorder := listTables(t, service, "/v1/tables?sort_by=capacity&sort_dir=DESC")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, service.listed)
		assert.Equal(t, "capacity", service.gotParams.SortBy)
		assert.Equal(t, gDto.SortDirDesc, service.gotParams.SortDir)
	})

	t.Run("absent sort params fall through to the service defaults", func(t *testing.T) {
		service := &stubService{}
		recorder := listTables(t, service, "/v1/tables")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Empty(t, service.gotParams.SortBy)
	})
}
