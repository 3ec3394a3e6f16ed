package table

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bistro/infras/otel"
	"bistro/internal/domains/table/model/dto"
	"bistro/internal/domains/table/service"
	"bistro/shared/constant"
	gDto "bistro/shared/dto"
	"bistro/shared/failure"
	"bistro/shared/validator"
	"bistro/transport/http/response"
)

type Handler struct {
	service service.Table
	otel    otel.Otel
}

func New(service service.Table, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/tables", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateTable)
		routerGroup.Get("/", handler.GetTables)
		routerGroup.Get("/{id}", handler.GetTableByID)
		routerGroup.Put("/{id}/seat", handler.SeatReservation)
		routerGroup.Delete("/{id}/seat", handler.UnseatReservation)
	})
}

// CreateTable handles the creation of a new table.
// @Summary Create a new table
// @Description Create a table; supplying a reservation_id creates it already occupied.
// @Tags Table
// @Accept json
// @Produce json
// @Param request body dto.CreateTableRequest true "Create Table Request"
// @Success 201 {object} response.Data[dto.TableResponse] "Created table"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tables [post]
func (handler *Handler) CreateTable(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateTable")
	defer scope.End()

	req := dto.CreateTableRequest{}

	if err := validator.ValidateAllowed(request.Body, &req, dto.AllowedFields...); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create table")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Table created successfully")

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetTables retrieves all tables ordered by name.
// @Summary List tables
// @Description List all tables ordered by table name. A date query parameter is accepted but has no filtering effect.
// @Tags Table
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetTablesResponse] "List of tables"
// @Failure 500 {object} response.Error
// @Router /v1/tables [get]
func (handler *Handler) GetTables(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTables")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, false)

	// Sort columns reach the SQL ORDER BY clause, so only known column
	// names pass.
	if queryParams.SortBy != constant.Empty && !slices.Contains(dto.SortFields, queryParams.SortBy) {
		err := failure.BadRequestFromString(fmt.Sprintf("cannot sort by %s", queryParams.SortBy))

		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate query parameters")

		response.WithError(w, err)

		return
	}

	tables, err := handler.service.GetAll(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get tables")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Tables retrieved successfully")

	response.WithJSON(w, http.StatusOK, tables)
}

// GetTableByID retrieves a table by its ID.
// @Summary Get a table by ID
// @Tags Table
// @Accept json
// @Produce json
// @Param id path string true "Table ID"
// @Success 200 {object} response.Data[dto.TableResponse] "Table details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tables/{id} [get]
func (handler *Handler) GetTableByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTableByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	table, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get table by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Table retrieved successfully")

	response.WithJSON(w, http.StatusOK, table)
}

// SeatReservation assigns a reservation to a table.
// @Summary Seat a reservation at a table
// @Description Assign a reservation to a free table with sufficient capacity; the reservation becomes seated.
// @Tags Table
// @Accept json
// @Produce json
// @Param id path string true "Table ID"
// @Param request body dto.SeatReservationRequest true "Seat Reservation Request"
// @Success 200 {object} response.Data[dto.TableResponse] "Occupied table"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tables/{id}/seat [put]
func (handler *Handler) SeatReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SeatReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.SeatReservationRequest{}
	if err := validator.ValidateAllowed(r.Body, &req, dto.SeatAllowedFields...); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Seat(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to seat reservation")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservation seated successfully")

	response.WithJSON(w, http.StatusOK, res)
}

// UnseatReservation clears a table and finishes its reservation.
// @Summary Unseat a table
// @Description Clear an occupied table; the reservation transitions to finished.
// @Tags Table
// @Accept json
// @Produce json
// @Param id path string true "Table ID"
// @Success 200 {object} response.Data[dto.TableResponse] "Vacated table"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tables/{id}/seat [delete]
func (handler *Handler) UnseatReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UnseatReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	res, err := handler.service.Unseat(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to unseat table")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Table unseated successfully")

	response.WithJSON(w, http.StatusOK, res)
}
