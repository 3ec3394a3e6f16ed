package reservation

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bistro/infras/otel"
	"bistro/internal/domains/reservation/model/dto"
	"bistro/internal/domains/reservation/service"
	"bistro/shared/constant"
	gDto "bistro/shared/dto"
	"bistro/shared/failure"
	"bistro/shared/timezone"
	"bistro/shared/validator"
	"bistro/transport/http/response"
)

type Handler struct {
	service service.Reservation
	otel    otel.Otel
}

func New(service service.Reservation, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/reservations", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateReservation)
		routerGroup.Get("/", handler.GetReservations)
		routerGroup.Get("/{id}", handler.GetReservationByID)
		routerGroup.Put("/{id}", handler.UpdateReservation)
		routerGroup.Put("/{id}/status", handler.UpdateReservationStatus)
	})
}

// CreateReservation handles the creation of a new reservation.
// @Summary Create a new reservation
// @Description Create a reservation for a future moment during opening hours.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param request body dto.CreateReservationRequest true "Create Reservation Request"
// @Success 201 {object} response.Data[dto.ReservationResponse] "Created reservation"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations [post]
func (handler *Handler) CreateReservation(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateReservation")
	defer scope.End()

	req := dto.CreateReservationRequest{}

	if err := validator.ValidateAllowed(request.Body, &req, dto.AllowedFields...); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create reservation")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Reservation created successfully")

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetReservations retrieves reservations based on query parameters.
// @Summary List reservations
// @Description List all reservations, reservations on a date, or reservations matching per-field substring filters.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param date query string false "Filter by reservation date (YYYY-MM-DD), excludes finished reservations"
// @Param mobile_number query string false "Substring filter on mobile number"
// @Success 200 {object} response.Data[dto.GetReservationsResponse] "List of reservations"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations [get]
func (handler *Handler) GetReservations(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservations")
	defer scope.End()

	query, err := parseQuery(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate query parameters")

		response.WithError(w, err)

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, false)

	reservations, err := handler.service.GetAll(ctx, queryParams, query)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservations")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservations retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservations)
}

// GetReservationByID retrieves a reservation by its ID.
// @Summary Get a reservation by ID
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Data[dto.ReservationResponse] "Reservation details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [get]
func (handler *Handler) GetReservationByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservationByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	reservation, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservation by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservation retrieved successfully")

	response.WithJSON(w, http.StatusOK, reservation)
}

// UpdateReservation replaces the editable fields of a booked reservation.
// @Summary Update a reservation by ID
// @Description Full update of a booked reservation; identifier and creation timestamp are immutable.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body dto.UpdateReservationRequest true "Update Reservation Request"
// @Success 200 {object} response.Data[dto.ReservationResponse] "Updated reservation"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [put]
func (handler *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateReservationRequest{}
	if err := validator.ValidateAllowed(r.Body, &req, dto.AllowedFields...); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Update(ctx, req, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update reservation")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservation updated successfully")

	response.WithJSON(w, http.StatusOK, res)
}

// UpdateReservationStatus moves a reservation through its lifecycle.
// @Summary Update reservation status
// @Description Apply a status transition (booked, seated, finished, cancelled) subject to the lifecycle rules.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body dto.UpdateStatusRequest true "Update Status Request"
// @Success 200 {object} response.Data[dto.ReservationResponse] "Updated reservation"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id}/status [put]
func (handler *Handler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateReservationStatus")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateStatusRequest{}
	if err := validator.ValidateAllowed(r.Body, &req, dto.StatusAllowedFields...); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update reservation status")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Reservation status updated successfully")

	response.WithJSON(w, http.StatusOK, res)
}

// parseQuery validates list query keys against the recognized set and splits
// them into the date filter and per-field substring filters.
func parseQuery(r *http.Request) (dto.ReservationQuery, error) {
	query := dto.ReservationQuery{Fields: map[string]string{}}

	for key, values := range r.URL.Query() {
		switch {
		case key == constant.RequestParamPage,
			key == constant.RequestParamLimit,
			key == constant.RequestParamSortDir:
			continue
		case key == constant.RequestParamSortBy:
			// Sort columns reach the SQL ORDER BY clause, so only known
			// column names pass.
			if len(values) > 0 && values[0] != constant.Empty && !slices.Contains(dto.QueryFields, values[0]) {
				return query, failure.BadRequestFromString(fmt.Sprintf("cannot sort by %s", values[0])) //nolint:wrapcheck
			}
		case key == constant.RequestParamDate:
			if len(values) > 0 && values[0] != constant.Empty {
				if _, err := timezone.Parse(constant.DateOnlyFormat, values[0]); err != nil {
					return query, failure.BadRequestFromString(fmt.Sprintf("date is not a valid date: %s", values[0])) //nolint:wrapcheck
				}

				query.Date = values[0]
			}
		case slices.Contains(dto.QueryFields, key):
			if len(values) > 0 && values[0] != constant.Empty {
				query.Fields[key] = values[0]
			}
		default:
			return query, failure.BadRequestFromString(fmt.Sprintf("unknown query parameter: %s", key)) //nolint:wrapcheck
		}
	}

	return query, nil
}
