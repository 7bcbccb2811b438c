package create_booking

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SlotBooking/internal/api/handlers"
	createBooking "github.com/m04kA/SMC-SlotBooking/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты бронирования, ожидается YYYY-MM-DD"
	msgInvalidTime        = "некорректный формат времени начала, ожидается HH:MM"
	msgBusinessNotFound   = "бизнес не найден"
	msgNoServices         = "не выбрано ни одной услуги"
	msgServicesInvalid    = "услуги не принадлежат бизнесу"
	msgValidation         = "проверьте введенные данные"
	msgSlotUnavailable    = "выбранное время уже занято, выберите другое"
	msgTryAgain           = "сервис занят, попробуйте еще раз"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/businesses/{slug}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /businesses/{slug}/bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(slug)
	if err != nil {
		h.logger.Warn("POST /businesses/{slug}/bookings - Failed to parse request: %v", err)
		var timeErr errInvalidTime
		if errors.As(err, &timeErr) {
			handlers.RespondBadRequest(w, msgInvalidTime)
		} else {
			handlers.RespondBadRequest(w, msgInvalidDate)
		}
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrBusinessNotFound):
			handlers.RespondNotFound(w, msgBusinessNotFound)

		case errors.Is(err, createBooking.ErrNoServices):
			handlers.RespondErrorCode(w, http.StatusUnprocessableEntity, handlers.CodeNoServices, msgNoServices)

		case errors.Is(err, createBooking.ErrServicesInvalid):
			handlers.RespondErrorCode(w, http.StatusUnprocessableEntity, handlers.CodeServicesInvalid, msgServicesInvalid)

		case errors.Is(err, createBooking.ErrValidation):
			handlers.RespondValidation(w, handlers.CodeValidation, msgValidation, err)

		case errors.Is(err, createBooking.ErrSlotUnavailable):
			h.logger.Warn("POST /businesses/{slug}/bookings - Slot unavailable: slug=%s, date=%s, time=%s",
				slug, req.BookingDate, req.StartTime)
			handlers.RespondErrorCode(w, http.StatusConflict, handlers.CodeSlotUnavailable, msgSlotUnavailable)

		case errors.Is(err, createBooking.ErrTryAgain):
			w.Header().Set("Retry-After", "1")
			handlers.RespondError(w, http.StatusServiceUnavailable, msgTryAgain)

		case errors.Is(err, createBooking.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("POST /businesses/{slug}/bookings - Failed to create booking: slug=%s, error=%v", slug, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /businesses/{slug}/bookings - Booking created successfully: booking_id=%d, business_id=%d",
		result.ID, result.BusinessID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
