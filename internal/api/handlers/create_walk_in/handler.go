package create_walk_in

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SlotBooking/internal/api/handlers"
	"github.com/m04kA/SMC-SlotBooking/internal/api/middleware"
	"github.com/m04kA/SMC-SlotBooking/internal/service/bookings/models"
	createWalkIn "github.com/m04kA/SMC-SlotBooking/internal/usecase/create_walk_in"
)

const (
	msgInvalidBusinessID  = "некорректный ID бизнеса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgBusinessNotFound   = "бизнес не найден"
	msgForbidden          = "доступ запрещен"
	msgNoServices         = "не выбрано ни одной услуги"
	msgServicesInvalid    = "услуги не принадлежат бизнесу"
	msgValidation         = "проверьте введенные данные"
	msgCapacityReached    = "все места заняты"
	msgTryAgain           = "сервис занят, попробуйте еще раз"
)

type Handler struct {
	useCase CreateWalkInUseCase
	logger  Logger
}

func NewHandler(useCase CreateWalkInUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/dashboard/businesses/{businessId}/walk-ins
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	businessID, err := handlers.PathID(r, "businessId")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBusinessID)
		return
	}
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateWalkInRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /walk-ins - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(businessID, userID))
	if err != nil {
		switch {
		case errors.Is(err, createWalkIn.ErrBusinessNotFound):
			handlers.RespondNotFound(w, msgBusinessNotFound)

		case errors.Is(err, createWalkIn.ErrAccessDenied):
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, createWalkIn.ErrNoServices):
			handlers.RespondErrorCode(w, http.StatusUnprocessableEntity, handlers.CodeNoServices, msgNoServices)

		case errors.Is(err, createWalkIn.ErrServicesInvalid):
			handlers.RespondErrorCode(w, http.StatusUnprocessableEntity, handlers.CodeServicesInvalid, msgServicesInvalid)

		case errors.Is(err, createWalkIn.ErrValidation):
			handlers.RespondValidation(w, handlers.CodeValidation, msgValidation, err)

		case errors.Is(err, createWalkIn.ErrCapacityReached):
			handlers.RespondError(w, http.StatusConflict, msgCapacityReached)

		case errors.Is(err, createWalkIn.ErrTryAgain):
			handlers.RespondError(w, http.StatusServiceUnavailable, msgTryAgain)

		default:
			h.logger.Error("POST /walk-ins - Failed to create walk-in: business_id=%d, error=%v", businessID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /walk-ins - Walk-in created: booking_id=%d, business_id=%d", result.Booking.ID, businessID)
	handlers.RespondJSON(w, http.StatusCreated, models.FromDomainBooking(result.Booking, result.Location))
}
