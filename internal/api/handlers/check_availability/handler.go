package check_availability

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SlotBooking/internal/api/handlers"
	checkAvailability "github.com/m04kA/SMC-SlotBooking/internal/usecase/check_availability"
)

const (
	msgInvalidParams    = "некорректные параметры: ожидаются serviceIds=1,2 и date=YYYY-MM-DD"
	msgBusinessNotFound = "бизнес не найден"
	msgServicesInvalid  = "услуги не принадлежат бизнесу"
)

type Handler struct {
	useCase CheckAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase CheckAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/businesses/{slug}/availability?serviceIds=1,2&date=2025-10-15
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	query := r.URL.Query()

	req, err := ToUseCaseRequest(slug, query.Get("serviceIds"), query.Get("date"))
	if err != nil {
		h.logger.Warn("GET /businesses/{slug}/availability - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, checkAvailability.ErrBusinessNotFound):
			handlers.RespondNotFound(w, msgBusinessNotFound)

		case errors.Is(err, checkAvailability.ErrServicesInvalid):
			handlers.RespondErrorCode(w, http.StatusUnprocessableEntity, handlers.CodeServicesInvalid, msgServicesInvalid)

		case errors.Is(err, checkAvailability.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidParams)

		default:
			h.logger.Error("GET /businesses/{slug}/availability - Failed: slug=%s, error=%v", slug, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
