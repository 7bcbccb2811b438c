package create_booking

import "errors"

var (
	// ErrBusinessNotFound возвращается, когда бизнес не найден
	ErrBusinessNotFound = errors.New("create_booking: business not found")

	// ErrNoServices возвращается, когда не выбрано ни одной услуги
	ErrNoServices = errors.New("create_booking: no services provided")

	// ErrServicesInvalid возвращается, когда услуги не принадлежат бизнесу или неактивны
	ErrServicesInvalid = errors.New("create_booking: services do not belong to business")

	// ErrValidation возвращается при ошибках валидации полей клиента и времени
	// Детали по полям доступны через errors.As(err, &domain.ValidationErrors{})
	ErrValidation = errors.New("create_booking: validation failed")

	// ErrSlotUnavailable возвращается, когда выбранное время уже занято (гонка или нет мест)
	ErrSlotUnavailable = errors.New("create_booking: slot is no longer available")

	// ErrTryAgain возвращается, когда истекло ожидание блокировки; запрос можно повторить
	ErrTryAgain = errors.New("create_booking: please try again")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
