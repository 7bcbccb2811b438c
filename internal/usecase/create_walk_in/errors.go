package create_walk_in

import "errors"

var (
	// ErrBusinessNotFound возвращается, когда бизнес не найден
	ErrBusinessNotFound = errors.New("create_walk_in: business not found")

	// ErrAccessDenied возвращается, когда пользователь не владелец бизнеса
	ErrAccessDenied = errors.New("create_walk_in: access denied")

	// ErrNoServices возвращается, когда не выбрано ни одной услуги
	ErrNoServices = errors.New("create_walk_in: no services provided")

	// ErrServicesInvalid возвращается, когда услуги не принадлежат бизнесу или неактивны
	ErrServicesInvalid = errors.New("create_walk_in: services do not belong to business")

	// ErrValidation возвращается при ошибках валидации полей клиента
	ErrValidation = errors.New("create_walk_in: validation failed")

	// ErrCapacityReached возвращается, когда включена проверка вместимости и мест нет
	ErrCapacityReached = errors.New("create_walk_in: business is at capacity")

	// ErrTryAgain возвращается, когда истекло ожидание блокировки
	ErrTryAgain = errors.New("create_walk_in: please try again")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_walk_in: internal error")
)
