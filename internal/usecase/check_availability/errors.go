package check_availability

import "errors"

var (
	// ErrBusinessNotFound возвращается, когда бизнес не найден
	ErrBusinessNotFound = errors.New("check_availability: business not found")

	// ErrServicesInvalid возвращается, когда услуги не принадлежат бизнесу или неактивны
	ErrServicesInvalid = errors.New("check_availability: services do not belong to business")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("check_availability: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("check_availability: internal error")
)
