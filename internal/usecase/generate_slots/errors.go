package generate_slots

import "errors"

var (
	// ErrBusinessNotFound возвращается, когда бизнес не найден
	ErrBusinessNotFound = errors.New("generate_slots: business not found")

	// ErrAccessDenied возвращается, когда пользователь не владелец бизнеса
	ErrAccessDenied = errors.New("generate_slots: access denied")

	// ErrInvalidTimezone возвращается, когда часовой пояс бизнеса не распознан
	ErrInvalidTimezone = errors.New("generate_slots: invalid business timezone")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("generate_slots: internal error")
)
