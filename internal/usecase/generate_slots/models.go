package generate_slots

import "time"

// Request модель запроса на генерацию слотов
type Request struct {
	UserID     int64      // Владелец бизнеса; 0 - системный вызов без проверки владельца
	BusinessID int64      // ID бизнеса
	Date       *time.Time // Дата (без времени); nil - скользящее окно начиная с сегодня
}

// Response модель ответа с результатом генерации
type Response struct {
	BusinessID int64
	Days       []DayResult
	Created    int // Всего создано слотов
}

// DayResult результат генерации за один день
type DayResult struct {
	Date    time.Time
	Created int
}
