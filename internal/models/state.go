package models

// UserState - состояние диалога пользователя (шаг и промежуточные данные).
// Хранится в Redis с TTL, передаётся явно в каждый шаг обработки.
type UserState struct {
	UserID      int64                  `json:"user_id"`
	CurrentStep string                 `json:"current_step"`
	TempData    map[string]interface{} `json:"temp_data"`
}
