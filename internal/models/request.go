package models

import "time"

// Request — заявка на кофе-мит: кофейня + время встречи.
// PartnerID заполнен тогда и только тогда, когда Status == StatusMatched.
type Request struct {
	ID              int64     `json:"id"`
	CreatorID       int64     `json:"creator_id"`
	PartnerID       *int64    `json:"partner_id,omitempty"`
	ShopID          int64     `json:"shop_id"`
	MeetTime        time.Time `json:"meet_time"`
	Status          string    `json:"status"` // pending, matched, cancelled, expired
	ReminderSent    bool      `json:"reminder_sent"`
	FailureNotified bool      `json:"failure_notified"`
	CreatedAt       time.Time `json:"created_at"`
}

// OpenRequest - строка из пула доступных заявок (для списка "Найти компанию").
type OpenRequest struct {
	ID       int64
	ShopName string
	MeetTime time.Time
}

// RequestView - заявка с данными для отображения и уведомлений.
type RequestView struct {
	ID              int64
	Status          string
	MeetTime        time.Time
	ShopName        string
	CreatorID       int64
	CreatorUsername string
	CreatorName     string
	PartnerID       *int64
	PartnerUsername string
	PartnerName     string
	CreatedAt       time.Time
}

// ReminderJob - захваченная свипом напоминаний строка.
type ReminderJob struct {
	RequestID       int64
	CreatorID       int64
	CreatorUsername string
	CreatorName     string
	PartnerID       int64
	PartnerUsername string
	PartnerName     string
	ShopName        string
	MeetTime        time.Time
}

// ExpiryJob - захваченная свипом просрочки строка.
type ExpiryJob struct {
	RequestID int64
	CreatorID int64
	ShopName  string
	MeetTime  time.Time
}

// CreatorMention возвращает упоминание создателя заявки.
func (j *ReminderJob) CreatorMention() string {
	if j.CreatorUsername != "" {
		return "@" + j.CreatorUsername
	}
	return j.CreatorName
}

// PartnerMention возвращает упоминание партнёра.
func (j *ReminderJob) PartnerMention() string {
	if j.PartnerUsername != "" {
		return "@" + j.PartnerUsername
	}
	return j.PartnerName
}
