package models

import "time"

// Shop описывает кофейню, в которой можно назначить встречу.
// Часы работы хранятся развёрнутыми: полное название дня недели -> "HH:MM-HH:MM".
type Shop struct {
	ID          int64             `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Hours       map[string]string `json:"hours" yaml:"hours"`
	IsActive    bool              `json:"is_active" yaml:"-"`
	CreatedAt   time.Time         `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time         `json:"updated_at" yaml:"-"`
}
