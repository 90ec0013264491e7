package database

import "errors"

var (
	// ErrPastDate дата встречи уже в прошлом
	ErrPastDate = errors.New("meet time is in the past")

	// ErrDateTooFar дата встречи за пределами окна планирования
	ErrDateTooFar = errors.New("meet time is beyond the planning window")

	// ErrShopClosed кофейня закрыта в предложенное время
	ErrShopClosed = errors.New("shop is closed at the proposed time")

	// ErrShopNotFound кофейня не найдена или деактивирована
	ErrShopNotFound = errors.New("shop not found")
)
