package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Moscow - фиксированное смещение UTC+3, без перехода на летнее время.
// Все пользовательские времена отображаются и сравниваются в нём.
var Moscow = time.FixedZone("Europe/Moscow", 3*60*60)

// DayNames - полные названия дней недели, индекс 0 = понедельник.
var DayNames = []string{
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
	"Воскресенье",
}

// ShortDayNames - сокращённые названия, те же индексы что DayNames.
var ShortDayNames = []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// DayName возвращает название дня недели для момента t по московскому времени.
func DayName(t time.Time) string {
	local := t.In(Moscow)
	// time.Weekday: воскресенье = 0
	idx := (int(local.Weekday()) + 6) % 7
	return DayNames[idx]
}

// Expand разворачивает компактное расписание в полное: по одному интервалу
// "HH:MM-HH:MM" на каждый день недели. Дни, отсутствующие в результате,
// считаются выходными. Неизвестные ключи игнорируются.
func Expand(compact map[string]string) map[string]string {
	full := make(map[string]string, len(DayNames))
	for key, hours := range compact {
		switch key {
		case "Ежедневно":
			for _, day := range DayNames {
				full[day] = hours
			}
		case "Пн-Пт":
			for i := 0; i < 5; i++ {
				full[DayNames[i]] = hours
			}
		case "Сб-Вс":
			full[DayNames[5]] = hours
			full[DayNames[6]] = hours
		default:
			for i, day := range DayNames {
				if key == day || key == ShortDayNames[i] {
					full[day] = hours
					break
				}
			}
		}
	}
	return full
}

// IsOpenAt сообщает, открыта ли кофейня с развёрнутым расписанием hours
// в момент meetTime. День недели берётся по московскому времени. Границы
// включительные: open <= t <= close. Некорректный интервал трактуется
// как "закрыто".
func IsOpenAt(hours map[string]string, meetTime time.Time) bool {
	interval, ok := hours[DayName(meetTime)]
	if !ok {
		return false
	}

	open, close, err := ParseInterval(interval)
	if err != nil {
		return false
	}

	local := meetTime.In(Moscow)
	proposed := local.Hour()*60 + local.Minute()
	return open <= proposed && proposed <= close
}

// ParseInterval разбирает "HH:MM-HH:MM" в минуты от полуночи.
func ParseInterval(interval string) (open, close int, err error) {
	parts := strings.SplitN(interval, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid working hours interval: %q", interval)
	}

	open, err = parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	close, err = parseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return open, close, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// WithinPlanningWindow проверяет, что дата встречи попадает в окно
// планирования: от сегодняшнего дня до сегодня+maxDays. Сравниваются
// календарные дни по московскому времени, не UTC-сутки.
func WithinPlanningWindow(now, meetTime time.Time, maxDays int) bool {
	nowDay := localDate(now)
	meetDay := localDate(meetTime)

	if meetDay.Before(nowDay) {
		return false
	}
	return !meetDay.After(nowDay.AddDate(0, 0, maxDays))
}

// InFuture сообщает, что момент встречи ещё не прошёл.
func InFuture(now, meetTime time.Time) bool {
	return meetTime.After(now)
}

func localDate(t time.Time) time.Time {
	local := t.In(Moscow)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Moscow)
}
