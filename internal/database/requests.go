package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kofemeet/internal/models"
)

// CreateRequest создаёт заявку в статусе pending с пустыми флагами.
func (db *DB) CreateRequest(ctx context.Context, creatorID, shopID int64, meetTime time.Time) (int64, error) {
	query := `INSERT INTO requests (
				creator_id, partner_id, shop_id, meet_time, status,
				reminder_sent, failure_notified, created_at
			) VALUES (?, NULL, ?, ?, ?, 0, 0, ?)`
	result, err := db.ExecContext(ctx, query,
		creatorID, shopID, meetTime.Unix(), models.StatusPending, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get request id: %w", err)
	}
	return id, nil
}

// PairRequest присоединяет партнёра к заявке. Условие и изменение выполняются
// одним оператором: из двух конкурирующих вызовов ровно один увидит true,
// второй - false без каких-либо изменений.
func (db *DB) PairRequest(ctx context.Context, requestID, partnerID int64) (bool, error) {
	query := `UPDATE requests
              SET status = ?, partner_id = ?, updated_at = CURRENT_TIMESTAMP
              WHERE id = ? AND status = ? AND partner_id IS NULL AND creator_id != ?`
	result, err := db.ExecContext(ctx, query,
		models.StatusMatched, partnerID, requestID, models.StatusPending, partnerID)
	if err != nil {
		return false, fmt.Errorf("failed to pair request %d: %w", requestID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

// UnmatchRequest снимает партнёра со встречи: заявка возвращается в pending
// и снова видна в пуле. Возвращает id создателя для уведомления.
func (db *DB) UnmatchRequest(ctx context.Context, requestID, partnerID int64) (int64, bool, error) {
	query := `UPDATE requests
              SET status = ?, partner_id = NULL, updated_at = CURRENT_TIMESTAMP
              WHERE id = ? AND status = ? AND partner_id = ?`
	result, err := db.ExecContext(ctx, query,
		models.StatusPending, requestID, models.StatusMatched, partnerID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to unmatch request %d: %w", requestID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return 0, false, nil
	}

	// creator_id неизменяем, читать его после условного обновления безопасно
	var creatorID int64
	err = db.QueryRowContext(ctx, `SELECT creator_id FROM requests WHERE id = ?`, requestID).Scan(&creatorID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read creator of request %d: %w", requestID, err)
	}
	return creatorID, true, nil
}

// CancelPending отменяет ещё не принятую заявку. Только для её создателя.
func (db *DB) CancelPending(ctx context.Context, requestID, creatorID int64) (bool, error) {
	query := `UPDATE requests
              SET status = ?, updated_at = CURRENT_TIMESTAMP
              WHERE id = ? AND status = ? AND creator_id = ?`
	result, err := db.ExecContext(ctx, query,
		models.StatusCancelled, requestID, models.StatusPending, creatorID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel request %d: %w", requestID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

// CancelMatched отменяет уже состоявшийся мэтч по инициативе создателя.
// Партнёр считывается и обнуляется в одной транзакции, чтобы id для
// уведомления соответствовал именно отменённому мэтчу.
func (db *DB) CancelMatched(ctx context.Context, requestID, creatorID int64) (int64, bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin cancel: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var partnerID int64
	query := `SELECT partner_id FROM requests
              WHERE id = ? AND status = ? AND creator_id = ? AND partner_id IS NOT NULL`
	err = tx.QueryRowContext(ctx, query, requestID, models.StatusMatched, creatorID).Scan(&partnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read partner of request %d: %w", requestID, err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, partner_id = NULL, updated_at = CURRENT_TIMESTAMP
         WHERE id = ? AND status = ? AND creator_id = ?`,
		models.StatusCancelled, requestID, models.StatusMatched, creatorID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to cancel matched request %d: %w", requestID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return 0, false, nil
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit cancel: %w", err)
	}
	return partnerID, true, nil
}

// ClaimDueReminders атомарно захватывает matched-заявки, у которых встреча
// попадает в окно [now, now+lookahead], и в том же шаге помечает их
// reminder_sent. Захват построчный с условием, поэтому две конкурирующие
// выборки делят работу, а не дублируют её.
func (db *DB) ClaimDueReminders(ctx context.Context, now time.Time, lookahead time.Duration) ([]models.ReminderJob, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reminder claim: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT r.id, r.creator_id, cu.username, cu.first_name,
	                 r.partner_id, pu.username, pu.first_name,
	                 s.name, r.meet_time
              FROM requests r
              JOIN shops s ON s.id = r.shop_id
              JOIN users cu ON cu.telegram_id = r.creator_id
              JOIN users pu ON pu.telegram_id = r.partner_id
              WHERE r.status = ? AND r.reminder_sent = 0
                AND r.meet_time >= ? AND r.meet_time <= ?`
	rows, err := tx.QueryContext(ctx, query,
		models.StatusMatched, now.Unix(), now.Add(lookahead).Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to select due reminders: %w", err)
	}

	var candidates []models.ReminderJob
	for rows.Next() {
		var job models.ReminderJob
		var meetUnix int64
		err := rows.Scan(&job.RequestID, &job.CreatorID, &job.CreatorUsername, &job.CreatorName,
			&job.PartnerID, &job.PartnerUsername, &job.PartnerName,
			&job.ShopName, &meetUnix)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		job.MeetTime = time.Unix(meetUnix, 0).UTC()
		candidates = append(candidates, job)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read reminder rows: %w", err)
	}
	rows.Close()

	// Построчный условный захват: строка попадает в результат только если
	// именно этот вызов перевёл её флаг.
	var claimed []models.ReminderJob
	for _, job := range candidates {
		result, err := tx.ExecContext(ctx,
			`UPDATE requests SET reminder_sent = 1, updated_at = CURRENT_TIMESTAMP
             WHERE id = ? AND status = ? AND reminder_sent = 0`,
			job.RequestID, models.StatusMatched)
		if err != nil {
			return nil, fmt.Errorf("failed to claim reminder %d: %w", job.RequestID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 1 {
			claimed = append(claimed, job)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reminder claim: %w", err)
	}
	return claimed, nil
}

// ClaimExpiredPending атомарно переводит pending-заявки с meet_time <= now+margin
// в expired и в том же шаге взводит failure_notified. Заявка снимается чуть
// раньше номинального времени встречи: принимать её в последние минуты уже
// не имеет смысла.
func (db *DB) ClaimExpiredPending(ctx context.Context, now time.Time, margin time.Duration) ([]models.ExpiryJob, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin expiry claim: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT r.id, r.creator_id, s.name, r.meet_time
              FROM requests r
              JOIN shops s ON s.id = r.shop_id
              WHERE r.status = ? AND r.failure_notified = 0 AND r.meet_time <= ?`
	rows, err := tx.QueryContext(ctx, query, models.StatusPending, now.Add(margin).Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to select expired requests: %w", err)
	}

	var candidates []models.ExpiryJob
	for rows.Next() {
		var job models.ExpiryJob
		var meetUnix int64
		if err := rows.Scan(&job.RequestID, &job.CreatorID, &job.ShopName, &meetUnix); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expiry row: %w", err)
		}
		job.MeetTime = time.Unix(meetUnix, 0).UTC()
		candidates = append(candidates, job)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read expiry rows: %w", err)
	}
	rows.Close()

	var claimed []models.ExpiryJob
	for _, job := range candidates {
		result, err := tx.ExecContext(ctx,
			`UPDATE requests SET status = ?, failure_notified = 1, updated_at = CURRENT_TIMESTAMP
             WHERE id = ? AND status = ? AND failure_notified = 0`,
			models.StatusExpired, job.RequestID, models.StatusPending)
		if err != nil {
			return nil, fmt.Errorf("failed to claim expiry %d: %w", job.RequestID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 1 {
			claimed = append(claimed, job)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expiry claim: %w", err)
	}
	return claimed, nil
}

// GetRequest возвращает заявку как есть, без связанных данных.
func (db *DB) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	query := `SELECT id, creator_id, partner_id, shop_id, meet_time, status,
	                 reminder_sent, failure_notified, created_at
              FROM requests WHERE id = ?`
	var r models.Request
	var partner sql.NullInt64
	var meetUnix int64
	err := db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.CreatorID, &partner, &r.ShopID, &meetUnix,
		&r.Status, &r.ReminderSent, &r.FailureNotified, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get request %d: %w", id, err)
	}
	if partner.Valid {
		r.PartnerID = &partner.Int64
	}
	r.MeetTime = time.Unix(meetUnix, 0).UTC()
	return &r, nil
}

// GetRequestSnapshot собирает заявку с именами участников и кофейни
// для формирования уведомлений.
func (db *DB) GetRequestSnapshot(ctx context.Context, id int64) (*models.RequestView, error) {
	query := `SELECT r.id, r.status, r.meet_time, s.name,
	                 r.creator_id, cu.username, cu.first_name,
	                 r.partner_id, COALESCE(pu.username, ''), COALESCE(pu.first_name, ''),
	                 r.created_at
              FROM requests r
              JOIN shops s ON s.id = r.shop_id
              JOIN users cu ON cu.telegram_id = r.creator_id
              LEFT JOIN users pu ON pu.telegram_id = r.partner_id
              WHERE r.id = ?`
	var view models.RequestView
	var partner sql.NullInt64
	var meetUnix int64
	err := db.QueryRowContext(ctx, query, id).Scan(
		&view.ID, &view.Status, &meetUnix, &view.ShopName,
		&view.CreatorID, &view.CreatorUsername, &view.CreatorName,
		&partner, &view.PartnerUsername, &view.PartnerName,
		&view.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get request snapshot %d: %w", id, err)
	}
	if partner.Valid {
		view.PartnerID = &partner.Int64
	}
	view.MeetTime = time.Unix(meetUnix, 0).UTC()
	return &view, nil
}

// ListOpenRequests возвращает чужие pending-заявки с ещё не прошедшим
// временем встречи, отсортированные по времени.
func (db *DB) ListOpenRequests(ctx context.Context, userID int64, now time.Time) ([]models.OpenRequest, error) {
	query := `SELECT r.id, s.name, r.meet_time
              FROM requests r
              JOIN shops s ON s.id = r.shop_id
              WHERE r.status = ? AND r.creator_id != ? AND r.meet_time > ?
              ORDER BY r.meet_time ASC`
	rows, err := db.QueryContext(ctx, query, models.StatusPending, userID, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}
	defer rows.Close()

	var open []models.OpenRequest
	for rows.Next() {
		var o models.OpenRequest
		var meetUnix int64
		if err := rows.Scan(&o.ID, &o.ShopName, &meetUnix); err != nil {
			return nil, fmt.Errorf("failed to scan open request: %w", err)
		}
		o.MeetTime = time.Unix(meetUnix, 0).UTC()
		open = append(open, o)
	}
	return open, rows.Err()
}

// ListUserRequests возвращает заявки пользователя (как создателя и как
// партнёра) в окнах отображения: будущие pending/matched, прошедшие matched
// за последние два дня, отменённые за последний час. Терминальные заявки
// за пределами окон просто не попадают в выборку, физически они не удаляются.
func (db *DB) ListUserRequests(ctx context.Context, userID int64, now time.Time) ([]models.RequestView, error) {
	query := `SELECT r.id, r.status, r.meet_time, s.name,
	                 r.creator_id, cu.username, cu.first_name,
	                 r.partner_id, COALESCE(pu.username, ''), COALESCE(pu.first_name, ''),
	                 r.created_at
              FROM requests r
              JOIN shops s ON s.id = r.shop_id
              JOIN users cu ON cu.telegram_id = r.creator_id
              LEFT JOIN users pu ON pu.telegram_id = r.partner_id
              WHERE (r.creator_id = ? OR r.partner_id = ?)
                AND (
                    (r.status IN (?, ?) AND r.meet_time > ?)
                    OR (r.status = ? AND r.meet_time BETWEEN ? AND ?)
                    OR (r.status = ? AND r.updated_at > ?)
                )
              ORDER BY r.meet_time DESC`
	twoDaysAgo := now.AddDate(0, 0, -models.MatchedDisplayDays)
	hourAgo := now.Add(-time.Duration(models.CancelledDisplayMinutes) * time.Minute)
	rows, err := db.QueryContext(ctx, query,
		userID, userID,
		models.StatusPending, models.StatusMatched, now.Unix(),
		models.StatusMatched, twoDaysAgo.Unix(), now.Unix(),
		// CURRENT_TIMESTAMP пишет UTC, сравниваем в нём же
		models.StatusCancelled, hourAgo.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user requests: %w", err)
	}
	defer rows.Close()

	var views []models.RequestView
	for rows.Next() {
		var view models.RequestView
		var partner sql.NullInt64
		var meetUnix int64
		err := rows.Scan(
			&view.ID, &view.Status, &meetUnix, &view.ShopName,
			&view.CreatorID, &view.CreatorUsername, &view.CreatorName,
			&partner, &view.PartnerUsername, &view.PartnerName,
			&view.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user request: %w", err)
		}
		if partner.Valid {
			view.PartnerID = &partner.Int64
		}
		view.MeetTime = time.Unix(meetUnix, 0).UTC()
		views = append(views, view)
	}
	return views, rows.Err()
}

// ListRequestsByPeriod возвращает все заявки с встречей в указанном
// интервале, для менеджерского экспорта.
func (db *DB) ListRequestsByPeriod(ctx context.Context, start, end time.Time) ([]models.RequestView, error) {
	query := `SELECT r.id, r.status, r.meet_time, s.name,
	                 r.creator_id, cu.username, cu.first_name,
	                 r.partner_id, COALESCE(pu.username, ''), COALESCE(pu.first_name, ''),
	                 r.created_at
              FROM requests r
              JOIN shops s ON s.id = r.shop_id
              JOIN users cu ON cu.telegram_id = r.creator_id
              LEFT JOIN users pu ON pu.telegram_id = r.partner_id
              WHERE r.meet_time >= ? AND r.meet_time <= ?
              ORDER BY r.meet_time ASC`
	rows, err := db.QueryContext(ctx, query, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list requests by period: %w", err)
	}
	defer rows.Close()

	var views []models.RequestView
	for rows.Next() {
		var view models.RequestView
		var partner sql.NullInt64
		var meetUnix int64
		err := rows.Scan(
			&view.ID, &view.Status, &meetUnix, &view.ShopName,
			&view.CreatorID, &view.CreatorUsername, &view.CreatorName,
			&partner, &view.PartnerUsername, &view.PartnerName,
			&view.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		if partner.Valid {
			view.PartnerID = &partner.Int64
		}
		view.MeetTime = time.Unix(meetUnix, 0).UTC()
		views = append(views, view)
	}
	return views, rows.Err()
}

// CountRequestsByStatus возвращает распределение заявок по статусам.
func (db *DB) CountRequestsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
