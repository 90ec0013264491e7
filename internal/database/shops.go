package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kofemeet/internal/models"
	"kofemeet/internal/schedule"
)

// SyncShops приводит справочник кофеен к содержимому конфигурации:
// перечисленные кофейни создаются или обновляются, отсутствующие
// деактивируются. Физического удаления нет.
func (db *DB) SyncShops(ctx context.Context, shops []models.Shop) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin shops sync: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	known := make([]interface{}, 0, len(shops))
	now := time.Now()
	for _, shop := range shops {
		// Часы хранятся уже развёрнутыми по дням недели,
		// чтобы проверка расписания не разбирала компактную форму.
		hoursJSON, err := json.Marshal(schedule.Expand(shop.Hours))
		if err != nil {
			return fmt.Errorf("failed to encode hours for shop %d: %w", shop.ID, err)
		}

		query := `INSERT INTO shops (id, name, description, hours, is_active, created_at, updated_at)
                  VALUES (?, ?, ?, ?, 1, ?, ?)
                  ON CONFLICT(id) DO UPDATE SET
                    name = excluded.name,
                    description = excluded.description,
                    hours = excluded.hours,
                    is_active = 1,
                    updated_at = excluded.updated_at`
		if _, err := tx.ExecContext(ctx, query, shop.ID, shop.Name, shop.Description, string(hoursJSON), now, now); err != nil {
			return fmt.Errorf("failed to upsert shop %d: %w", shop.ID, err)
		}
		known = append(known, shop.ID)
	}

	if len(known) > 0 {
		placeholders := ""
		for i := range known {
			if i > 0 {
				placeholders += ","
			}
			placeholders += "?"
		}
		query := fmt.Sprintf(`UPDATE shops SET is_active = 0, updated_at = ? WHERE id NOT IN (%s)`, placeholders)
		args := append([]interface{}{now}, known...)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to deactivate removed shops: %w", err)
		}
	}

	return tx.Commit()
}

func (db *DB) GetActiveShops(ctx context.Context) ([]*models.Shop, error) {
	query := `SELECT id, name, description, hours, is_active, created_at, updated_at
              FROM shops WHERE is_active = 1 ORDER BY name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active shops: %w", err)
	}
	defer rows.Close()

	var shops []*models.Shop
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		shops = append(shops, shop)
	}
	return shops, rows.Err()
}

func (db *DB) GetShop(ctx context.Context, id int64) (*models.Shop, error) {
	query := `SELECT id, name, description, hours, is_active, created_at, updated_at
              FROM shops WHERE id = ?`
	row := db.QueryRowContext(ctx, query, id)
	shop, err := scanShop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	return shop, err
}

// GetShopHours возвращает развёрнутое недельное расписание активной кофейни.
func (db *DB) GetShopHours(ctx context.Context, id int64) (map[string]string, error) {
	var hoursJSON string
	query := `SELECT hours FROM shops WHERE id = ? AND is_active = 1`
	err := db.QueryRowContext(ctx, query, id).Scan(&hoursJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop hours: %w", err)
	}

	var hours map[string]string
	if err := json.Unmarshal([]byte(hoursJSON), &hours); err != nil {
		return nil, fmt.Errorf("failed to decode shop hours: %w", err)
	}
	return hours, nil
}

func (db *DB) DeactivateShop(ctx context.Context, id int64) error {
	query := `UPDATE shops SET is_active = 0, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShop(row rowScanner) (*models.Shop, error) {
	shop := &models.Shop{}
	var hoursJSON string
	err := row.Scan(&shop.ID, &shop.Name, &shop.Description, &hoursJSON,
		&shop.IsActive, &shop.CreatedAt, &shop.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan shop: %w", err)
	}
	if err := json.Unmarshal([]byte(hoursJSON), &shop.Hours); err != nil {
		return nil, fmt.Errorf("failed to decode shop hours: %w", err)
	}
	return shop, nil
}
