package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kofemeet/internal/schedule"

	"github.com/xuri/excelize/v2"
)

// exportToExcel создает Excel файл с заявками за период
func (b *Bot) exportToExcel(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	requests, err := b.repo.ListRequestsByPeriod(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting requests: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Заявки"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "G1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"ID", "Статус", "Кофейня", "Встреча (МСК)", "Создатель", "Партнёр", "Создана"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheetName, "A2", "G2", headerStyle)

	for row, req := range requests {
		partner := ""
		if req.PartnerID != nil {
			partner = mention(req.PartnerUsername, req.PartnerName)
		}
		values := []interface{}{
			req.ID,
			req.Status,
			req.ShopName,
			req.MeetTime.In(schedule.Moscow).Format("02.01.2006 15:04"),
			mention(req.CreatorUsername, req.CreatorName),
			partner,
			req.CreatedAt.In(schedule.Moscow).Format("02.01.2006 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "G", 22)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("export_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	return filePath, nil
}
