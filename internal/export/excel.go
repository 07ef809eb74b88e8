package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"FlipScout/internal/model"
)

var headers = []string{
	"Item ID", "Item Name", "Buy Price", "Sell Price", "Avg Price",
	"Potential Profit", "Predicted Profit", "Profit Margin", "Fluctuation",
	"ROI", "Sell Volume", "Buy Volume", "Buy Limit", "Max Quantity",
	"Total Projected Profit",
}

// Suggestions writes the ranked list to a timestamped .xlsx workbook in
// dir and returns the file path.
func Suggestions(dir string, suggestions []model.Suggestion) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Suggestions"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
	}

	for row, s := range suggestions {
		values := []any{
			s.ItemID, s.Name, s.EffectiveBuy, s.EffectiveSell, s.AvgPrice,
			s.PotentialProfit, s.PredictedProfit, s.ProfitMargin, s.Fluctuation,
			s.ROI, s.SellVolume, s.BuyVolume, s.BuyLimit, s.MaxQuantity,
			s.TotalProjectedProfit,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return "", fmt.Errorf("write row %d: %w", row+1, err)
			}
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("suggestions_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}
