package export

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"FlipScout/internal/model"
)

func TestSuggestions_WritesWorkbook(t *testing.T) {
	list := []model.Suggestion{
		{
			Candidate: model.Candidate{
				ItemID: 1, Name: "Dragon bones",
				EffectiveBuy: 2400, EffectiveSell: 2600, PotentialProfit: 200,
			},
			MaxQuantity:          100,
			TotalProjectedProfit: 20000,
		},
		{
			Candidate:   model.Candidate{ItemID: 2, Name: "Cannonball"},
			MaxQuantity: 50,
		},
	}

	path, err := Suggestions(t.TempDir(), list)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if !strings.HasSuffix(path, ".xlsx") {
		t.Errorf("unexpected file name: %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Suggestions")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Item ID" || rows[0][1] != "Item Name" {
		t.Errorf("header wrong: %v", rows[0])
	}
	if rows[1][1] != "Dragon bones" || rows[2][1] != "Cannonball" {
		t.Errorf("row order wrong: %v, %v", rows[1], rows[2])
	}
}

func TestSuggestions_EmptyListStillExports(t *testing.T) {
	path, err := Suggestions(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Suggestions")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}
