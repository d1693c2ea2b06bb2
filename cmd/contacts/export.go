package main

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"suitcraft.com/web/internal/contact"
)

const exportSheet = "Messages"

var exportHeaders = []string{"ID", "Submitted (UTC)", "Name", "Email", "Message", "Remote IP", "User Agent"}

// exportWorkbook writes msgs to a single-sheet workbook at path.
func exportWorkbook(path string, msgs []contact.Message) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	header := make([]any, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: style: %w", err)
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("export: style: %w", err)
	}

	for i, m := range msgs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		row := []any{m.ID, m.SubmittedAt.UTC().Format(time.RFC3339), m.Name, m.Email, m.Body, m.RemoteIP, m.UserAgent}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
	}

	for col, width := range map[string]float64{"A": 30, "B": 22, "C": 24, "D": 30, "E": 60, "F": 16, "G": 40} {
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return fmt.Errorf("export: width: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}
