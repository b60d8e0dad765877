// Package xlsx renders a package result as a filing checklist spreadsheet
// for filers who work from paper.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/casebinder/casebinder/internal/core/domain"
)

const sheet = "Checklist"

type Exporter struct{}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(res *domain.PackageResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "D", 36); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	row := 1
	setRow(f, row, "Matter", res.MatterID, "", "")
	row++
	setRow(f, row, "Forum / profile", res.Forum+" / "+res.ProfileID, "", "")
	row++
	ready := "NOT READY"
	if res.Readiness.IsReady {
		ready = "READY"
	}
	setRow(f, row, "Readiness", ready, "", "")
	row += 2

	setRow(f, row, "Section", "Document type", "Status", "Reason")
	row++
	for _, s := range res.Sections {
		for _, slot := range s.Slots {
			setRow(f, row, s.Title, string(slot.DocumentType), string(slot.Status), slot.Reason)
			row++
		}
	}
	row++

	setRow(f, row, "Violation", "Severity", "Remediation", "Authority")
	row++
	for _, v := range res.Violation {
		setRow(f, row, v.Message, string(v.Severity), v.Remediation, v.Citation.Reference)
		row++
	}
	row++

	setRow(f, row, "Deadline", string(res.Deadline.Status), res.Deadline.Reason, res.Deadline.Citation.Reference)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize checklist: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, a, b, c, d string) {
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), a)
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), b)
	_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), c)
	_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), d)
}
