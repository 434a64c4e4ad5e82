package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/micromerit/ai-service/internal/core/domain"
)

const SheetName = "Skills"

var headers = []string{
	"Certificate",
	"Issuer",
	"Certificate Number",
	"Skill",
	"Category",
	"Proficiency",
	"Skill Confidence",
	"NSQF Level",
	"Status",
}

type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// RenderSkills writes one row per skill; credentials without skills still
// get a single row so every upload is visible.
func (Renderer) RenderSkills(creds []domain.Credential) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	row := 2
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(SheetName, cell, v)
	}
	for _, cred := range creds {
		number := ""
		if cred.CertificateID.CertificateNumber != nil {
			number = *cred.CertificateID.CertificateNumber
		}
		skills := cred.Extraction.Skills
		if len(skills) == 0 {
			skills = []domain.Skill{{}}
		}
		for _, s := range skills {
			write(1, cred.CertificateTitle)
			write(2, cred.IssuerName)
			write(3, number)
			write(4, s.Name)
			write(5, s.Category)
			if s.ProficiencyLevel != nil {
				write(6, *s.ProficiencyLevel)
			}
			if s.Name != "" {
				write(7, s.Confidence)
			}
			if cred.Extraction.NSQF.Level > 0 {
				write(8, cred.Extraction.NSQF.Level)
			}
			write(9, string(cred.Status))
			row++
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 36)
	_ = f.SetColWidth(SheetName, "B", "C", 24)
	_ = f.SetColWidth(SheetName, "D", "E", 28)
	_ = f.SetColWidth(SheetName, "F", "I", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
