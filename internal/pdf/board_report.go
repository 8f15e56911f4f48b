package pdf

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"leadflow/internal/models"
)

// Generator: интерфейс, чтобы мокать в тестах
type Generator interface {
	BoardReport(w io.Writer, data BoardReportData) error
}

// ReportGenerator renders pipeline reports with gofpdf.
type ReportGenerator struct {
	FontPath string // TTF with Latin-1/Cyrillic glyphs; empty falls back to Helvetica
}

// page holds per-document state so one generator can serve concurrent requests.
type page struct {
	fontName string
	tr       func(string) string
}

type BoardReportData struct {
	WorkspaceID string
	GeneratedAt time.Time
	Columns     []models.BoardColumn
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	return &ReportGenerator{FontPath: fontPath}
}

// BoardReport writes one section per visible stage listing its leads in order.
func (g *ReportGenerator) BoardReport(w io.Writer, data BoardReportData) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Pipeline "+data.WorkspaceID, true)
	pdf.SetAuthor("leadflow", false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	p := g.setupFont(pdf)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(p.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(p.fontName, "B", 16)
	pdf.CellFormat(0, 10, p.tr("Pipeline"), "", 1, "C", false, 0, "")
	pdf.SetFont(p.fontName, "", 10)
	total := 0
	for _, col := range data.Columns {
		total += len(col.Leads)
	}
	sub := fmt.Sprintf("%s  |  %s  |  %d leads", data.WorkspaceID, data.GeneratedAt.Format("02.01.2006 15:04"), total)
	pdf.CellFormat(0, 6, p.tr(sub), "", 1, "C", false, 0, "")
	p.hr(pdf)

	for _, col := range data.Columns {
		p.sectionTitle(pdf, fmt.Sprintf("%s (%d)", col.Stage.Name, len(col.Leads)))
		if len(col.Leads) == 0 {
			pdf.SetFont(p.fontName, "", 10)
			pdf.CellFormat(0, 6, "-", "", 1, "L", false, 0, "")
			pdf.Ln(2)
			continue
		}
		p.tableHeader(pdf)
		for i, l := range col.Leads {
			p.leadRow(pdf, i+1, l)
		}
		pdf.Ln(3)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render board report: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write board report: %w", err)
	}
	return nil
}

var columnWidths = []float64{10, 50, 45, 40, 35}

func (g *page) tableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont(g.fontName, "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"#", "Name", "Company", "Email", "Phone"} {
		pdf.CellFormat(columnWidths[i], 6, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (g *page) leadRow(pdf *gofpdf.Fpdf, n int, l models.Lead) {
	pdf.SetFont(g.fontName, "", 9)
	company := l.Company
	if l.Position != "" {
		company = strings.TrimSpace(company + " / " + l.Position)
	}
	cells := []string{fmt.Sprintf("%d", n), l.Name, company, l.Email, l.Phone}
	for i, v := range cells {
		pdf.CellFormat(columnWidths[i], 6, g.fit(pdf, v, columnWidths[i]-2), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

// fit cuts text that would overflow a cell.
func (g *page) fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	s = g.tr(s)
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func (g *page) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, g.tr(s), "", 1, "L", false, 0, "")
}

func (g *page) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(15, y, 195, y)
	pdf.SetY(y + 3)
}

func (g *ReportGenerator) setupFont(pdf *gofpdf.Fpdf) *page {
	if g.FontPath != "" {
		if _, err := os.Stat(g.FontPath); err == nil {
			pdf.AddUTF8Font("DejaVu", "", g.FontPath)
			pdf.AddUTF8Font("DejaVu", "B", g.FontPath)
			return &page{fontName: "DejaVu", tr: func(s string) string { return s }}
		}
	}
	// core font, cp1252 covers Portuguese accents
	return &page{fontName: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}
}
