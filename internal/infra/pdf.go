package infra

// pdf.go — payment receipt (recibo) generation using go-pdf/fpdf.
// Produces a half-letter receipt with the business header, payment detail,
// and the plan's running figures after the payment was applied.
// The output file is saved to storagePath/recibo_{pago_id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ReciboData carries everything the receipt prints. The caller resolves the
// plan figures so this package stays free of domain logic.
type ReciboData struct {
	PagoID         string
	ClienteNombre  string
	LoteCodigo     string
	Monto          decimal.Decimal
	MetodoPago     string
	FechaPago      time.Time
	TotalPlan      decimal.Decimal
	TotalPagado    decimal.Decimal
	SaldoPendiente decimal.Decimal
	CuotasPlazo    int
}

// GenerateReciboPDF writes the receipt and returns its absolute path.
func GenerateReciboPDF(data ReciboData, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := filepath.Join(storagePath, fmt.Sprintf("recibo_%s.pdf", data.PagoID))

	// Half letter (140×216 mm), portrait
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 140, Ht: 216},
	})
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Inmobiliaria Sinaí", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Recibo de Pago", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(3)

	labelW := contentW * 0.4
	valueW := contentW * 0.6

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(valueW, 6, value, "", 1, "R", false, 0, "")
	}

	row("Recibo N°:", data.PagoID)
	row("Fecha:", data.FechaPago.Format("02/01/2006 15:04"))
	row("Cliente:", data.ClienteNombre)
	row("Lote:", data.LoteCodigo)
	row("Método de pago:", data.MetodoPago)
	pdf.Ln(3)

	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(labelW, 8, "MONTO:", "", 0, "L", false, 0, "")
	pdf.CellFormat(valueW, 8, "$"+data.Monto.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	row("Total del plan:", "$"+data.TotalPlan.StringFixed(2))
	row("Total pagado:", "$"+data.TotalPagado.StringFixed(2))
	row("Saldo pendiente:", "$"+data.SaldoPendiente.StringFixed(2))
	row("Plazo:", fmt.Sprintf("%d cuotas", data.CuotasPlazo))

	pdf.Ln(5)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, "Este recibo no tiene validez fiscal.", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
