package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/geoviet/surveyid-api/internal/models"
)

// CertificateExporter renders the issuance certificate for a location
// identifier. Labels are unaccented uppercase: gofpdf core fonts are
// cp1252 and cannot encode Vietnamese diacritics.
type CertificateExporter struct{}

// NewCertificateExporter constructs a certificate exporter.
func NewCertificateExporter() *CertificateExporter {
	return &CertificateExporter{}
}

// Render produces the PDF certificate for an issued identifier.
func (e *CertificateExporter) Render(identifier *models.LocationIdentifier, location *models.SurveyLocation) ([]byte, error) {
	if identifier == nil || location == nil {
		return nil, fmt.Errorf("certificate requires identifier and location")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "GIAY CHUNG NHAN MA DINH DANH VI TRI", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 12, identifier.Code, "1", 1, "C", false, 0, "")
	pdf.Ln(8)

	rows := [][2]string{
		{"Ma hanh chinh", identifier.AdminCode},
		{"So thu tu", identifier.SequenceNumber},
		{"Ma tinh", identifier.Code[0:2]},
		{"Ma phuong/xa", identifier.Code[2:6]},
		{"Toa do", fmt.Sprintf("%.6f, %.6f", location.Latitude, location.Longitude)},
		{"Dia chi", location.Address},
		{"Ngay cap", identifier.AssignedAt.Format("02/01/2006")},
	}

	pdf.SetFont("Arial", "", 11)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(55, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(115, 8, row[1], "1", 1, "", false, 0, "")
	}

	if !identifier.IsActive {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(0, 8, "MA DINH DANH DA BI VO HIEU HOA", "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
