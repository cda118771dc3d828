package letter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"interndesk/internal/middleware"
	"interndesk/internal/models"

	"github.com/go-pdf/fpdf"
)

// Data carries everything the renderer needs for one offer letter. Missing
// optional fields render as blanks rather than failing the document.
type Data struct {
	RefNumber      string
	StudentName    string
	CollegeName    string
	CollegeAddress string
	Email          string
	StudentYear    string
	Branch         string
	StartDate      string
	EndDate        string
	Duration       string
	IssuedDate     string
}

// DataFromRequest maps a record to renderer input. The branch free-text
// override wins when the applicant picked "Other".
func DataFromRequest(rec *models.InternshipRequest, issuedDate string) Data {
	branch := rec.Branch
	if strings.EqualFold(branch, "other") && rec.BranchOther != "" {
		branch = rec.BranchOther
	}
	ref := rec.LegacyRef
	if ref == "" {
		ref = rec.ID
	}
	return Data{
		RefNumber:      ref,
		StudentName:    rec.StudentName,
		CollegeName:    rec.CollegeName,
		CollegeAddress: rec.CollegeAddress,
		Email:          rec.Email,
		StudentYear:    rec.StudentYear,
		Branch:         branch,
		StartDate:      rec.StartDate,
		EndDate:        rec.EndDate,
		Duration:       rec.Duration,
		IssuedDate:     issuedDate,
	}
}

// Renderer produces an offer letter document from letter data.
type Renderer interface {
	Render(data Data) ([]byte, error)
}

// PDFRenderer renders A4 offer letters, optionally with an embedded
// letterhead banner on the first page.
type PDFRenderer struct {
	letterhead *Letterhead
	orgName    string
}

// NewPDFRenderer creates a renderer. letterhead may be nil, in which case a
// plain-text header is used.
func NewPDFRenderer(letterhead *Letterhead, orgName string) *PDFRenderer {
	if orgName == "" {
		orgName = "InternDesk"
	}
	return &PDFRenderer{letterhead: letterhead, orgName: orgName}
}

const (
	pageMarginMM   = 20.0
	contentWidthMM = 210.0 - 2*pageMarginMM
)

func (r *PDFRenderer) Render(data Data) ([]byte, error) {
	start := time.Now()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMarginMM, pageMarginMM, pageMarginMM)
	pdf.SetAutoPageBreak(true, pageMarginMM)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	r.drawHeader(pdf)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 11)

	pdf.CellFormat(contentWidthMM/2, 6, "Ref: INT/"+data.RefNumber, "", 0, "L", false, 0, "")
	pdf.CellFormat(contentWidthMM/2, 6, "Date: "+data.IssuedDate, "", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.MultiCell(contentWidthMM, 6, "To,\n"+data.StudentName+"\n"+data.CollegeName+"\n"+data.CollegeAddress, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidthMM, 8, "Subject: Offer Letter for Internship", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(contentWidthMM, 6,
		fmt.Sprintf("Dear %s,", data.StudentName), "", "L", false)
	pdf.Ln(2)

	body := fmt.Sprintf(
		"With reference to your application, we are pleased to offer you an internship position at %s. "+
			"You are a %s year student of %s in the %s branch, and your candidature has been found suitable for our internship program.",
		r.orgName, data.StudentYear, data.CollegeName, data.Branch)
	pdf.MultiCell(contentWidthMM, 6, body, "", "J", false)
	pdf.Ln(2)

	schedule := fmt.Sprintf(
		"Your internship will commence on %s and conclude on %s, for a total duration of %s. "+
			"You are requested to report to the administration office on your start date along with a copy of this letter and a valid identity document.",
		data.StartDate, data.EndDate, data.Duration)
	pdf.MultiCell(contentWidthMM, 6, schedule, "", "J", false)
	pdf.Ln(2)

	pdf.MultiCell(contentWidthMM, 6,
		"All correspondence regarding this internship will be sent to "+data.Email+". "+
			"Please keep this address reachable for the duration of the program.", "", "J", false)
	pdf.Ln(6)

	pdf.MultiCell(contentWidthMM, 6, "We look forward to having you with us.", "", "L", false)
	pdf.Ln(10)

	pdf.MultiCell(contentWidthMM, 6, "Yours sincerely,\n\n\nProgram Coordinator\n"+r.orgName, "", "L", false)

	r.drawTerms(pdf)

	if err := pdf.Error(); err != nil {
		return nil, models.NewRenderError(err)
	}

	buf := bytes.NewBuffer(nil)
	if err := pdf.Output(buf); err != nil {
		return nil, models.NewRenderError(err)
	}

	middleware.LetterRenderLatency.Observe(time.Since(start).Seconds())
	return buf.Bytes(), nil
}

func (r *PDFRenderer) drawHeader(pdf *fpdf.Fpdf) {
	if r.letterhead != nil && len(r.letterhead.PNG) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("letterhead", opts, bytes.NewReader(r.letterhead.PNG))

		h := contentWidthMM * float64(r.letterhead.Height) / float64(r.letterhead.Width)
		pdf.ImageOptions("letterhead", pageMarginMM, pageMarginMM, contentWidthMM, h, false, opts, 0, "")
		pdf.SetY(pageMarginMM + h + 8)
		return
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidthMM, 10, r.orgName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(96, 96, 96)
	pdf.CellFormat(contentWidthMM, 5, "Internship Program Office", "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)
}

func (r *PDFRenderer) drawTerms(pdf *fpdf.Fpdf) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentWidthMM, 8, "Terms of the Internship", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	terms := []string{
		"The internship is a training engagement and does not constitute an offer of employment.",
		"Interns are expected to maintain the confidentiality of any material they work with during the program.",
		"Attendance and conduct requirements communicated by the assigned supervisor apply for the full duration.",
		"A completion certificate is issued only after the full internship period has been served.",
		"The organization may withdraw this offer prior to the start date by written notice.",
	}

	pdf.SetFont("Helvetica", "", 11)
	for i, t := range terms {
		pdf.MultiCell(contentWidthMM, 6, fmt.Sprintf("%d. %s", i+1, t), "", "J", false)
		pdf.Ln(1)
	}
}
