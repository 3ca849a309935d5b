// Package document renders a submission as a bilingual PDF intake form.
package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"

	"rentcar-intake/internal/apperr"
	"rentcar-intake/internal/models"
)

const (
	margin     = 50.0
	lineHeight = 14.0
)

// Result describes a written document.
type Result struct {
	Path              string
	Pages             int
	SignatureEmbedded bool
}

type Renderer struct {
	dir      string
	identity Identity
	lg       *zap.SugaredLogger
}

func New(dir string, lg *zap.SugaredLogger) *Renderer {
	return &Renderer{dir: dir, identity: DefaultIdentity, lg: lg}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safe(s string) string {
	s = unsafeName.ReplaceAllString(strings.TrimSpace(s), "-")
	if s == "" {
		return "x"
	}
	return s
}

// FileName is derived from the record id, followed by the driver's names for staff convenience.
func FileName(c *models.Client) string {
	return fmt.Sprintf("%s_%s_%s.pdf", safe(c.ID), safe(c.MainDriverName), safe(c.MainDriverFirstname))
}

// Path is where Render writes c's document.
func (r *Renderer) Path(c *models.Client) string {
	return filepath.Join(r.dir, FileName(c))
}

// Render writes c's document. A signature that cannot be decoded is left out; only I/O and
// PDF generation failures return an error.
func (r *Renderer) Render(ctx context.Context, c *models.Client) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &apperr.RenderError{ClientID: c.ID, Err: err}
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return Result{}, &apperr.RenderError{ClientID: c.ID, Err: err}
	}

	pdf, embedded := r.build(c)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Result{}, &apperr.RenderError{ClientID: c.ID, Err: err}
	}

	path := r.Path(c)
	tmp, err := os.CreateTemp(r.dir, ".render-*.pdf")
	if err != nil {
		return Result{}, &apperr.RenderError{ClientID: c.ID, Err: err}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return Result{}, &apperr.RenderError{ClientID: c.ID, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return Result{}, &apperr.RenderError{ClientID: c.ID, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Result{}, &apperr.RenderError{ClientID: c.ID, Err: err}
	}
	return Result{Path: path, Pages: pdf.PageNo(), SignatureEmbedded: embedded}, nil
}

type writer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (w *writer) center(style string, size float64, s string) {
	w.pdf.SetFont("Helvetica", style, size)
	w.pdf.CellFormat(0, size+4, w.tr(s), "", 1, "C", false, 0, "")
}

func (w *writer) heading(s string) {
	w.pdf.Ln(6)
	w.pdf.SetFont("Helvetica", "B", 12)
	w.pdf.CellFormat(0, 16, w.tr(s), "", 1, "L", false, 0, "")
	w.pdf.Ln(3)
	w.pdf.SetFont("Helvetica", "", 10)
}

func (w *writer) field(label, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	w.pdf.MultiCell(0, lineHeight, w.tr(label+": "+value), "", "L", false)
}

func (w *writer) paragraph(s string) {
	w.pdf.SetFont("Helvetica", "", 9)
	w.pdf.MultiCell(0, 12, w.tr(s), "", "J", false)
	w.pdf.Ln(4)
	w.pdf.SetFont("Helvetica", "", 10)
}

func join(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

type driver struct {
	name, firstname, address, postalCode, city, country, nationality string
	birthDate, birthPlace, phone, email                              string
	license, licenseIssue, licenseValidity, licensePlace             string
	passport, passportValidity                                       string
}

func (w *writer) driver(l labels, d driver) {
	w.field(l.Name, d.name)
	w.field(l.Firstname, d.firstname)
	w.field(l.Address, join(d.address, d.postalCode, d.city, d.country))
	if d.nationality != "" {
		w.field(l.Nationality, d.nationality)
	}
	w.field(l.BirthDate, d.birthDate)
	w.field(l.BirthPlace, d.birthPlace)
	w.field(l.Phone, d.phone)
	w.field(l.Email, d.email)
	w.field(l.License, d.license)
	w.field(l.IssueDate, d.licenseIssue)
	w.field(l.ValidityDate, d.licenseValidity)
	w.field(l.IssuePlace, d.licensePlace)
	if d.passport != "" || d.passportValidity != "" {
		w.field(l.Passport, d.passport)
		w.field(l.PassportValidity, d.passportValidity)
	}
}

func (r *Renderer) build(c *models.Client) (*gofpdf.Fpdf, bool) {
	l := textsFor(c.Language)
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AliasNbPages("")
	w := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-35)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s %d/{nb}", l.Page, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	w.center("B", 16, r.identity.Name)
	w.center("", 11, r.identity.Registration)
	w.center("", 11, l.Airport)
	w.center("", 11, r.identity.Phone)
	pdf.Ln(18)
	w.center("B", 14, l.Title)
	pdf.SetFont("Helvetica", "", 10)
	w.field(l.RecordID, c.ID)
	if !c.SubmissionDate.IsZero() {
		w.field(l.SubmittedAt, c.SubmissionDate.UTC().Format("02/01/2006 15:04 UTC"))
	}

	w.heading(l.MainDriver)
	w.driver(l, driver{
		c.MainDriverName, c.MainDriverFirstname, c.MainDriverAddress, c.MainDriverPostalCode,
		c.MainDriverCity, c.MainDriverCountry, c.MainDriverNationality,
		c.MainDriverBirthDate, c.MainDriverBirthPlace, c.MainDriverPhone, c.MainDriverEmail,
		c.MainDriverLicenseNumber, c.MainDriverLicenseIssueDate, c.MainDriverLicenseValidityDate, c.MainDriverLicenseIssuePlace,
		c.MainDriverPassportNumber, c.MainDriverPassportValidityDate,
	})

	w.heading(l.CreditCard)
	w.field(l.CardNumber, c.MainDriverCreditCard)
	w.field(l.CardExpiry, c.MainDriverCreditCardExpiry)
	if c.MainDriverCreditCardHolder != "" {
		w.field(l.CardHolder, c.MainDriverCreditCardHolder)
	}

	if c.HasAdditionalDriver.Bool() {
		w.heading(l.AdditionalDriver)
		w.driver(l, driver{
			c.AdditionalDriverName, c.AdditionalDriverFirstname, c.AdditionalDriverAddress, c.AdditionalDriverPostalCode,
			c.AdditionalDriverCity, c.AdditionalDriverCountry, c.AdditionalDriverNationality,
			c.AdditionalDriverBirthDate, c.AdditionalDriverBirthPlace, c.AdditionalDriverPhone, c.AdditionalDriverEmail,
			c.AdditionalDriverLicenseNumber, c.AdditionalDriverLicenseIssueDate, c.AdditionalDriverLicenseValidityDate, c.AdditionalDriverLicenseIssuePlace,
			c.AdditionalDriverPassportNumber, c.AdditionalDriverPassportValidityDate,
		})
	}

	if c.HasAdditionalCreditCard.Bool() {
		w.heading(l.AdditionalCard)
		w.field(l.CardNumber, c.AdditionalCreditCard)
		w.field(l.CardExpiry, c.AdditionalCreditCardExpiry)
		if c.AdditionalCreditCardHolder != "" {
			w.field(l.CardHolder, c.AdditionalCreditCardHolder)
		}
	}

	w.heading(l.FinesTitle)
	w.paragraph(l.FinesText)
	w.field(l.Accepted, yesNo(c.AcceptFines.Bool()))

	w.heading(l.DataTitle)
	w.paragraph(l.DataText)
	w.field(l.Accepted, yesNo(c.AcceptDataProcessing.Bool()))

	if c.AcceptTerms.Bool() {
		w.heading(l.TermsTitle)
		w.paragraph(l.TermsText)
		w.field(l.Accepted, yesNo(true))
	}

	if keys := c.ExtraKeys(); len(keys) > 0 {
		w.heading(l.ExtraTitle)
		for _, k := range keys {
			w.field(k, c.Extra[k])
		}
	}

	w.heading(l.Signature)
	w.field(l.Date, c.SignatureDate)
	w.field(l.Name, c.SignatureName)
	pdf.Ln(6)
	return pdf, r.signature(pdf, c)
}

// signature places the handwritten signature centered under the signature block.
func (r *Renderer) signature(pdf *gofpdf.Fpdf, c *models.Client) bool {
	if strings.TrimSpace(c.SignatureData) == "" {
		return false
	}
	img, bounds, err := decodeSignature(c.SignatureData)
	if err != nil {
		r.lg.Warnw("signature skipped", "client_id", c.ID, "stage", "render", "error", err)
		return false
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(img))
	if !pdf.Ok() {
		r.lg.Warnw("signature skipped", "client_id", c.ID, "stage", "render", "error", pdf.Error())
		return false
	}
	w, h := fit(bounds.Dx(), bounds.Dy())
	pageW, _ := pdf.GetPageSize()
	pdf.ImageOptions("signature", (pageW-w)/2, -1, w, h, true, opts, 0, "")
	return true
}
