package certificates

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// A4 landscape at 150 dpi.
const (
	canvasWidth  = 1754
	canvasHeight = 1240
	pageWidthMM  = 297.0
	pageHeightMM = 210.0
	pxToMM       = pageWidthMM / canvasWidth

	qrSize = 240
	qrX    = 1370
	qrY    = 760
)

type RendererConfig struct {
	// VerifyBaseURL prefixes /certificates/verify/{hash} in the QR code.
	VerifyBaseURL string
	Templates     *TemplateRegistry
}

// PDFRenderer lays the certificate out on a raster canvas and wraps it in a
// single-page PDF. Output depends only on its inputs.
type PDFRenderer struct {
	baseURL   string
	templates *TemplateRegistry
	regular   *truetype.Font
	bold      *truetype.Font
	italic    *truetype.Font
}

func NewPDFRenderer(cfg RendererConfig) (*PDFRenderer, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.VerifyBaseURL), "/")
	if base == "" {
		return nil, errors.New("verify base url is required")
	}
	if cfg.Templates == nil {
		return nil, errors.New("template registry is required")
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	italic, err := truetype.Parse(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse italic font: %w", err)
	}
	return &PDFRenderer{baseURL: base, templates: cfg.Templates, regular: regular, bold: bold, italic: italic}, nil
}

func VerificationURL(baseURL, hash string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/certificates/verify/" + hash
}

func (r *PDFRenderer) VerificationURL(hash string) string {
	return VerificationURL(r.baseURL, hash)
}

func (r *PDFRenderer) Render(data CertificateData, hash string) ([]byte, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, errors.New("hash is required")
	}
	if data.IssueDate.IsZero() {
		return nil, errors.New("issue date is required")
	}
	tmpl, _ := r.templates.Resolve(data.TemplateID)
	verifyURL := r.VerificationURL(hash)

	raster, err := r.drawCanvas(tmpl, data, hash, verifyURL)
	if err != nil {
		return nil, err
	}
	return r.wrapPDF(tmpl, data, hash, verifyURL, raster)
}

type palette struct {
	background, border, accent, text, muted color.NRGBA
}

func templatePalette(t Template) palette {
	// validated at load time
	bg, _ := parseHexColor(t.Colors.Background)
	border, _ := parseHexColor(t.Colors.Border)
	accent, _ := parseHexColor(t.Colors.Accent)
	text, _ := parseHexColor(t.Colors.Text)
	muted, _ := parseHexColor(t.Colors.Muted)
	return palette{background: bg, border: border, accent: accent, text: text, muted: muted}
}

func (r *PDFRenderer) drawCanvas(tmpl Template, data CertificateData, hash, verifyURL string) ([]byte, error) {
	pal := templatePalette(tmpl)
	dc := gg.NewContext(canvasWidth, canvasHeight)
	const cx = canvasWidth / 2.0

	dc.SetColor(pal.background)
	dc.DrawRectangle(0, 0, canvasWidth, canvasHeight)
	dc.Fill()

	// Frame
	dc.SetColor(pal.border)
	dc.SetLineWidth(14)
	dc.DrawRectangle(40, 40, canvasWidth-80, canvasHeight-80)
	dc.Stroke()
	dc.SetColor(pal.accent)
	dc.SetLineWidth(3)
	dc.DrawRectangle(70, 70, canvasWidth-140, canvasHeight-140)
	dc.Stroke()

	dc.SetColor(pal.border)
	dc.SetFontFace(r.fitFace(dc, r.bold, tmpl.Labels.Title, 64, 36, 1400))
	dc.DrawStringAnchored(tmpl.Labels.Title, cx, 220, 0.5, 0.5)
	dc.SetColor(pal.accent)
	dc.SetLineWidth(4)
	dc.DrawLine(cx-260, 275, cx+260, 275)
	dc.Stroke()

	dc.SetColor(pal.muted)
	dc.SetFontFace(newFace(r.regular, 30))
	dc.DrawStringAnchored(tmpl.Labels.PresentedTo, cx, 360, 0.5, 0.5)

	dc.SetColor(pal.text)
	dc.SetFontFace(r.fitFace(dc, r.bold, data.StudentName, 72, 36, 1300))
	dc.DrawStringAnchored(data.StudentName, cx, 460, 0.5, 0.5)

	dc.SetColor(pal.muted)
	dc.SetFontFace(newFace(r.regular, 30))
	dc.DrawStringAnchored(tmpl.Labels.Completed, cx, 560, 0.5, 0.5)

	dc.SetColor(pal.border)
	dc.SetFontFace(r.fitFace(dc, r.bold, data.CourseTitle, 48, 28, 2400))
	dc.DrawStringWrapped(data.CourseTitle, cx, 650, 0.5, 0.5, 1300, 1.3, gg.AlignCenter)

	r.drawSignature(dc, pal, tmpl, data)

	// Issue date
	const dateX = 877.0
	dc.SetColor(pal.text)
	dc.SetLineWidth(2)
	dc.DrawLine(dateX-150, 945, dateX+150, 945)
	dc.Stroke()
	date := data.IssueDate.UTC()
	dc.SetFontFace(newFace(r.bold, 28))
	dc.DrawStringAnchored(tmpl.FormatDate(date.Year(), int(date.Month()), date.Day()), dateX, 985, 0.5, 0.5)
	dc.SetColor(pal.muted)
	dc.SetFontFace(newFace(r.regular, 22))
	dc.DrawStringAnchored(tmpl.Labels.IssueDate, dateX, 1018, 0.5, 0.5)

	if err := drawQR(dc, verifyURL); err != nil {
		return nil, err
	}

	dc.SetColor(pal.muted)
	dc.SetFontFace(newFace(r.regular, 18))
	dc.DrawStringAnchored(tmpl.Labels.Verify, cx, 1065, 0.5, 0.5)
	dc.SetColor(pal.text)
	dc.SetFontFace(r.fitFace(dc, r.regular, verifyURL, 18, 10, 1560))
	dc.DrawStringAnchored(verifyURL, cx, 1095, 0.5, 0.5)
	hashLine := tmpl.Labels.Hash + ": " + hash
	dc.SetColor(pal.muted)
	dc.SetFontFace(r.fitFace(dc, r.regular, hashLine, 16, 10, 1560))
	dc.DrawStringAnchored(hashLine, cx, 1125, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode certificate png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) drawSignature(dc *gg.Context, pal palette, tmpl Template, data CertificateData) {
	const (
		sigX = 450.0
		boxW = 440
		boxH = 130
		boxY = 805
	)
	drawn := false
	if len(data.InstructorSignature) > 0 {
		if img, _, err := image.Decode(bytes.NewReader(data.InstructorSignature)); err == nil {
			scaled := fitImage(img, boxW, boxH)
			b := scaled.Bounds()
			dc.DrawImage(scaled, int(sigX)-b.Dx()/2, boxY+boxH-b.Dy())
			drawn = true
		}
	}
	if !drawn {
		// typeset stand-in when no usable signature image exists
		dc.SetColor(pal.border)
		dc.SetFontFace(r.fitFace(dc, r.italic, data.InstructorName, 44, 24, boxW))
		dc.DrawStringAnchored(data.InstructorName, sigX, boxY+boxH-30, 0.5, 0.5)
	}

	dc.SetColor(pal.text)
	dc.SetLineWidth(2)
	dc.DrawLine(sigX-220, 945, sigX+220, 945)
	dc.Stroke()
	dc.SetFontFace(r.fitFace(dc, r.bold, data.InstructorName, 28, 16, 440))
	dc.DrawStringAnchored(data.InstructorName, sigX, 985, 0.5, 0.5)
	dc.SetColor(pal.muted)
	dc.SetFontFace(newFace(r.regular, 22))
	dc.DrawStringAnchored(tmpl.Labels.Instructor, sigX, 1018, 0.5, 0.5)
}

func drawQR(dc *gg.Context, content string) error {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	q.DisableBorder = true
	// quiet zone
	dc.SetColor(color.White)
	dc.DrawRectangle(qrX-16, qrY-16, qrSize+32, qrSize+32)
	dc.Fill()
	dc.DrawImage(q.Image(qrSize), qrX, qrY)
	return nil
}

// fitImage scales img down (never up) to fit inside w x h, keeping its aspect
// ratio.
func fitImage(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return img
	}
	scale := float64(w) / float64(b.Dx())
	if s := float64(h) / float64(b.Dy()); s < scale {
		scale = s
	}
	if scale >= 1 {
		return img
	}
	dw := int(float64(b.Dx()) * scale)
	dh := int(float64(b.Dy()) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// fitFace shrinks the font until s fits in maxWidth or minSize is reached.
func (r *PDFRenderer) fitFace(dc *gg.Context, f *truetype.Font, s string, size, minSize, maxWidth float64) font.Face {
	for ; size > minSize; size -= 2 {
		face := newFace(f, size)
		dc.SetFontFace(face)
		if w, _ := dc.MeasureString(s); w <= maxWidth {
			return face
		}
	}
	return newFace(f, minSize)
}

func (r *PDFRenderer) wrapPDF(tmpl Template, data CertificateData, hash, verifyURL string, raster []byte) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCreationDate(data.IssueDate.UTC())
	pdf.SetModificationDate(data.IssueDate.UTC())
	pdf.SetCatalogSort(true)
	pdf.SetTitle(tmpl.Labels.Title+" - "+data.CourseTitle, true)
	pdf.SetAuthor(data.InstructorName, true)
	pdf.SetSubject(data.CourseTitle, true)
	pdf.SetKeywords(hash, false)
	pdf.SetCreator("neurobridge-certificates", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("certificate", opts, bytes.NewReader(raster))
	pdf.ImageOptions("certificate", 0, 0, pageWidthMM, pageHeightMM, false, opts, 0, "")
	pdf.LinkString(qrX*pxToMM, qrY*pxToMM, qrSize*pxToMM, qrSize*pxToMM, verifyURL)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build certificate pdf: %w", err)
	}
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write certificate pdf: %w", err)
	}
	return out.Bytes(), nil
}
