package layout

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/pi-tools/report-forge/pkg/models/domain"
	"github.com/pi-tools/report-forge/pkg/services/assets"
	"github.com/pi-tools/report-forge/pkg/services/format"
)

// Page geometry in points, US Letter.
const (
	pageWidth    = 612.0
	pageHeight   = 792.0
	marginLeft   = 54.0
	marginRight  = 54.0
	marginTop    = 96.0
	marginBottom = 60.0
	lineHeight   = 14.0

	checkboxSize   = 9.0
	checkboxStride = 28.0
	labelIndent    = 170.0

	placeholderText = "[Image failed to load]"
)

// direct-strategy image tiers, mirroring the markup tiers in points
// (1in = 72pt).
func directTierFor(count int) (width, maxHeight float64) {
	switch count {
	case 1:
		return 216, 180
	case 2:
		return 129.6, 144
	case 3:
		return 93.6, 129.6
	default:
		return 72, 108
	}
}

// DirectLayout paginates the report onto a PDF canvas itself, in two
// passes: a dry run counts pages, the final pass draws headers, footers
// with the real total, and the checkbox widgets.
type DirectLayout struct{}

func NewDirectLayout() *DirectLayout { return &DirectLayout{} }

// DirectResult reports what the final pass produced.
type DirectResult struct {
	PageCount int
	// FieldNames lists every checkbox field identifier in draw order;
	// names are stable across renders of the same input.
	FieldNames []string
}

// Render writes the paginated report to outPath.
func (d *DirectLayout) Render(ins *domain.Inspection, cache *assets.Cache, outPath string) (*DirectResult, error) {
	// Pass 1: identical walk against a discarded canvas, page count only.
	dry := newPass(ins, cache, 0)
	dry.walk()
	if err := dry.pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed dry-run layout pass: %w", err)
	}
	total := dry.pdf.PageNo()

	// Pass 2: the real canvas, with accurate "Page X of Y" footers.
	final := newPass(ins, cache, total)
	final.walk()
	if err := final.pdf.OutputFileAndClose(outPath); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	return &DirectResult{PageCount: total, FieldNames: final.fields}, nil
}

type pass struct {
	pdf        *gofpdf.Fpdf
	ins        *domain.Inspection
	cache      *assets.Cache
	totalPages int // 0 during the dry run
	fields     []string
}

func newPass(ins *domain.Inspection, cache *assets.Cache, totalPages int) *pass {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	return &pass{pdf: pdf, ins: ins, cache: cache, totalPages: totalPages}
}

func (p *pass) final() bool { return p.totalPages > 0 }

func (p *pass) contentWidth() float64 { return pageWidth - marginLeft - marginRight }

func (p *pass) addPage() {
	p.pdf.AddPage()
	if p.final() {
		p.drawHeader()
		p.drawFooter()
	}
	p.pdf.SetY(marginTop)
}

// ensureSpace forces a page break when the cursor cannot fit the next
// atomic unit above the bottom margin.
func (p *pass) ensureSpace(h float64) {
	if p.pdf.GetY()+h > pageHeight-marginBottom {
		p.addPage()
	}
}

func (p *pass) drawHeader() {
	pdf := p.pdf
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(marginLeft, 40, "Report Identification:")
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft+95, 42, marginLeft+95+216, 42)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(marginLeft, 58, "I=Inspected    NI=Not Inspected    NP=Not Present    D=Deficient")
}

func (p *pass) drawFooter() {
	pdf := p.pdf
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(marginLeft, pageHeight-30, "REI 7-6")
	footer := fmt.Sprintf("Page %d of %d", pdf.PageNo(), p.totalPages)
	w := pdf.GetStringWidth(footer)
	pdf.Text((pageWidth-w)/2, pageHeight-30, footer)
}

func (p *pass) walk() {
	p.titlePage()
	p.formPage()

	for i, section := range p.ins.Sections {
		// Every section opens a fresh page, matching the markup
		// strategy's clearpage behaviour.
		p.addPage()
		p.sectionHeading(i, section)
		for j, item := range section.LineItems {
			p.lineItem(i, j, item)
		}
	}
}

func (p *pass) centeredLine(txt string, size float64, style string) {
	p.pdf.SetFont("Helvetica", style, size)
	p.pdf.SetX(marginLeft)
	p.pdf.CellFormat(p.contentWidth(), size+6, txt, "", 1, "C", false, 0, "")
}

func (p *pass) titlePage() {
	ins := p.ins
	p.addPage()
	p.pdf.SetY(160)
	p.centeredLine("PROPERTY INSPECTION REPORT", 24, "B")
	p.pdf.Ln(30)
	p.centeredLine("Prepared For:", 14, "B")
	p.centeredLine(ins.ClientInfo.Name, 13, "")
	p.pdf.Ln(16)
	p.centeredLine("Concerning:", 14, "B")
	p.centeredLine(ins.Address.FullAddress, 13, "")
	p.pdf.Ln(16)
	p.centeredLine("By:", 14, "B")
	p.centeredLine(ins.Inspector.Name, 13, "")
	if ins.Inspector.Email != "" {
		p.centeredLine(ins.Inspector.Email, 11, "")
	}
	p.pdf.Ln(16)
	p.centeredLine("Date of Inspection:", 14, "B")
	p.centeredLine(format.Timestamp(ins.Schedule.Date), 13, "")
	if agent, ok := ins.PrimaryAgent(); ok && agent.Name != "" {
		p.pdf.Ln(16)
		p.centeredLine("Real Estate Agent: "+agent.Name, 11, "")
		if agent.Company.Name != "" {
			p.centeredLine("Company: "+agent.Company.Name, 11, "")
		}
	}
	if sqft := ins.BookingFormData.PropertyInfo.SquareFootage; sqft > 0 {
		p.pdf.Ln(12)
		p.centeredLine(fmt.Sprintf("Approximate Square Footage: %d sq ft", sqft), 11, "")
	}
}

func (p *pass) formPage() {
	ins := p.ins
	pdf := p.pdf
	p.addPage()
	pdf.SetY(marginTop)

	cellW := p.contentWidth() / 2
	row := func(left, right string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.SetX(marginLeft)
		pdf.CellFormat(cellW, 18, left, "1", 0, "L", false, 0, "")
		pdf.CellFormat(cellW, 18, right, "1", 1, "L", false, 0, "")
	}
	row("Buyer Name", "Date of Inspection", true)
	row(ins.ClientInfo.Name, format.Timestamp(ins.Schedule.Date), false)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetX(marginLeft)
	pdf.CellFormat(cellW*2, 18, "Address of Inspected Property", "1", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(marginLeft)
	pdf.CellFormat(cellW*2, 18, ins.Address.FullAddress, "1", 1, "L", false, 0, "")
	row("Name of Inspector", "License #", true)
	row(ins.Inspector.Name, "", false)

	pdf.Ln(18)
	p.centeredLine("PROPERTY INSPECTION REPORT FORM", 14, "B")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetX(marginLeft)
	pdf.CellFormat(p.contentWidth(), lineHeight, "PURPOSE OF INSPECTION", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(marginLeft)
	pdf.MultiCell(p.contentWidth(), lineHeight,
		"A real estate inspection is a visual survey of a structure and a basic performance "+
			"evaluation of the systems and components of a building. It provides information "+
			"regarding the general condition of a residence at the time the inspection was "+
			"conducted. It is important that you carefully read ALL of this information. Ask "+
			"the inspector to clarify any items or comments that are unclear.",
		"", "L", false)
}

func (p *pass) sectionHeading(idx int, section domain.Section) {
	p.ensureSpace(2 * lineHeight)
	heading := fmt.Sprintf("%s. %s", format.Roman(idx+1), strings.ToUpper(section.Name))
	p.pdf.SetFont("Helvetica", "B", 13)
	p.pdf.SetX(marginLeft)
	p.pdf.CellFormat(p.contentWidth(), 2*lineHeight, heading, "", 1, "C", false, 0, "")
}

func (p *pass) lineItem(sectionIdx, itemIdx int, item domain.LineItem) {
	p.ensureSpace(lineHeight)
	heading := fmt.Sprintf("%s. %s", format.ItemLetter(itemIdx), item.Title)
	p.pdf.SetFont("Helvetica", "B", 11)
	p.pdf.SetX(marginLeft)
	p.pdf.CellFormat(p.contentWidth(), lineHeight, heading, "", 1, "L", false, 0, "")

	boxes := format.DeriveCheckboxes(item.InspectionStatus, item.IsDeficient)
	hasComments := len(item.Comments) > 0
	hasStatus := item.InspectionStatus != nil

	switch {
	case !hasComments && hasStatus:
		g := p.measureComment(domain.Comment{Label: "No comment"})
		p.ensureSpace(g.height)
		p.drawCommentRow(boxes, g, format.FieldName(sectionIdx, itemIdx, 0, item.ID))
	case hasComments && !hasStatus:
		for _, c := range item.Comments {
			if c.Value == "" {
				continue
			}
			p.pdf.SetFont("Helvetica", "", 10)
			lines := p.pdf.SplitText(c.Value, p.contentWidth())
			p.ensureSpace(float64(len(lines)) * lineHeight)
			p.pdf.SetX(marginLeft)
			p.pdf.MultiCell(p.contentWidth(), lineHeight, c.Value, "", "L", false)
		}
	case !hasComments && !hasStatus:
		p.ensureSpace(lineHeight)
		p.pdf.SetFont("Helvetica", "", 10)
		p.pdf.SetX(marginLeft)
		p.pdf.CellFormat(p.contentWidth(), lineHeight, "No comment", "", 1, "L", false, 0, "")
	default:
		for k, c := range item.Comments {
			labeled := c
			labeled.Label = fmt.Sprintf("%d. %s", k+1, c.Label)
			g := p.measureComment(labeled)
			p.ensureSpace(g.height)
			p.drawCommentRow(boxes, g, format.FieldName(sectionIdx, itemIdx, k, c.ID))
		}
	}

	p.pdf.Ln(lineHeight / 2)
}

type placedImage struct {
	path          string
	caption       string
	pxW, pxH      int
	width, height float64
}

// commentGeom is the measured shape of one comment block. The page-break
// test runs against height before anything is drawn, so a comment is never
// started on a page that cannot resolve it.
type commentGeom struct {
	labelLines []string
	valueLines []string
	images     []placedImage
	failed     int
	height     float64
}

func (p *pass) measureComment(c domain.Comment) commentGeom {
	var g commentGeom
	textW := p.contentWidth() - labelIndent + marginLeft

	p.pdf.SetFont("Helvetica", "B", 10)
	g.labelLines = p.pdf.SplitText(c.Label, textW)
	g.height = float64(len(g.labelLines)) * lineHeight

	var rowH float64
	for _, photo := range c.Photos {
		if photo.URL == "" {
			continue
		}
		local, ok := p.cache.Lookup(photo.URL)
		if !ok {
			g.failed++
			continue
		}
		pw, ph, err := imageDimensions(local)
		if err != nil {
			// Raw fallback bytes the canvas cannot embed take the same
			// placeholder path as a fetch failure here.
			g.failed++
			continue
		}
		g.images = append(g.images, placedImage{path: local, caption: photo.Caption, pxW: pw, pxH: ph})
	}

	tierW, tierMaxH := directTierFor(len(g.images))
	hasCaption := false
	for i := range g.images {
		pw, ph := g.images[i].pxW, g.images[i].pxH
		w := tierW
		h := w * float64(ph) / float64(pw)
		if h > tierMaxH {
			h = tierMaxH
			w = h * float64(pw) / float64(ph)
		}
		g.images[i].width = w
		g.images[i].height = h
		if h > rowH {
			rowH = h
		}
		if g.images[i].caption != "" {
			hasCaption = true
		}
	}
	if len(g.images) > 0 {
		rowH += 6
		if hasCaption {
			rowH += lineHeight
		}
		g.height += rowH
	}

	// Each unavailable photo costs one fixed placeholder line.
	g.height += float64(g.failed) * lineHeight

	if c.Value != "" {
		p.pdf.SetFont("Helvetica", "", 10)
		g.valueLines = p.pdf.SplitText(c.Value, textW)
		g.height += float64(len(g.valueLines))*lineHeight + 4
	}

	return g
}

func (p *pass) drawCommentRow(boxes format.Checkboxes, g commentGeom, fieldName string) {
	pdf := p.pdf
	y := pdf.GetY()
	p.fields = append(p.fields, fieldName)

	if p.final() {
		p.drawCheckboxes(boxes, marginLeft, y)
	}

	// Label text to the right of the checkbox group.
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(labelIndent, y)
	for _, line := range g.labelLines {
		pdf.CellFormat(p.contentWidth()-labelIndent+marginLeft, lineHeight, line, "", 2, "L", false, 0, "")
	}
	pdf.SetY(y + float64(len(g.labelLines))*lineHeight)

	if len(g.images) > 0 {
		p.drawImageRow(g.images)
	}

	pdf.SetFont("Helvetica", "I", 9)
	for i := 0; i < g.failed; i++ {
		pdf.SetX(labelIndent)
		pdf.CellFormat(p.contentWidth()-labelIndent+marginLeft, lineHeight, placeholderText, "", 1, "L", false, 0, "")
	}

	if len(g.valueLines) > 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetX(labelIndent)
		pdf.MultiCell(p.contentWidth()-labelIndent+marginLeft, lineHeight, strings.Join(g.valueLines, "\n"), "", "L", false)
		pdf.SetY(pdf.GetY() + 4)
	}
}

// drawCheckboxes renders the I/NI/NP/D widget group. gofpdf carries no
// AcroForm writer, so state is drawn rather than interactive; field
// identity is still tracked per comment.
func (p *pass) drawCheckboxes(boxes format.Checkboxes, x, y float64) {
	pdf := p.pdf
	labels := []string{"I", "NI", "NP", "D"}
	checked := []bool{boxes.Inspected, boxes.NotInspected, boxes.NotPresent, boxes.Deficient}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetLineWidth(0.75)
	for i, label := range labels {
		bx := x + float64(i)*checkboxStride
		pdf.Text(bx, y+checkboxSize, label)
		boxX := bx + 12
		pdf.Rect(boxX, y, checkboxSize, checkboxSize, "D")
		if checked[i] {
			pdf.Line(boxX, y, boxX+checkboxSize, y+checkboxSize)
			pdf.Line(boxX, y+checkboxSize, boxX+checkboxSize, y)
		}
	}
}

func (p *pass) drawImageRow(images []placedImage) {
	pdf := p.pdf
	y := pdf.GetY() + 3
	x := labelIndent
	rowH := 0.0
	hasCaption := false

	for _, img := range images {
		if p.final() {
			pdf.ImageOptions(img.path, x, y, img.width, img.height, false,
				gofpdf.ImageOptions{ReadDpi: false}, 0, "")
		}
		if img.caption != "" {
			hasCaption = true
			if p.final() {
				pdf.SetFont("Helvetica", "I", 8)
				pdf.Text(x, y+img.height+10, img.caption)
			}
		}
		if img.height > rowH {
			rowH = img.height
		}
		x += img.width + 8
	}

	rowH += 3
	if hasCaption {
		rowH += lineHeight
	}
	pdf.SetY(y + rowH)
}

// imageDimensions reads pixel dimensions without fully decoding; it also
// serves as the embeddability check for the canvas.
func imageDimensions(path string) (w, h int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return 0, 0, fmt.Errorf("image has no dimensions")
	}
	return cfg.Width, cfg.Height, nil
}
