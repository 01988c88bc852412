// Package summary renders the complaint table as a PNG image, for the report
// page and for posting to Telegram.
package summary

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"cadastro/internal/complaint"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// ErrNoRecords is returned when there is nothing to draw.
var ErrNoRecords = errors.New("no complaints to render")

// MaxRows is how many of the most recent complaints one image draws.
const MaxRows = 40

// Table styling constants, drawn at 2x scale so the image stays sharp on phones
const (
	cellPaddingX  = 20
	cellPaddingY  = 16
	minRowHeight  = 60
	headerHeight  = 76
	fontSize      = 24
	headerFontSz  = 24
	titleFontSz   = 36
	footerFontSz  = 22
	titlePadding  = 100
	footerPadding = 70
	minColWidth   = 90
	maxNameWidth  = 320.0
	maxDescWidth  = 440.0
)

// Colors follow the web form theme.
var (
	bgColor         = color.RGBA{R: 245, G: 247, B: 245, A: 255}
	titleColor      = color.RGBA{R: 33, G: 33, B: 33, A: 255}
	headerBgColor   = color.RGBA{R: 76, G: 175, B: 80, A: 255} // #4CAF50
	headerTextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	rowEvenColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	rowOddColor     = color.RGBA{R: 237, G: 247, B: 237, A: 255}
	textColor       = color.RGBA{R: 33, G: 33, B: 33, A: 255}
	borderColor     = color.RGBA{R: 200, G: 220, B: 200, A: 255}
	footerColor     = color.RGBA{R: 97, G: 97, B: 97, A: 255}
)

type column struct {
	header   string
	field    func(r *complaint.Record) string
	maxWidth float64 // 0 means auto
}

var columns = []column{
	{"Nº", func(r *complaint.Record) string { return strconv.Itoa(r.Number) }, 0},
	{"Data", func(r *complaint.Record) string { return complaint.FormatDisplayDate(r.ReceivedDate) }, 0},
	{"Nome", func(r *complaint.Record) string { return r.Name }, maxNameWidth},
	{"Telefone", func(r *complaint.Record) string { return r.Phone }, 0},
	{"Processo", func(r *complaint.Record) string { return string(r.Process) }, 0},
	{"Descrição", func(r *complaint.Record) string { return r.Description }, maxDescWidth},
	{"Status", func(r *complaint.Record) string { return string(r.ReturnStatus) }, 0},
	{"Data Retorno", func(r *complaint.Record) string { return complaint.FormatDisplayDate(r.ReturnDate) }, 0},
}

// findFont locates a font file across Linux and Windows paths.
func findFont(bold bool) string {
	var candidates []string
	if runtime.GOOS == "windows" {
		winRoot := os.Getenv("WINDIR")
		if winRoot == "" {
			winRoot = `C:\Windows`
		}
		if bold {
			candidates = []string{winRoot + `\Fonts\arialbd.ttf`}
		} else {
			candidates = []string{winRoot + `\Fonts\arial.ttf`}
		}
	} else {
		if bold {
			candidates = []string{
				"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
				"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
				"/usr/share/fonts/dejavu/DejaVuSans-Bold.ttf",
			}
		} else {
			candidates = []string{
				"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
				"/usr/share/fonts/TTF/DejaVuSans.ttf",
				"/usr/share/fonts/dejavu/DejaVuSans.ttf",
			}
		}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return candidates[0]
}

// loadFace loads a TrueType face, falling back to the built-in bitmap font
// on hosts without one.
func loadFace(path string, size float64) font.Face {
	face, err := gg.LoadFontFace(path, size)
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// fonts holds the faces used for one rendering.
type fonts struct {
	title, header, body, footer font.Face
}

func loadFonts() fonts {
	bold, regular := findFont(true), findFont(false)
	return fonts{
		title:  loadFace(bold, titleFontSz),
		header: loadFace(bold, headerFontSz),
		body:   loadFace(regular, fontSize),
		footer: loadFace(regular, footerFontSz),
	}
}

// wrapText splits text into lines that fit within maxWidth.
func wrapText(dc *gg.Context, text string, maxWidth float64) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))

	if maxWidth <= 0 {
		return []string{text}
	}
	if w, _ := dc.MeasureString(text); w <= maxWidth {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if w, _ := dc.MeasureString(candidate); w > maxWidth {
			lines = append(lines, current)
			current = word
		} else {
			current = candidate
		}
	}
	return append(lines, current)
}

func lineMetrics(dc *gg.Context) (lineH, spacing float64) {
	_, lineH = dc.MeasureString("Ay")
	return lineH, lineH + 4
}

func computeRowHeights(dc *gg.Context, records []complaint.Record, colWidths []float64) []float64 {
	_, spacing := lineMetrics(dc)

	heights := make([]float64, len(records))
	for i := range records {
		maxLines := 1
		for c, col := range columns {
			wrapped := wrapText(dc, col.field(&records[i]), colWidths[c]-cellPaddingX*2)
			if len(wrapped) > maxLines {
				maxLines = len(wrapped)
			}
		}
		heights[i] = max(float64(maxLines)*spacing+cellPaddingY*2, minRowHeight)
	}
	return heights
}

// RenderTable draws the records as a table, ordered by complaint number, and
// returns PNG bytes. generatedAt is printed in the title. Only the MaxRows
// highest-numbered complaints are drawn; the footer still states the total.
func RenderTable(records []complaint.Record, generatedAt time.Time) ([]byte, error) {
	return renderTable(records, generatedAt, MaxRows)
}

// latest returns a copy of the limit highest-numbered records, ascending.
func latest(records []complaint.Record, limit int) []complaint.Record {
	rows := make([]complaint.Record, len(records))
	copy(rows, records)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Number < rows[j].Number })
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows
}

func footerText(total, shown int) string {
	if shown < total {
		return fmt.Sprintf("Total: %d cadastros (exibindo os %d mais recentes)", total, shown)
	}
	return fmt.Sprintf("Total: %d cadastros", total)
}

func renderTable(records []complaint.Record, generatedAt time.Time, limit int) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	rows := latest(records, limit)

	faces := loadFonts()

	// Measure column widths
	tmp := gg.NewContext(1, 1)
	tmp.SetFontFace(faces.header)
	colWidths := make([]float64, len(columns))
	for i, col := range columns {
		w, _ := tmp.MeasureString(col.header)
		colWidths[i] = max(w+cellPaddingX*2+4, minColWidth)
	}

	tmp.SetFontFace(faces.body)
	for r := range rows {
		for i, col := range columns {
			w, _ := tmp.MeasureString(col.field(&rows[r]))
			colWidths[i] = max(colWidths[i], w+cellPaddingX*2+4)
		}
	}
	for i, col := range columns {
		if col.maxWidth > 0 && colWidths[i] > col.maxWidth {
			colWidths[i] = col.maxWidth
		}
	}

	rowHeights := computeRowHeights(tmp, rows, colWidths)

	var totalWidth, totalRowHeight float64
	for _, w := range colWidths {
		totalWidth += w
	}
	for _, h := range rowHeights {
		totalRowHeight += h
	}

	canvasWidth := totalWidth + 80
	canvasHeight := titlePadding + headerHeight + totalRowHeight + footerPadding

	dc := gg.NewContext(int(canvasWidth), int(canvasHeight))
	dc.SetColor(bgColor)
	dc.Clear()

	dc.SetFontFace(faces.title)
	dc.SetColor(titleColor)
	title := fmt.Sprintf("Cadastro de Reclamações - %s", generatedAt.Format("02/01/2006 15:04"))
	dc.DrawStringAnchored(title, canvasWidth/2, titlePadding/2+2, 0.5, 0.5)

	tableX := 40.0
	tableY := float64(titlePadding)

	dc.SetColor(headerBgColor)
	dc.DrawRoundedRectangle(tableX, tableY, totalWidth, headerHeight, 12)
	dc.Fill()

	dc.SetFontFace(faces.header)
	dc.SetColor(headerTextColor)
	x := tableX
	for i, col := range columns {
		dc.DrawStringAnchored(col.header, x+colWidths[i]/2, tableY+headerHeight/2, 0.5, 0.5)
		x += colWidths[i]
	}

	dc.SetFontFace(faces.body)
	lineH, spacing := lineMetrics(dc)
	curY := tableY + headerHeight

	for r := range rows {
		rh := rowHeights[r]

		if r%2 == 0 {
			dc.SetColor(rowEvenColor)
		} else {
			dc.SetColor(rowOddColor)
		}
		dc.DrawRectangle(tableX, curY, totalWidth, rh)
		dc.Fill()

		dc.SetColor(borderColor)
		dc.SetLineWidth(0.5)
		dc.DrawLine(tableX, curY+rh, tableX+totalWidth, curY+rh)
		dc.Stroke()

		dc.SetColor(textColor)
		x := tableX
		for i, col := range columns {
			wrapped := wrapText(dc, col.field(&rows[r]), colWidths[i]-cellPaddingX*2)
			startY := curY + (rh-float64(len(wrapped))*spacing)/2 + lineH
			for l, line := range wrapped {
				dc.DrawString(line, x+cellPaddingX, startY+float64(l)*spacing)
			}
			x += colWidths[i]
		}
		curY += rh
	}

	dc.SetColor(borderColor)
	dc.SetLineWidth(1)
	tableH := headerHeight + totalRowHeight
	dc.DrawRoundedRectangle(tableX, tableY, totalWidth, tableH, 12)
	dc.Stroke()

	dc.SetLineWidth(0.5)
	x = tableX
	for i := 0; i < len(columns)-1; i++ {
		x += colWidths[i]
		dc.DrawLine(x, tableY+headerHeight, x, tableY+tableH)
		dc.Stroke()
	}

	dc.SetFontFace(faces.footer)
	dc.SetColor(footerColor)
	dc.DrawStringAnchored(footerText(len(records), len(rows)), canvasWidth/2, canvasHeight-30, 0.5, 0.5)

	return encodeImage(dc.Image())
}

func encodeImage(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
