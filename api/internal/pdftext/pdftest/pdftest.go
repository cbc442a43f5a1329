// Package pdftest builds small, valid PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf16"
)

// Font selects how a page's text is encoded.
type Font int

const (
	// Simple is Helvetica with WinAnsiEncoding, one byte per glyph.
	Simple Font = iota
	// CID is a Type0 font with Identity-H encoding: two-byte glyph ids
	// mapped back to text through a ToUnicode CMap, as browsers and office
	// suites write it.
	CID
)

// Page is drawn with a single Tj. An empty Text gives a blank page.
type Page struct {
	Text string
	Font Font
}

const (
	objCatalog = 1 + iota
	objPages
	objHelvetica
	objType0
	objCIDFont
	objDescriptor
	objToUnicode
	firstPageObj
)

// Build returns a PDF with one page per element of pages.
func Build(pages ...Page) []byte {
	glyphs := glyphIDs(pages)

	objs := map[int]string{
		objHelvetica:  "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		objType0:      fmt.Sprintf("<< /Type /Font /Subtype /Type0 /BaseFont /ArialMT /Encoding /Identity-H /DescendantFonts [%d 0 R] /ToUnicode %d 0 R >>", objCIDFont, objToUnicode),
		objCIDFont:    fmt.Sprintf("<< /Type /Font /Subtype /CIDFontType2 /BaseFont /ArialMT /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /FontDescriptor %d 0 R /CIDToGIDMap /Identity >>", objDescriptor),
		objDescriptor: "<< /Type /FontDescriptor /FontName /ArialMT /Flags 32 /FontBBox [0 -200 1000 900] /ItalicAngle 0 /Ascent 900 /Descent -200 /CapHeight 700 /StemV 80 >>",
		objToUnicode:  stream(toUnicode(glyphs)),
	}

	kids := make([]string, len(pages))
	for i, p := range pages {
		pageObj := firstPageObj + 2*i
		contentObj := pageObj + 1
		kids[i] = fmt.Sprintf("%d 0 R", pageObj)
		objs[pageObj] = fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R /F2 %d 0 R >> >> /Contents %d 0 R >>",
			objPages, objHelvetica, objType0, contentObj)
		objs[contentObj] = stream(content(p, glyphs))
	}
	objs[objCatalog] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", objPages)
	objs[objPages] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	size := firstPageObj + 2*len(pages)
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, size)
	for n := 1; n < size; n++ {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, objs[n])
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for n := 1; n < size; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, objCatalog, xref)
	return buf.Bytes()
}

func stream(data string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data)
}

// glyphIDs numbers every rune used on a CID page from 3 upwards, the way
// subsetting font writers assign glyph ids.
func glyphIDs(pages []Page) map[rune]uint16 {
	ids := map[rune]uint16{}
	next := uint16(3)
	for _, p := range pages {
		if p.Font != CID {
			continue
		}
		for _, r := range p.Text {
			if _, ok := ids[r]; !ok {
				ids[r] = next
				next++
			}
		}
	}
	return ids
}

func content(p Page, glyphs map[rune]uint16) string {
	if p.Text == "" {
		return ""
	}
	if p.Font == CID {
		var hex strings.Builder
		for _, r := range p.Text {
			fmt.Fprintf(&hex, "%04X", glyphs[r])
		}
		return fmt.Sprintf("BT /F2 12 Tf 72 712 Td <%s> Tj ET", hex.String())
	}
	esc := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(p.Text)
	return fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", esc)
}

func toUnicode(glyphs map[rune]uint16) string {
	var b strings.Builder
	b.WriteString("/CIDInit /ProcSet findresource begin\n12 dict begin\nbegincmap\n")
	b.WriteString("/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def\n")
	b.WriteString("/CMapName /Adobe-Identity-UCS def\n/CMapType 2 def\n")
	b.WriteString("1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n")
	if len(glyphs) > 0 {
		// ids are dense from 3, so emit them in order
		byID := make([]rune, len(glyphs))
		for r, id := range glyphs {
			byID[id-3] = r
		}
		fmt.Fprintf(&b, "%d beginbfchar\n", len(byID))
		for i, r := range byID {
			fmt.Fprintf(&b, "<%04X> <", i+3)
			for _, u := range utf16.Encode([]rune{r}) {
				fmt.Fprintf(&b, "%04X", u)
			}
			b.WriteString(">\n")
		}
		b.WriteString("endbfchar\n")
	}
	b.WriteString("endcmap\nCMapName currentdict /CMap defineresource pop\nend\nend")
	return b.String()
}
