// Package pdftext turns an uploaded PDF into one plain-text string.
//
// Extraction is page by page: a page that cannot be read contributes an
// empty string, so a document that opens always yields a result.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Text is the extracted document.
type Text struct {
	Content     string
	PageCount   int
	FailedPages []int
}

// PageSource yields the plain text of each page, 1-based.
type PageSource interface {
	PageCount() int
	PageText(pageNr int) (string, error)
}

type readerSource struct {
	r *pdf.Reader
}

func (s readerSource) PageCount() int { return s.r.NumPage() }

// PageText decodes the page's text operators through each font's encoding
// or ToUnicode map.
func (s readerSource) PageText(pageNr int) (string, error) {
	p := s.r.Page(pageNr)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d not found", pageNr)
	}
	fonts := make(map[string]*pdf.Font)
	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}
	return p.GetPlainText(fonts)
}

// Open parses b. A file the text reader rejects is rewritten by pdfcpu in
// relaxed mode and parsed once more.
func Open(b []byte) (PageSource, error) {
	r, err := newReader(b)
	if err == nil {
		return readerSource{r: r}, nil
	}
	fixed, rerr := rewrite(b)
	if rerr != nil {
		return nil, fmt.Errorf("read pdf: %w", errors.Join(err, rerr))
	}
	r, err = newReader(fixed)
	if err != nil {
		return nil, fmt.Errorf("read rewritten pdf: %w", err)
	}
	return readerSource{r: r}, nil
}

func newReader(b []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("malformed pdf: %v", p)
		}
	}()
	return pdf.NewReader(bytes.NewReader(b), int64(len(b)))
}

var disableConfigDir sync.Once

// rewrite repairs what pdfcpu tolerates (broken xref tables, stray bytes)
// and writes classic xref sections the text reader handles.
func rewrite(b []byte) ([]byte, error) {
	disableConfigDir.Do(func() { model.ConfigPath = "disable" })

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(b), &buf, conf); err != nil {
		return nil, fmt.Errorf("pdfcpu: %w", err)
	}
	return buf.Bytes(), nil
}

// Extract reads every page of src. Per-page failures are logged and
// recorded in FailedPages.
func Extract(src PageSource, log *slog.Logger) Text {
	if log == nil {
		log = slog.Default()
	}
	n := src.PageCount()
	out := Text{PageCount: n}
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		txt, err := pageText(src, i)
		if err != nil {
			log.Warn("page text extraction failed", "page", i, "error", err)
			out.FailedPages = append(out.FailedPages, i)
			txt = ""
		}
		pages = append(pages, txt)
	}
	out.Content = strings.Join(pages, "")
	if strings.TrimSpace(out.Content) == "" {
		log.Warn("pdf has no extractable text", "pages", n, "failed", len(out.FailedPages))
	}
	return out
}

func pageText(src PageSource, pageNr int) (txt string, err error) {
	defer func() {
		if r := recover(); r != nil {
			txt, err = "", fmt.Errorf("page %d: %v", pageNr, r)
		}
	}()
	t, err := src.PageText(pageNr)
	if err != nil {
		return "", err
	}
	t = strings.TrimSpace(t)
	if t != "" {
		t += "\n"
	}
	return t, nil
}

// FromBytes opens and extracts an in-memory PDF.
func FromBytes(b []byte, log *slog.Logger) (Text, error) {
	src, err := Open(b)
	if err != nil {
		return Text{}, err
	}
	return Extract(src, log), nil
}

// Truncate keeps the first limit runes of s.
func Truncate(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	i, n := 0, 0
	for i = range s {
		if n == limit {
			break
		}
		n++
	}
	return s[:i], true
}
