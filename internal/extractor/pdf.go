package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"docchat/internal/domain"
)

// PDFExtractor pulls plain text out of PDF bytes page by page.
// Pages without a text layer contribute nothing; they do not fail the document.
type PDFExtractor struct {
	log *zap.Logger
}

func NewPDFExtractor(log *zap.Logger) *PDFExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &PDFExtractor{log: log.With(zap.String("component", "extractor"))}
}

// pageSource is the part of a PDF reader the extractor walks.
type pageSource interface {
	NumPage() int
	PageText(num int) (string, error)
}

type pdfReader struct {
	r *pdf.Reader
}

func (p pdfReader) NumPage() int { return p.r.NumPage() }

func (p pdfReader) PageText(num int) (string, error) {
	page := p.r.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// Extract returns the concatenated text of all pages in page order.
// A PDF with no text layer yields an empty Text and a nil error.
func (e *PDFExtractor) Extract(data []byte) (out domain.Extraction, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("pdf parser panicked", zap.Any("panic", r))
			out = domain.Extraction{}
			err = fmt.Errorf("%w: %v", domain.ErrUnreadablePDF, r)
		}
	}()
	if len(data) == 0 {
		return domain.Extraction{}, fmt.Errorf("%w: empty file", domain.ErrUnreadablePDF)
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %v", domain.ErrUnreadablePDF, err)
	}
	out = e.readPages(pdfReader{r: r})
	e.log.Info("pdf extracted",
		zap.Int("pages", out.Pages),
		zap.Int("blank_pages", out.BlankPages),
		zap.Int("chars", len(out.Text)),
	)
	return out, nil
}

func (e *PDFExtractor) readPages(src pageSource) domain.Extraction {
	var sb strings.Builder
	n := src.NumPage()
	blank := 0
	for i := 1; i <= n; i++ {
		txt, err := src.PageText(i)
		if err != nil {
			e.log.Debug("page text failed", zap.Int("page", i), zap.Error(err))
			txt = ""
		}
		if strings.TrimSpace(txt) == "" {
			blank++
		}
		sb.WriteString(txt)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		text = ""
	}
	return domain.Extraction{Text: text, Pages: n, BlankPages: blank}
}
