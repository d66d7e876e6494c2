package ocr

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// TextSource returns the embedded text of each page, if any.
type TextSource interface {
	PageTexts(pdfPath string) ([]string, error)
}

// PDFTextLayer reads the text layer with a pure Go parser.
type PDFTextLayer struct{}

func (PDFTextLayer) PageTexts(pdfPath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text layer crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, txt)
	}
	return pages, nil
}
