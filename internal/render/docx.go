package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

type runStyle struct {
	bold  bool
	size  int // half-points
	align string
}

var (
	styleHeading = runStyle{bold: true, size: 24, align: "center"}
	styleTitle   = runStyle{bold: true, size: 28, align: "center"}
	styleCourt   = runStyle{bold: true, size: 24, align: "left"}
	styleBody    = runStyle{size: 24, align: "both"}
	styleSign    = runStyle{size: 24, align: "left"}
)

// DOCX writes draft as a WordprocessingML package with direct formatting, so
// no styles part is needed.
func DOCX(w io.Writer, draft *models.FilingDraft) error {
	var body bytes.Buffer
	para := func(text string, st runStyle) {
		writeParagraph(&body, text, st)
	}

	if draft.Court != "" {
		para(draft.Court, styleCourt)
		para("", styleBody)
	}
	if draft.Title != "" {
		para(draft.Title, styleTitle)
		para("", styleBody)
	}
	for _, p := range splitParagraphs(draft.Intro) {
		para(p, styleBody)
	}
	for _, s := range draft.Sections {
		para(strings.ToUpper(s.Heading), styleHeading)
		for _, text := range s.Paragraphs {
			for _, p := range splitParagraphs(text) {
				para(p, styleBody)
			}
		}
	}
	for _, p := range splitParagraphs(draft.Closing) {
		para(p, styleBody)
	}
	if draft.Signature != "" {
		para("", styleBody)
		para(draft.Signature, styleSign)
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{"word/document.xml", documentXML(body.Bytes())},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
		if _, err := f.Write(p.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish DOCX: %w", err)
	}
	return nil
}

func documentXML(body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	b.Write(body)
	// A4 with 2.5cm margins, in twentieths of a point.
	b.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1417" w:right="1417" w:bottom="1417" w:left="1417" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`)
	b.WriteString(`</w:body></w:document>`)
	return b.Bytes()
}

func writeParagraph(b *bytes.Buffer, text string, st runStyle) {
	b.WriteString(`<w:p><w:pPr><w:spacing w:after="120"/><w:jc w:val="` + st.align + `"/></w:pPr>`)
	if text == "" {
		b.WriteString(`</w:p>`)
		return
	}
	b.WriteString(`<w:r><w:rPr><w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman"/>`)
	if st.bold {
		b.WriteString(`<w:b/>`)
	}
	fmt.Fprintf(b, `<w:sz w:val="%d"/></w:rPr>`, st.size)
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString(`<w:br/>`)
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		_ = xml.EscapeText(b, []byte(line))
		b.WriteString(`</w:t>`)
	}
	b.WriteString(`</w:r></w:p>`)
}
