package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedFormat means the payload is neither DOCX nor PDF.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrMalformedDocument means the payload claims a supported format but cannot be parsed.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrEmptyDocument means the document parsed but holds no text.
	ErrEmptyDocument = errors.New("document has no text")
)

// ExtractTextFromBytes extracts text from an in-memory payload.
// DOCX paragraphs are joined with "\n" in document order, empty paragraphs included.
// Libraries used: github.com/nguyenthenguyen/docx (DOCX) and github.com/ledongthuc/pdf (PDF).
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrMalformedDocument)
	}

	var (
		text string
		err  error
	)
	normalized := normalizeMimeType(mimeType, fileName, data)
	switch normalized {
	case MimeDOCX:
		text, err = extractDOCX(data)
	case MimePDF:
		text, err = extractPDF(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, normalized)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func extractDOCX(data []byte) (string, error) {
	paras, err := paragraphs(data)
	if err != nil {
		return "", err
	}
	return strings.Join(paras, "\n"), nil
}

// paragraphs returns the body paragraphs of a DOCX payload in document order.
func paragraphs(data []byte) ([]string, error) {
	content, err := documentXML(data)
	if err != nil {
		return nil, err
	}
	return bodyParagraphs(content)
}

func documentXML(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	if strings.TrimSpace(content) == "" {
		return "", errors.New("document.xml is empty")
	}
	return content, nil
}

// bodyParagraphs returns the text of each w:p that is a direct child of w:body.
// Tables, text boxes and content controls are skipped.
func bodyParagraphs(raw string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var (
		stack   []string
		paras   []string
		current strings.Builder
		inPara  bool
		paraAt  int
		inText  bool
		skipAt  int
		sawBody bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, local)
			depth := len(stack)
			if local == "body" {
				sawBody = true
			}
			if !inPara {
				if local == "p" && parent == "body" {
					inPara = true
					paraAt = depth
					current.Reset()
				}
				continue
			}
			if skipAt > 0 {
				continue
			}
			switch local {
			case "txbxContent", "Fallback":
				skipAt = depth
			case "t":
				inText = true
			case "tab":
				current.WriteString("\t")
			case "br":
				if attrValue(t.Attr, "type") != "page" {
					current.WriteString("\n")
				}
			case "cr":
				current.WriteString("\n")
			}
		case xml.EndElement:
			depth := len(stack)
			if depth == 0 {
				return nil, errors.New("unbalanced document.xml")
			}
			if skipAt == depth {
				skipAt = 0
			}
			if inPara {
				switch {
				case depth == paraAt:
					paras = append(paras, current.String())
					inPara = false
				case t.Name.Local == "t":
					inText = false
				}
			}
			stack = stack[:depth-1]
		case xml.CharData:
			if inPara && inText && skipAt == 0 {
				current.Write(t)
			}
		}
	}
	if !sawBody {
		return nil, errors.New("document.xml has no body")
	}
	return paras, nil
}

func attrValue(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case MimeDOCX, MimePDF:
		return clean
	case "", "application/zip", "application/octet-stream", "application/x-zip-compressed":
	default:
		return clean
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MimePDF
	}
	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return MimeDOCX
	case ".pdf":
		return MimePDF
	}
	if clean == "" {
		return "application/octet-stream"
	}
	return clean
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		switch name {
		case "word/document.xml":
			return MimeDOCX
		case "xl/workbook.xml":
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		case "ppt/presentation.xml":
			return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
		}
	}
	return ""
}
