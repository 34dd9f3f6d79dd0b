package render

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"resume-optimizer/internal/extract"
)

func TestWriteDocumentParagraphsMatchLines(t *testing.T) {
	text := "Jane Doe\n\nEngineer & <Lead>\n  indented\tline  \n"

	docxBytes, err := WriteDocument(text)
	if err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}

	extracted, err := extract.ExtractTextFromBytes(context.Background(), docxBytes, MimeDOCX, FileName)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	paras := strings.Split(extracted, "\n")
	want := append([]string{Heading}, "Jane Doe", "", "Engineer & <Lead>", "  indented\tline  ", "")
	if len(paras) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d: %q", len(want), len(paras), paras)
	}
	for i := range want {
		if paras[i] != want[i] {
			t.Fatalf("paragraph %d = %q, want %q", i, paras[i], want[i])
		}
	}
}

func TestWriteDocumentRoundTripsThroughExtractor(t *testing.T) {
	text := "1. List of Missing Keywords\r\n- Kubernetes\r\n\r\n2. Rewritten Bullet Points"

	docxBytes, err := WriteDocument(text)
	if err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	got, err := extract.ExtractTextFromBytes(context.Background(), docxBytes, MimeDOCX, FileName)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := Heading + "\n" + strings.ReplaceAll(text, "\r\n", "\n")
	if got != want {
		t.Fatalf("round trip mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestWriteDocumentHeadingUsesTitleStyle(t *testing.T) {
	docxBytes, err := WriteDocument("body")
	if err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	documentXML := readPart(t, docxBytes, "word/document.xml")
	if !strings.Contains(documentXML, `<w:pStyle w:val="Title"/></w:pPr><w:r><w:t xml:space="preserve">Optimized Resume</w:t>`) {
		t.Fatalf("heading not styled as Title:\n%s", documentXML)
	}
	if strings.Contains(documentXML, "<w:b/>") || strings.Contains(documentXML, "<w:i/>") {
		t.Fatalf("unexpected run formatting")
	}
}

func TestWriteDocumentProducesWellFormedPackage(t *testing.T) {
	docxBytes, err := WriteDocument("a\nb")
	if err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/document.xml",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"docProps/core.xml",
	} {
		content := readPart(t, docxBytes, name)
		decoder := xml.NewDecoder(strings.NewReader(content))
		for {
			_, err := decoder.Token()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("%s is not well-formed: %v", name, err)
			}
		}
	}
}

func TestWriteDocumentIsDeterministic(t *testing.T) {
	a, err := WriteDocument("same text")
	if err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	b, err := WriteDocument("same text")
	if err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical output")
	}
}

func TestLines(t *testing.T) {
	got := Lines("a\r\nb\n\nc\r")
	want := []string{"a", "b", "", "c"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("Lines = %q, want %q", got, want)
	}
	if empty := Lines(""); len(empty) != 1 || empty[0] != "" {
		t.Fatalf("expected one empty line, got %q", empty)
	}
}

func readPart(t *testing.T, docxBytes []byte, name string) string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(docxBytes), int64(len(docxBytes)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(content)
	}
	t.Fatalf("part %s not found", name)
	return ""
}
