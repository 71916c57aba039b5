// Package extract 把上传的简历文件转换为纯文本：优先使用 Tika，失败或未配置时使用本地解析。
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"resume-chat-go/pkg/log"
	"resume-chat-go/pkg/tika"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupported 表示本地无法解析该类型。
var ErrUnsupported = errors.New("unsupported document type")

// Extractor 将文档内容转换为纯文本。
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, fileName, contentType string) (string, error)
}

type extractor struct {
	tika *tika.Client
}

// NewExtractor 创建提取器。tikaClient 可以为 nil。
func NewExtractor(tikaClient *tika.Client) Extractor {
	return &extractor{tika: tikaClient}
}

func (e *extractor) Extract(ctx context.Context, r io.Reader, fileName, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("读取文档失败: %w", err)
	}
	if contentType == "" {
		contentType = tika.DetectMimeType(fileName)
	}

	if e.tika != nil {
		text, err := e.tika.ExtractText(ctx, bytes.NewReader(data), fileName, contentType)
		if err == nil && strings.TrimSpace(text) != "" {
			return normalizeText(text), nil
		}
		log.Warnw("Tika 提取失败，使用本地解析", "file", fileName, "error", err)
	}

	var text string
	switch contentType {
	case mimePDF:
		text, err = parsePDF(data)
	case mimeDOCX:
		text, err = parseDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}
	if err != nil {
		return "", err
	}
	return normalizeText(text), nil
}

func parsePDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// 跳过有问题的页，不整体失败
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("no text extracted from PDF")
	}
	return sb.String(), nil
}

// parseDOCX 读取 word/document.xml，段落之间换行。
func parseDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", fmt.Errorf("docx has no word/document.xml")
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("no text extracted from DOCX")
	}
	return sb.String(), nil
}

var blankLines = regexp.MustCompile(`\n{3,}`)

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\u0000", "")
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}
