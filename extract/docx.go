package extract

import (
	"fmt"
	"os"
	"strings"

	docx "github.com/fumiama/go-docx"
)

// extractDocx 拼接 Word 文档的段落文本，段落间以换行分隔。
func extractDocx(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open docx %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat docx %s: %w", path, err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("parse docx %s: %w", path, err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			sb.WriteString(p.String())
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}
