package extract

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// extractText 读取纯文本/Markdown 文件。
// UTF-8 解码失败时回退到 GB18030（GBK 的超集）。
func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s as GB18030: %w", path, err)
	}
	return string(decoded), nil
}
