package extract

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// extractHTML 剥离 HTML 标记，只保留可见文本。
func extractHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open html %s: %w", path, err)
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return "", fmt.Errorf("parse html %s: %w", path, err)
	}

	var sb strings.Builder
	collectText(root, &sb)
	return sb.String(), nil
}

// collectText 深度优先收集文本节点，跳过不可见元素
func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "head":
			return
		}
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
