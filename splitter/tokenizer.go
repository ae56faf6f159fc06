package splitter

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenLength 返回基于 tiktoken 编码的长度度量函数，
// 用于以 token 数而非字符数约束块大小。
func TokenLength(encoding string) (LengthFunc, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("splitter: load encoding %q: %w", encoding, err)
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}
