package splitter

import (
	"strings"
	"unicode/utf8"
)

// LengthFunc 度量文本长度；默认按 rune 计数
type LengthFunc func(string) int

// RuneLength 按 Unicode 字符计数
func RuneLength(s string) int { return utf8.RuneCountInString(s) }

// defaultSeparators 分隔符优先级：段落 > 行 > 中文句读 > 字符级兜底
var defaultSeparators = []string{"\n\n", "\n", "。", "！", "？", "；", "，", ""}

// RecursiveCharacterSplitter 递归字符分割器。
// 依优先级选择文本中出现的最高级分隔符切分，超限片段递归降级，
// 相邻片段合并至 chunkSize 以内并保留 chunkOverlap 的重叠。
type RecursiveCharacterSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	lengthFn     LengthFunc
}

// NewRecursiveCharacterSplitter 创建递归字符分割器
func NewRecursiveCharacterSplitter(chunkSize, chunkOverlap int, opts ...RecursiveOption) *RecursiveCharacterSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	s := &RecursiveCharacterSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
		lengthFn:     RuneLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecursiveOption 配置递归分割器的可选参数
type RecursiveOption func(*RecursiveCharacterSplitter)

// WithSeparators 替换默认分隔符优先级
func WithSeparators(seps []string) RecursiveOption {
	return func(s *RecursiveCharacterSplitter) { s.separators = seps }
}

// WithLengthFunc 替换长度度量函数（如 token 计数）
func WithLengthFunc(fn LengthFunc) RecursiveOption {
	return func(s *RecursiveCharacterSplitter) { s.lengthFn = fn }
}

// SplitText 将文本切分为不超过 chunkSize 的块序列。
// 空白输入返回空序列；非空输入的全部非空白内容都会出现在输出中。
func (s *RecursiveCharacterSplitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

// split 递归切分：选出当前文本中出现的最高优先级分隔符，
// 超限片段用剩余分隔符继续降级
func (s *RecursiveCharacterSplitter) split(text string, separators []string) []string {
	separator := ""
	var next []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	pieces := splitKeepSeparator(text, separator)

	var chunks []string
	var good []string // 待合并的合规片段
	for _, piece := range pieces {
		if s.lengthFn(piece) <= s.chunkSize {
			good = append(good, piece)
			continue
		}
		// 片段超限：先落盘已累积片段，再降级处理
		if len(good) > 0 {
			chunks = append(chunks, s.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			chunks = append(chunks, s.splitRunes(piece)...)
		} else {
			chunks = append(chunks, s.split(piece, next)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, s.merge(good)...)
	}
	return chunks
}

// merge 将合规片段贪心合并到 chunkSize 上限，块间保留 chunkOverlap 的重叠
func (s *RecursiveCharacterSplitter) merge(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	for _, piece := range pieces {
		plen := s.lengthFn(piece)
		if total+plen > s.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// 从头部弹出直到满足重叠窗口
			for total > s.chunkOverlap || (total+plen > s.chunkSize && total > 0) {
				total -= s.lengthFn(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += plen
	}

	if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitRunes 字符级兜底切分，带重叠窗口
func (s *RecursiveCharacterSplitter) splitRunes(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.chunkOverlap
	if step <= 0 {
		step = s.chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// splitKeepSeparator 按分隔符切分并把分隔符保留在前一片段末尾；
// separator 为空时按字符切分
func splitKeepSeparator(text, separator string) []string {
	if separator == "" {
		runes := []rune(text)
		pieces := make([]string, len(runes))
		for i, r := range runes {
			pieces[i] = string(r)
		}
		return pieces
	}

	parts := strings.Split(text, separator)
	pieces := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += separator
		}
		if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}
