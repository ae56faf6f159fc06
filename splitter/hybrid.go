package splitter

import (
	"strings"

	"go.uber.org/zap"
)

// markdownIndicators 判定 Markdown 的固定标记集合
var markdownIndicators = []string{"# ", "## ", "### ", "**", "*", "`", "```", ">", "[", "](", "![", "![]("}

// HybridConfig 混合分割器配置
type HybridConfig struct {
	// 目标块大小
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// 块间重叠
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
	// 最小块大小；小于该值的块会被合并。
	// 配置值大于 ChunkSize 时钳制为 ChunkSize/5。
	MinChunkSize int `yaml:"min_chunk_size" json:"min_chunk_size"`
	// 参与切分的标题层级上限（1-6），默认 3
	HeaderLevels int `yaml:"header_levels" json:"header_levels"`
	// 长度度量函数；为 nil 时按 rune 计数
	LengthFn LengthFunc `yaml:"-" json:"-"`
}

// DefaultHybridConfig 默认混合分割配置
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		ChunkSize:    1000,
		ChunkOverlap: 50,
		MinChunkSize: 200,
		HeaderLevels: 3,
	}
}

// HybridSplitter 混合 Markdown 文本分割器。
// 结构化文本按标题边界切分并两阶段合并过小片段；
// 非结构化文本整体交给递归字符分割器。
type HybridSplitter struct {
	config    HybridConfig
	recursive *RecursiveCharacterSplitter
	lengthFn  LengthFunc
	logger    *zap.Logger
}

// NewHybridSplitter 创建混合分割器
func NewHybridSplitter(config HybridConfig, logger *zap.Logger) *HybridSplitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1000
	}
	if config.MinChunkSize > config.ChunkSize {
		config.MinChunkSize = config.ChunkSize / 5
	}
	if config.HeaderLevels <= 0 || config.HeaderLevels > 6 {
		config.HeaderLevels = 3
	}
	lengthFn := config.LengthFn
	if lengthFn == nil {
		lengthFn = RuneLength
	}

	recursive := NewRecursiveCharacterSplitter(
		config.ChunkSize, config.ChunkOverlap, WithLengthFunc(lengthFn))

	return &HybridSplitter{
		config:    config,
		recursive: recursive,
		lengthFn:  lengthFn,
		logger:    logger,
	}
}

// SplitText 使用混合策略分割文本。
// 空白输入返回空序列；任何非空输入至少产生一个块，内容不会被静默丢弃。
func (s *HybridSplitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// 非 Markdown 文本直接走递归字符分割
	if !s.looksLikeMarkdown(text) {
		return s.recursive.SplitText(text)
	}

	// 连续标题且内容不足：按标题切会产生空段，退化处理
	if s.hasConsecutiveHeadersWithoutContent(text) {
		return s.recursive.SplitText(text)
	}

	sections := s.splitByHeaders(text)
	if len(sections) == 0 {
		return s.recursive.SplitText(text)
	}

	// 逐段处理：过小合并、合规直出、超限递归再切
	var processed []string
	for i := 0; i < len(sections); {
		section := sections[i]
		length := s.lengthFn(section)

		switch {
		case length < s.config.MinChunkSize:
			// 优先向后合并
			if i+1 < len(sections) && length+s.lengthFn(sections[i+1]) <= s.config.ChunkSize {
				processed = append(processed, section+"\n\n"+sections[i+1])
				i += 2
				continue
			}
			// 其次并入前一个已产出块
			if n := len(processed); n > 0 && length+s.lengthFn(processed[n-1]) <= s.config.ChunkSize {
				processed[n-1] += "\n\n" + section
				i++
				continue
			}
			processed = append(processed, section)
			i++

		case length <= s.config.ChunkSize:
			processed = append(processed, section)
			i++

		default:
			processed = append(processed, s.recursive.SplitText(section)...)
			i++
		}
	}

	final := s.mergeSmallChunks(processed)

	s.logger.Debug("混合分割完成",
		zap.Int("sections", len(sections)),
		zap.Int("chunks", len(final)))

	return final
}

// looksLikeMarkdown 统计固定标记集合的出现情况；
// 少于 2 种标记视为普通文本
func (s *HybridSplitter) looksLikeMarkdown(text string) bool {
	lower := strings.ToLower(text)
	count := 0
	for _, indicator := range markdownIndicators {
		if strings.Contains(lower, indicator) {
			count++
			if count >= 2 {
				return true
			}
		}
	}
	return false
}

// hasConsecutiveHeadersWithoutContent 逐行扫描：
// 标题行累计达到 2 个而内容行数仍少于标题数时，整体视为退化文档
func (s *HybridSplitter) hasConsecutiveHeadersWithoutContent(text string) bool {
	headerCount := 0
	contentLines := 0

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			headerCount++
		} else if line != "" {
			contentLines++
		}
		if headerCount >= 2 && contentLines < headerCount {
			return true
		}
	}
	return false
}

// splitByHeaders 按 1..HeaderLevels 级 ATX 标题切段，标题保留在段内。
// 首个标题之前的内容构成独立的前言段。
func (s *HybridSplitter) splitByHeaders(text string) []string {
	lines := strings.Split(text, "\n")

	var sections []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		section := strings.TrimSpace(strings.Join(current, "\n"))
		if section != "" {
			sections = append(sections, section)
		}
		current = nil
	}

	for _, line := range lines {
		if s.isSplitHeader(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return sections
}

// isSplitHeader 判断行是否为参与切分层级的 ATX 标题
func (s *HybridSplitter) isSplitHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	level := 0
	for _, ch := range trimmed {
		if ch == '#' {
			level++
			continue
		}
		break
	}
	if level < 1 || level > s.config.HeaderLevels {
		return false
	}
	rest := trimmed[level:]
	return rest == "" || strings.HasPrefix(rest, " ")
}

// mergeSmallChunks 终扫合并：仍然过小的块优先向后、其次向前并入，
// 末块过小且可并入前块时一并合并
func (s *HybridSplitter) mergeSmallChunks(chunks []string) []string {
	if len(chunks) <= 1 {
		return chunks
	}

	var merged []string
	for i := 0; i < len(chunks); {
		current := chunks[i]
		length := s.lengthFn(current)

		if length < s.config.MinChunkSize {
			if i+1 < len(chunks) && length+s.lengthFn(chunks[i+1]) <= s.config.ChunkSize {
				merged = append(merged, current+"\n\n"+chunks[i+1])
				i += 2
				continue
			}
			if n := len(merged); n > 0 && length+s.lengthFn(merged[n-1]) <= s.config.ChunkSize {
				merged[n-1] += "\n\n" + current
				i++
				continue
			}
		}
		merged = append(merged, current)
		i++
	}

	// 末块兜底
	if n := len(merged); n > 1 && s.lengthFn(merged[n-1]) < s.config.MinChunkSize {
		if s.lengthFn(merged[n-1])+s.lengthFn(merged[n-2]) <= s.config.ChunkSize {
			last := merged[n-1]
			merged = merged[:n-1]
			merged[n-2] += "\n\n" + last
		}
	}

	return merged
}
