package splitter

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// stripSpace 去除所有空白字符，用于内容守恒断言
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// isSubsequence 判断 sub 是否为 s 的子序列
func isSubsequence(sub, s string) bool {
	subRunes := []rune(sub)
	if len(subRunes) == 0 {
		return true
	}
	i := 0
	for _, r := range s {
		if r == subRunes[i] {
			i++
			if i == len(subRunes) {
				return true
			}
		}
	}
	return false
}

func TestSplitTextEmptyInput(t *testing.T) {
	s := NewRecursiveCharacterSplitter(100, 10)
	assert.Nil(t, s.SplitText(""))
	assert.Nil(t, s.SplitText("   \n\t  "))
}

func TestSplitTextShortInputSingleChunk(t *testing.T) {
	s := NewRecursiveCharacterSplitter(100, 10)
	chunks := s.SplitText("short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplitTextRespectsParagraphBoundaries(t *testing.T) {
	s := NewRecursiveCharacterSplitter(20, 0)
	text := "first paragraph\n\nsecond paragraph"
	chunks := s.SplitText(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, "first paragraph", chunks[0])
	assert.Equal(t, "second paragraph", chunks[1])
}

func TestSplitTextChineseSentencePunctuation(t *testing.T) {
	s := NewRecursiveCharacterSplitter(12, 0)
	text := "第一句话在这里。第二句话在这里。第三句话在这里。"
	chunks := s.SplitText(text)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, RuneLength(chunk), 12)
	}
	// 句末标点保留在前一块
	assert.True(t, strings.HasSuffix(chunks[0], "。"), "chunk %q should end with 。", chunks[0])
}

func TestSplitTextCharacterFallback(t *testing.T) {
	s := NewRecursiveCharacterSplitter(10, 0)
	text := strings.Repeat("x", 35) // 无任何分隔符
	chunks := s.SplitText(text)

	require.Len(t, chunks, 4)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, RuneLength(chunk), 10)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitTextOverlap(t *testing.T) {
	s := NewRecursiveCharacterSplitter(10, 4)
	text := "aaaa bbbb cccc dddd"
	chunks := s.SplitText(text)

	require.Greater(t, len(chunks), 1)
	// 相邻块存在共享内容：前块后缀与后块前缀重合
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, longestBoundaryOverlap(chunks[i-1], chunks[i]), 1,
			"chunk %d should overlap with its predecessor: %q | %q", i, chunks[i-1], chunks[i])
	}
}

// longestBoundaryOverlap 返回 prev 后缀与 cur 前缀的最长重合长度
func longestBoundaryOverlap(prev, cur string) int {
	p, c := []rune(prev), []rune(cur)
	max := len(p)
	if len(c) < max {
		max = len(c)
	}
	for k := max; k > 0; k-- {
		if string(p[len(p)-k:]) == string(c[:k]) {
			return k
		}
	}
	return 0
}

func TestSplitTextSizeInvariantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chunkSize := rapid.IntRange(8, 200).Draw(t, "chunkSize")
		overlap := rapid.IntRange(0, chunkSize/2).Draw(t, "overlap")
		text := rapid.StringN(1, 2000, 4000).Draw(t, "text")

		s := NewRecursiveCharacterSplitter(chunkSize, overlap)
		chunks := s.SplitText(text)

		for _, chunk := range chunks {
			if RuneLength(chunk) > chunkSize {
				t.Fatalf("chunk length %d exceeds chunk size %d", RuneLength(chunk), chunkSize)
			}
			if strings.TrimSpace(chunk) == "" {
				t.Fatalf("emitted blank chunk")
			}
		}
	})
}

func TestSplitTextNoContentLossProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chunkSize := rapid.IntRange(8, 100).Draw(t, "chunkSize")
		text := rapid.StringN(1, 500, 1000).Draw(t, "text")

		s := NewRecursiveCharacterSplitter(chunkSize, 0)
		chunks := s.SplitText(text)

		want := stripSpace(text)
		got := stripSpace(strings.Join(chunks, ""))
		if !isSubsequence(want, got) {
			t.Fatalf("non-whitespace content lost: input %q, chunks %q", text, chunks)
		}
	})
}

func TestNewRecursiveCharacterSplitterSanitizesArgs(t *testing.T) {
	s := NewRecursiveCharacterSplitter(0, -5)
	assert.Equal(t, 1000, s.chunkSize)
	assert.Equal(t, 0, s.chunkOverlap)

	s = NewRecursiveCharacterSplitter(100, 100)
	assert.Equal(t, 0, s.chunkOverlap)
}
