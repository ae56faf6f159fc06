package knowledge

import (
	"math"
	"strings"
	"unicode"
)

// BM25 参数，取常用推荐值
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// tokenize 英文按词、CJK 按字切分，统一小写
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, strings.ToLower(word.String()))
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// bm25Scores 对语料库逐文档计算 query 的 BM25 分数。
// 统计量即算即用：语料库在调用方锁内快照，规模为集合的块数。
func bm25Scores(query string, corpus []string) []float64 {
	scores := make([]float64, len(corpus))
	if len(corpus) == 0 {
		return scores
	}

	docTerms := make([]map[string]int, len(corpus))
	docLens := make([]int, len(corpus))
	termDocCount := make(map[string]int)
	totalLen := 0

	for i, text := range corpus {
		terms := tokenize(text)
		docLens[i] = len(terms)
		totalLen += len(terms)

		freq := make(map[string]int, len(terms))
		for _, term := range terms {
			freq[term]++
		}
		docTerms[i] = freq
		for term := range freq {
			termDocCount[term]++
		}
	}

	avgDocLen := float64(totalLen) / float64(len(corpus))
	if avgDocLen == 0 {
		return scores
	}

	n := float64(len(corpus))
	idf := make(map[string]float64, len(termDocCount))
	for term, df := range termDocCount {
		idf[term] = math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1.0)
	}

	queryTerms := tokenize(query)
	for i := range corpus {
		docLen := float64(docLens[i])
		var score float64
		for _, qTerm := range queryTerms {
			tf, ok := docTerms[i][qTerm]
			if !ok {
				continue
			}
			numerator := float64(tf) * (bm25K1 + 1.0)
			denominator := float64(tf) + bm25K1*(1.0-bm25B+bm25B*(docLen/avgDocLen))
			score += idf[qTerm] * (numerator / denominator)
		}
		scores[i] = score
	}
	return scores
}

// minMaxNormalize 将分数归一化到 [0,1]。全部相同且非零时归为 1，
// 全零保持全零。
func minMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}

	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	normalized := make([]float64, len(scores))
	scoreRange := maxScore - minScore
	if scoreRange == 0 {
		if maxScore > 0 {
			for i := range normalized {
				normalized[i] = 1.0
			}
		}
		return normalized
	}
	for i, s := range scores {
		normalized[i] = (s - minScore) / scoreRange
	}
	return normalized
}
