package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/ragstore/knowledge"
)

// fakeManager 记录被调用的检索模式
type fakeManager struct {
	knowledge.Manager
	called string
}

func (f *fakeManager) Search(ctx context.Context, query string, topK int, threshold float64) knowledge.SearchOutput {
	f.called = "vector"
	return knowledge.SearchOutput{Success: true}
}

func (f *fakeManager) SearchBM25(ctx context.Context, query string, topK int, threshold float64) knowledge.SearchOutput {
	f.called = "bm25"
	return knowledge.SearchOutput{Success: true}
}

func (f *fakeManager) SearchHybrid(ctx context.Context, query string, topK int, threshold, vw, kw float64) knowledge.SearchOutput {
	f.called = "hybrid"
	return knowledge.SearchOutput{Success: true}
}

func (f *fakeManager) SearchWithRerank(ctx context.Context, query string, topK int, threshold float64) knowledge.SearchOutput {
	f.called = "rerank"
	return knowledge.SearchOutput{Success: true}
}

func TestRunSearchModeDispatch(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		mode   string
		rerank bool
		want   string
	}{
		{"vector", false, "vector"},
		{"vector", true, "rerank"},
		{"bm25", false, "bm25"},
		{"hybrid", false, "hybrid"},
	}
	for _, tc := range cases {
		m := &fakeManager{}
		_, err := runSearch(ctx, m, "q", tc.mode, 5, 0.3, tc.rerank)
		require.NoError(t, err)
		assert.Equal(t, tc.want, m.called, "mode %s rerank=%v", tc.mode, tc.rerank)
	}
}

func TestRunSearchUnknownMode(t *testing.T) {
	_, err := runSearch(context.Background(), &fakeManager{}, "q", "regex", 5, 0.3, false)
	assert.Error(t, err)
}

func TestRootCmdWiring(t *testing.T) {
	root := NewRootCmd("test")

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "ingest")
	assert.Contains(t, names, "add")
	assert.Contains(t, names, "search")
	assert.Contains(t, names, "kb")
}
