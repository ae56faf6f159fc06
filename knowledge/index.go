package knowledge

import (
	"bufio"
	"container/heap"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// 索引文件头: magic + 版本 + 维度 + 向量数，小端
var indexMagic = [4]byte{'R', 'G', 'S', 'F'}

const indexVersion uint32 = 1

// FlatIndex 精确内积平坦索引。向量在加入前应做 L2 归一化，
// 此时内积即余弦相似度。零值不可用，用 NewFlatIndex 创建。
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex 创建指定维度的空索引
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Dimension 返回索引维度
func (idx *FlatIndex) Dimension() int { return idx.dim }

// NTotal 返回已索引的向量数
func (idx *FlatIndex) NTotal() int { return len(idx.vectors) }

// Add 追加向量，维度不符立即报错
func (idx *FlatIndex) Add(vectors [][]float32) error {
	for i, vec := range vectors {
		if len(vec) != idx.dim {
			return fmt.Errorf("%w: vector %d has dimension %d, index expects %d",
				ErrDimensionMismatch, i, len(vec), idx.dim)
		}
	}
	idx.vectors = append(idx.vectors, vectors...)
	return nil
}

// scoreHeap 保留 top-k 的最小堆
type scoreHeap []scoredIndex

type scoredIndex struct {
	score float32
	index int
}

func (h scoreHeap) Len() int           { return len(h) }
func (h scoreHeap) Less(i, j int) bool { return h[i].score < h[j].score }
func (h scoreHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x any)        { *h = append(*h, x.(scoredIndex)) }
func (h *scoreHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Search 返回与 query 内积最大的 k 个向量，按分数降序。
// k 超过向量总数时按总数截断。
func (idx *FlatIndex) Search(query []float32, k int) ([]float32, []int, error) {
	if len(query) != idx.dim {
		return nil, nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			ErrDimensionMismatch, len(query), idx.dim)
	}
	if k <= 0 || len(idx.vectors) == 0 {
		return []float32{}, []int{}, nil
	}
	if k > len(idx.vectors) {
		k = len(idx.vectors)
	}

	h := make(scoreHeap, 0, k+1)
	for i, vec := range idx.vectors {
		var dot float32
		for j := range vec {
			dot += vec[j] * query[j]
		}
		heap.Push(&h, scoredIndex{score: dot, index: i})
		if len(h) > k {
			heap.Pop(&h)
		}
	}

	scores := make([]float32, len(h))
	indices := make([]int, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		item := heap.Pop(&h).(scoredIndex)
		scores[i] = item.score
		indices[i] = item.index
	}
	return scores, indices, nil
}

// WriteFile 将索引序列化到文件
func (idx *FlatIndex) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(indexMagic[:]); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}
	header := []uint32{indexVersion, uint32(idx.dim), uint32(len(idx.vectors))}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write index header: %w", err)
		}
	}
	for _, vec := range idx.vectors {
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("write index vectors: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush index file: %w", err)
	}
	return f.Sync()
}

// ReadIndexFile 从文件反序列化索引
func ReadIndexFile(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}
	if magic != indexMagic {
		return nil, fmt.Errorf("not an index file: bad magic %q", magic)
	}

	var version, dim, count uint32
	for _, dst := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("read index header: %w", err)
		}
	}
	if version != indexVersion {
		return nil, fmt.Errorf("unsupported index version %d", version)
	}
	if dim == 0 || dim > 1<<16 {
		return nil, fmt.Errorf("implausible index dimension %d", dim)
	}

	// count 来自文件头，分配前对照文件实际大小，
	// 避免被损坏的头部骗进超大分配
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat index file: %w", err)
	}
	const headerSize = 16
	if fits := (info.Size() - headerSize) / (4 * int64(dim)); int64(count) > fits {
		return nil, fmt.Errorf("index header claims %d vectors, file holds at most %d", count, fits)
	}

	idx := NewFlatIndex(int(dim))
	idx.vectors = make([][]float32, count)
	for i := range idx.vectors {
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("read index vector %d: %w", i, err)
		}
		idx.vectors[i] = vec
	}
	return idx, nil
}

// normalizeL2 原地做 L2 归一化，零向量保持不变
func normalizeL2(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
}
