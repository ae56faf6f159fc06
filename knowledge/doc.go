// Package knowledge 实现本地向量知识库：平坦内积索引、词法与混合
// 检索、远端重排与按集合的磁盘持久化。
//
// 一个 Manager 对应一个集合，磁盘布局为
// {base}/{collection}/{index_prefix}{collection}.faiss 加同目录的
// 元数据 JSON。向量、文本与元数据按位置对齐；所有持久化先写临时
// 文件再 rename。空集合上的检索返回成功的空结果。Factory 按集合
// 名构造并缓存 Manager，后端类型字符串留作第二实现的扩展点。
package knowledge
