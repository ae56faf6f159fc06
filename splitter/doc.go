// Package splitter 提供文本分块能力。
//
// RecursiveCharacterSplitter 按分隔符优先级（段落 > 行 > 中文句读 > 字符）
// 递归切分并以重叠窗口合并；HybridSplitter 在其上叠加 Markdown 标题感知：
// 结构化文本按标题边界切段、两阶段合并过小片段，非结构化或退化文本
// 整体回退到递归字符切分。两者都是纯 CPU 运算，确定性执行。
package splitter
