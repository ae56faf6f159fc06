// Package rerank 提供基于远端打分服务的检索结果重排。
//
// 协议为 {model, query, documents, top_n} → {results:[{index,
// relevance_score}]}。重排永远不会让检索路径失败：功能未启用时
// 原样截断返回，远端调用失败时回退到原始顺序，结果不足时按原始
// 顺序以 0 分补齐。
package rerank
