// Package embedding 提供文本向量化的统一接口与 OpenAI 兼容实现。
//
// Provider 接口屏蔽服务商差异；OpenAIProvider 面向 OpenAI 兼容的
// /embeddings 端点（vLLM、Xinference、text-embeddings-inference 等
// 本地推理服务均兼容该协议）。请求自动分批、限流并对可重试错误
// 做指数退避，返回向量与输入顺序严格一致。
package embedding
