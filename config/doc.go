// Package config 提供 ragstore 的配置结构与加载能力。
//
// 配置覆盖嵌入模型注册表、重排模型注册表、向量存储目录与文件前缀、
// 默认分块参数和检索参数。加载优先级为 默认值 → YAML 文件 → 环境变量，
// 并在加载时完成校验：未知的嵌入/重排模型名属于配置错误，立即失败。
package config
