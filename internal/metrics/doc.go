// Package metrics 提供基于 Prometheus 的内部指标收集。
//
// Collector 覆盖文档摄取、嵌入调用、检索、重排与缓存五类指标，
// 通过 promauto 注册到全局 registry。所有记录方法对 nil 接收者
// 安全，未启用指标的组件可以直接持有 nil *Collector。
package metrics
