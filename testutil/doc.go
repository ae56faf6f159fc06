// Package testutil 提供 ragstore 测试的共享工具。
//
// 包含上下文辅助（TestContext / CancelledContext）、测试文件写入、
// 轮询断言，以及替代远端嵌入服务的确定性 StubEmbedder。
package testutil
