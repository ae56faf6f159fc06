// ragstore 命令行入口。
//
// 使用方法:
//
//	ragstore ingest ./docs -c mykb            # 摄取目录
//	ragstore add "some text" --source note    # 摄取单段文本
//	ragstore search "关键问题" -k 5 --mode hybrid
//	ragstore search "关键问题" --rerank
//	ragstore kb list                          # 列出集合
//	ragstore kb stats -c mykb                 # 集合统计
//	ragstore kb clear -c mykb                 # 清空集合
//	ragstore kb delete mykb                   # 删除集合
package main
