// Package extract 将异构文件格式归一化为统一的 Document 记录。
//
// 支持 .txt/.md（UTF-8，GB18030 回退）、.pdf（逐页）、.docx/.doc（逐段落）
// 和 .html/.htm（仅可见文本）。不支持的扩展名静默跳过；单个文件的处理
// 异常按文件记录日志并跳过，提取批次永远不会因一个坏文件而中止。
package extract
