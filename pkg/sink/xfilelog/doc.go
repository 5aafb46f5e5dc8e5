// Package xfilelog 提供并发安全、保证落盘的文件日志写入器。
//
// [Writer] 面向生产方提供非阻塞的 [Writer.Enqueue]；每个实例由一个
// 后台消费 goroutine 批量（默认每批 100 行）落盘，通过
// [xshared.Registry] 共享文件句柄，保证多实例写同一文件时互不交错。
// 按大小自动轮转（<name>_<yyyyMMdd_HHmmss><ext>），并按数量清理
// 最旧的归档。
//
// # 关闭保证
//
// [Writer.Close] 先停止后台循环（限时等待），然后同步排空队列中
// 所有剩余日志行并写盘：凡是在 Close 之前被 Enqueue 接受的行，
// Close 返回时都已落盘（仅限优雅关闭路径；进程被强杀不在保证范围）。
//
// # 错误策略
//
// 本包的任何失败都不会向上传播终止宿主进程：写入失败的批次被丢弃
// （通过 WithOnError 回调上报，默认输出到 stderr），循环继续处理
// 后续批次；轮转/清理失败同样上报后吞掉，不阻塞写入路径。这是
// 有意的取舍——在 I/O 故障下偏向活性而非完整性。需要更强完整性
// 时可用 WithRetry 启用有界退避重试（重试期间不会乱序：下一批次
// 在当前批次放弃或成功前不会被消费）。
//
// 设计决策: 写入器自身绝不通过日志库上报内部错误，避免作为日志
// 落地端时产生递归写入（写失败 → 打日志 → 再写失败）。
//
// # 顺序保证
//
// 单个 Writer 实例内行序与 Enqueue 顺序一致（FIFO 队列 + 单消费者）。
// 多个实例写同一文件时，实例之间的相对顺序不保证，只保证单行完整。
package xfilelog
