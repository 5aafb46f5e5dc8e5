// Package xshared 提供进程级共享的日志文件句柄仓库。
//
// 多个写入方（可能分属不同的上层组件）向同一路径写日志时，必须共用
// 同一个打开的文件句柄并串行化写入，否则会产生交错损坏的日志行。
// 本包保证两条核心不变量：
//
//   - 任一路径在进程内至多存在一个打开的文件流（Registry 负责）
//   - 同一句柄上的两个写批次永不重叠（Handle 的排他锁负责）
//
// # 组成
//
//   - [Registry]: 规范化路径 → [Handle] 的分片映射，按需懒创建，
//     分片锁保证同一新路径的并发首次打开只有一个胜者
//   - [Handle]: 一个打开的可追加文件流 + 一把排他写锁
//     （size=1 channel 互斥量，支持 context 超时/取消）
//
// # 锁语义
//
// Handle 的写锁只保证互斥，不保证严格公平：并发批次按 Go runtime 的
// channel 调度顺序获得锁。等待支持 context 取消，调用方应始终传入
// 带 deadline 的 context 以避免退化路径上的无限阻塞。
//
// # 进程边界
//
// 本包只提供进程内多实例安全。跨进程写同一文件不在保证范围内：
// 历史上基于文件锁的跨进程互斥方案因性能问题被放弃，多进程场景
// 应由部署层保证每个文件只有一个写入进程。
package xshared
