// Package sink 提供日志落地相关的子包。
//
// 子包列表：
//   - xshared: 进程级共享文件句柄仓库，同一路径单句柄、批次写互斥
//   - xfilelog: 带无锁队列与后台批处理的文件日志写入器，支持轮转与保留清理
//
// 设计原则：
//   - 同一文件的所有写入方共享一个句柄，批次写不交错
//   - Enqueue 永不阻塞调用方，Close 保证已接受的行落盘
//   - 内部错误通过回调上报，不自产日志
package sink
