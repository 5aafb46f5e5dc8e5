// Package xpath 提供日志文件路径解析与归档命名工具。
//
// 本包是 logkit 的叶子包，不依赖其他 logkit 包。提供三类能力：
//
//   - 文件名净化：SanitizeFileName 校验配置中的文件名模式
//     （拒绝空值、空字节、路径分隔符、".." 等）
//   - 路径解析：ResolveLive 根据目录、日期子目录开关和文件名模式
//     计算当前活跃日志文件的完整路径；EnsureParentDir 确保父目录存在
//   - 归档命名：ArchivePath/UniqueArchivePath 生成轮转备份文件名
//     （<name>_<yyyyMMdd_HHmmss><ext>），ListArchives 枚举已有备份
//
// # 路径安全
//
// SanitizeFileName 只接受纯文件名（单一路径段）。目录部分由调用方
// 通过配置显式给出，不做目录隔离（SafeJoin 语义），因为日志目录
// 来自可信配置而非用户输入。
//
// # 空字节防护
//
// 所有入口函数拒绝包含空字节（\x00）的输入。Linux 内核在 VFS 层会在
// 空字节处截断路径，导致 Go 代码与操作系统实际操作的路径不一致。
package xpath
