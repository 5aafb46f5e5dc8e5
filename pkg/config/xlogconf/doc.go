// Package xlogconf 提供文件日志写入器的配置结构与加载。
//
// 配置通过 koanf 从 YAML 或 JSON 加载（格式按扩展名自动检测），
// 未出现的字段保留 [Default] 的默认值。[WriterConfig.Validate] 在
// 构造写入器前执行完整校验。
//
// # 示例配置（YAML）
//
//	directory: ./logs
//	file_name: app.log
//	use_date_folders: true
//	date_folder_layout: "2006-01-02"
//	max_file_size_bytes: 10485760
//	max_file_count: 7
//	append_to_existing: true
//
// # 变更监视
//
// [Watch] 基于 fsnotify 监视配置文件变更并回调宿主。写入器实例的
// 配置在其生命周期内不可变：收到变更通知后应构造新的写入器替换
// 旧实例，而不是原地修改。
package xlogconf
