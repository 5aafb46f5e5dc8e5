// Package config 提供配置相关的子包。
//
// 子包列表：
//   - xlogconf: 写入器配置的定义、加载（YAML/JSON）、校验与文件监听
package config
