// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xpath: 日志路径工具，文件名校验、活跃路径解析、归档命名与枚举
//
// 设计原则：
//   - 提供常用的文件和路径操作封装
//   - 安全处理路径遍历与非法文件名
//   - 跨平台兼容
package util
