package xlogconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// koanf 层级分隔符与结构体标签。
const (
	koanfDelim = "."
	koanfTag   = "koanf"
)

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load 从配置文件加载 WriterConfig。
//
// 格式按扩展名检测（.yaml/.yml/.json），未出现的字段保留默认值，
// 加载成功后执行 Validate。
func Load(path string) (WriterConfig, error) {
	if path == "" {
		return WriterConfig{}, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return WriterConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return WriterConfig{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return LoadBytes(data, format)
}

// LoadBytes 从字节数据加载 WriterConfig。
// 需要显式指定格式，适用于内嵌配置或 ConfigMap 场景。
func LoadBytes(data []byte, format Format) (WriterConfig, error) {
	k := koanf.New(koanfDelim)

	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return WriterConfig{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	// 空数据保留纯默认配置（随后仍会因缺少必填字段校验失败）
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return WriterConfig{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: koanfTag}); err != nil {
		return WriterConfig{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	if err := cfg.Validate(); err != nil {
		return WriterConfig{}, err
	}
	return cfg, nil
}
