package xfilelog

import (
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultBatchSize 后台循环单次批处理的行数上限。
	DefaultBatchSize = 100

	// DefaultIdleSleep 队列为空时消费循环的休眠间隔。
	DefaultIdleSleep = 10 * time.Millisecond

	// DefaultLockTimeout 单个批次等待文件写锁的超时时间。
	DefaultLockTimeout = 30 * time.Second

	// DefaultCloseTimeout Close 等待后台循环退出的超时时间。
	DefaultCloseTimeout = 30 * time.Second

	// DefaultRetryDelay 启用重试时首次重试的基准退避间隔。
	DefaultRetryDelay = 100 * time.Millisecond

	maxBatchSize = 1 << 20 // 1048576
)

// Option 定义 Writer 可选配置。
type Option func(*options)

type options struct {
	batchSize    int
	idleSleep    time.Duration
	lockTimeout  time.Duration
	closeTimeout time.Duration

	retryAttempts int
	retryDelay    time.Duration

	onError       func(error)
	meterProvider metric.MeterProvider
}

func defaultOptions() *options {
	return &options{
		batchSize:    DefaultBatchSize,
		idleSleep:    DefaultIdleSleep,
		lockTimeout:  DefaultLockTimeout,
		closeTimeout: DefaultCloseTimeout,
		retryDelay:   DefaultRetryDelay,
		onError:      stderrReporter,
	}
}

// stderrReporter 是默认的内部错误上报通道。
//
// 设计决策: 不使用日志库上报内部错误，避免写入器作为日志落地端时
// 产生递归写入（写失败 → 打日志 → 再写失败）。
func stderrReporter(err error) {
	fmt.Fprintf(os.Stderr, "xfilelog: %v\n", err)
}

// WithBatchSize 设置单次批处理的行数上限。
// n 必须在 [1, 1048576] 范围内，否则 New 返回错误。默认 100。
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithIdleSleep 设置队列为空时消费循环的休眠间隔。
// 更短的间隔降低延迟、增加空转唤醒。默认 10ms。
func WithIdleSleep(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleSleep = d
		}
	}
}

// WithLockTimeout 设置单个批次等待文件写锁的超时。默认 30s。
// 超时的批次被丢弃并通过错误回调上报，循环继续。
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithCloseTimeout 设置 Close 等待后台循环退出的超时。默认 30s。
// 超时后 Close 仍会同步排空队列，保证不丢行。
func WithCloseTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.closeTimeout = d
		}
	}
}

// WithRetry 对失败的批次写入启用有界重试。
//
// attempts 为总尝试次数（含首次），delay 为首次重试的基准退避间隔
// （指数增长）。默认不重试：失败批次直接丢弃并上报，偏向活性。
// 句柄被轮转回收（ErrHandleClosed）不计入重试，由写入路径重新解析。
func WithRetry(attempts int, delay time.Duration) Option {
	// 在闭包外归一化，避免闭包写捕获变量导致并发复用时的数据竞争
	if attempts < 0 {
		attempts = 0
	}
	return func(o *options) {
		o.retryAttempts = attempts
		if delay > 0 {
			o.retryDelay = delay
		}
	}
}

// WithOnError 设置内部错误回调。
//
// 回调收到的错误包括：写入失败、等锁超时、轮转/清理失败、配置路径
// 不可用等。默认输出到 os.Stderr。
//
// 安全约束：回调不得向同一 Writer（或同一落地文件）写入，否则会
// 递归触发；回调中的 panic 会被隔离。
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.onError = fn
		}
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider。
// 未设置时不产生任何指标（零开销路径）。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) {
		if provider != nil {
			o.meterProvider = provider
		}
	}
}

func (o *options) validate() error {
	if o.batchSize < 1 || o.batchSize > maxBatchSize {
		return fmt.Errorf("%w: batch size must be 1~%d, got %d",
			ErrInvalidOption, maxBatchSize, o.batchSize)
	}
	return nil
}
