package xfilelog

import "sync/atomic"

// queue 是无锁的多生产者 FIFO 队列（侵入式链表）。
//
// 生产侧 push 只做一次原子交换和一次原子存储，永不阻塞、无容量上限。
// 消费侧 pop 通过 head 的 CAS 竞争取走节点：正常运行时只有批处理
// 循环一个消费者；Close 超时放弃等待循环退出、直接排空时，循环可能
// 仍在消费，此时两个消费者并存——CAS 保证每行仍只被取走恰好一次。
//
// push 的 tail 交换与 next 链接之间存在极短的窗口：此时节点已计入
// tail 但尚不可达，pop 会暂时返回 false。消费者通过 empty（比较
// head 与 tail）判断是否还有在途节点：tail 的交换先于链接发生，
// 因此 empty 为 true 时不存在任何已接受但未消费的行。
type queue struct {
	head atomic.Pointer[qnode] // 指向哨兵/已消费节点
	tail atomic.Pointer[qnode]
	size atomic.Int64
}

type qnode struct {
	next atomic.Pointer[qnode]
	line string
}

func newQueue() *queue {
	stub := &qnode{}
	q := &queue{}
	q.head.Store(stub)
	q.tail.Store(stub)
	return q
}

// push 追加一行。并发安全，永不阻塞。
func (q *queue) push(line string) {
	n := &qnode{line: line}
	prev := q.tail.Swap(n)
	prev.next.Store(n)
	q.size.Add(1)
}

// pop 取出队首行。并发安全：head 的 CAS 胜者独占该节点。
// 队列为空（或队首节点尚未完成链接）时返回 false。
func (q *queue) pop() (string, bool) {
	for {
		head := q.head.Load()
		next := head.next.Load()
		if next == nil {
			return "", false
		}
		if q.head.CompareAndSwap(head, next) {
			line := next.line
			next.line = "" // 释放字符串引用，已消费节点成为新哨兵
			q.size.Add(-1)
			return line, true
		}
	}
}

// empty 判断队列是否真正为空。
// pop 返回 false 而 empty 为 false 时，存在已 push 但尚未完成
// 链接的在途节点，消费者应让出调度后重试。
func (q *queue) empty() bool {
	return q.tail.Load() == q.head.Load()
}

// Len 返回队列中已完成链接的行数快照（监控用途）。
func (q *queue) Len() int64 {
	return q.size.Load()
}
