package logify

import (
	"errors"
	"sync"
)

var (
	// ErrSinkClosed 关闭后继续写入
	ErrSinkClosed = errors.New("sink is closed")
	// ErrQueueFull 异步队列已满，日志被丢弃
	ErrQueueFull = errors.New("sink buffer full, entry dropped")
)

// resultHandler 接收异步输出每条日志的写入结果，成功时 err 为 nil
type resultHandler func(sink string, err error)

// asyncSink 由在自己协程中报告写入结果的输出实现
type asyncSink interface {
	setResultHandler(h resultHandler)
}

type queueItem struct {
	entry *LogEntry
	done  chan struct{}
}

// asyncQueue 把日志交给单个写入协程，保证同一输出的写入串行
type asyncQueue struct {
	name    string
	write   func(*LogEntry) error
	ch      chan queueItem
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	onWrite resultHandler
}

func newAsyncQueue(name string, bufferSize int, write func(*LogEntry) error) *asyncQueue {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	q := &asyncQueue{
		name:  name,
		write: write,
		ch:    make(chan queueItem, bufferSize),
	}
	q.start()
	return q
}

// start 启动写入协程
func (q *asyncQueue) start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for item := range q.ch {
			if item.entry != nil {
				err := q.write(item.entry)
				if q.onWrite != nil {
					q.onWrite(q.name, err)
				}
			}
			if item.done != nil {
				close(item.done)
			}
		}
	}()
}

// setResultHandler 必须在第一次 Write 之前调用
func (q *asyncQueue) setResultHandler(h resultHandler) {
	q.onWrite = h
}

// Name 实现 Sink 接口
func (q *asyncQueue) Name() string { return q.name }

// Write 非阻塞入队，队列满时丢弃
func (q *asyncQueue) Write(entry *LogEntry) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrSinkClosed
	}
	select {
	case q.ch <- queueItem{entry: entry}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Flush 阻塞直到调用前入队的日志全部写完
func (q *asyncQueue) Flush() {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return
	}
	done := make(chan struct{})
	q.ch <- queueItem{done: done}
	q.mu.RUnlock()
	<-done
}

// shutdown 停止接收日志并等待写入协程写完
// 返回本次调用是否执行了关闭
func (q *asyncQueue) shutdown() bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	q.wg.Wait()
	return true
}
