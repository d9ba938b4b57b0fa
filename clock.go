package logify

import "time"

// Clock 提供当前时间和进程启动时间
type Clock interface {
	Now() time.Time
	StartTime() time.Time
}

type systemClock struct {
	start time.Time
}

// SystemClock 返回基于 time.Now 的时钟，启动时间为调用 SystemClock 的时刻
func SystemClock() Clock {
	return systemClock{start: time.Now()}
}

func (c systemClock) Now() time.Time       { return time.Now() }
func (c systemClock) StartTime() time.Time { return c.start }

// Uptime 返回自启动以来经过的时间
func Uptime(c Clock) time.Duration {
	return c.Now().Sub(c.StartTime())
}
