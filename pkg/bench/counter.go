// Package bench 提供 Actor 运行时的吞吐量压测场景
//
// 每个场景在新建的 System 上创建一组计数器 Actor，按轮询方式发送 Inc 消息，
// 最后对每个 Actor 做一次 Ask 作为屏障（同一发送者的消息按顺序处理），并校验计数总和。
package bench

import (
	"github.com/lwmacct/251219-go-pkg-actor/pkg/actor"
)

// Inc 计数增量，处理后回复 *Count
type Inc struct {
	Amount int64
}

// Kind 实现 actor.Message 接口
func (m *Inc) Kind() string { return "bench.inc" }

// Get 查询计数，回复 *Count
type Get struct{}

// Kind 实现 actor.Message 接口
func (m *Get) Kind() string { return "bench.get" }

// Count 计数器当前值
type Count struct {
	Value int64
}

// Kind 实现 actor.Message 接口
func (m *Count) Kind() string { return "bench.count" }

// Counter 计数器 Actor
type Counter struct {
	count int64
}

// Receive 实现 actor.Actor 接口
func (c *Counter) Receive(ctx *actor.Context, msg actor.Message) error {
	switch m := msg.(type) {
	case *Inc:
		c.count += m.Amount
		ctx.Reply(&Count{Value: c.count})
	case *Get:
		ctx.Reply(&Count{Value: c.count})
	}
	return nil
}
