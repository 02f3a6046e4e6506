package actor_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lwmacct/251219-go-pkg-actor/pkg/actor"
)

// PingMessage 示例消息类型
type PingMessage struct{}

func (m *PingMessage) Kind() string { return "ping" }

// PongMessage 示例响应消息
type PongMessage struct{}

func (m *PongMessage) Kind() string { return "pong" }

// Inc 计数器增量消息
type Inc struct {
	Amount int64
}

func (m *Inc) Kind() string { return "inc" }

// Count 计数器当前值
type Count struct {
	Value int64
}

func (m *Count) Kind() string { return "count" }

// Example_basic 演示 Actor 系统的基本使用
func Example_basic() {
	// 创建 Actor 系统
	sys := actor.NewSystem("example")
	defer sys.Shutdown()

	done := make(chan struct{})

	// 使用 ActorFunc 快速创建 Actor
	pid, err := sys.Spawn(actor.ActorFunc(func(ctx *actor.Context, msg actor.Message) error {
		switch msg.(type) {
		case *actor.Started:
			fmt.Println("Actor started")
		case *PingMessage:
			fmt.Println("Received Ping")
			close(done)
		}
		return nil
	}), "greeter")
	if err != nil {
		fmt.Println(err)
		return
	}

	_ = pid.Tell(&PingMessage{})
	<-done

	// Output:
	// Actor started
	// Received Ping
}

// Example_fromState 演示带私有状态的计数器
func Example_fromState() {
	sys := actor.NewSystem("counter-example")
	defer sys.Shutdown()

	pid, _ := sys.Spawn(actor.FromState(int64(0), func(ctx *actor.Context, n *int64, msg actor.Message) error {
		if m, ok := msg.(*Inc); ok {
			*n += m.Amount
			ctx.Reply(&Count{Value: *n})
		}
		return nil
	}), "counter")

	_ = pid.Tell(&Inc{Amount: 1})
	_ = pid.Tell(&Inc{Amount: 2})

	c, err := actor.Ask[*Count](context.Background(), pid, &Inc{Amount: 3})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Counter: %d\n", c.Value)

	// Output:
	// Counter: 6
}

// Example_pidRequest 演示带超时的请求响应
func Example_pidRequest() {
	sys := actor.NewSystem("request-example")
	defer sys.Shutdown()

	// 创建能够响应的 Actor
	pid, _ := sys.Spawn(actor.ActorFunc(func(ctx *actor.Context, msg actor.Message) error {
		if _, ok := msg.(*PingMessage); ok {
			ctx.Reply(&PongMessage{})
		}
		return nil
	}), "responder")

	resp, err := pid.Request(&PingMessage{}, time.Second)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Response: %s\n", resp.Kind())

	// Output:
	// Response: pong
}

// Example_boundedMailbox 演示有界邮箱的溢出策略
func Example_boundedMailbox() {
	sys := actor.NewSystem("bounded-example")
	defer sys.ShutdownNow()

	release := make(chan struct{})
	entered := make(chan struct{})
	props := actor.DefaultProps("slow").WithMailbox(actor.MailboxConfig{
		Capacity: 2,
		Overflow: actor.OverflowFail,
	})

	first := true
	pid, _ := sys.SpawnWithProps(actor.ActorFunc(func(ctx *actor.Context, msg actor.Message) error {
		if _, ok := msg.(*PingMessage); ok && first {
			first = false
			close(entered)
			<-release
		}
		return nil
	}), props)

	_ = pid.Tell(&PingMessage{})
	<-entered

	for i := 0; i < 3; i++ {
		err := pid.Tell(&PingMessage{})
		fmt.Printf("send %d: full=%v\n", i, errors.Is(err, actor.ErrMailboxFull))
	}
	close(release)

	// Output:
	// send 0: full=false
	// send 1: full=false
	// send 2: full=true
}

// Example_handlerFailure 演示处理失败只终止出错的 Actor
func Example_handlerFailure() {
	sys := actor.NewSystem("failure-example")
	defer sys.Shutdown()

	pid, _ := sys.Spawn(actor.ActorFunc(func(ctx *actor.Context, msg actor.Message) error {
		if _, ok := msg.(*PingMessage); ok {
			return errors.New("boom")
		}
		return nil
	}), "fragile")

	_, err := pid.Ask(context.Background(), &PingMessage{})
	fmt.Println(actor.IsHandlerFailure(err))

	err = pid.Tell(&PingMessage{})
	fmt.Println(errors.Is(err, actor.ErrActorTerminated))

	// Output:
	// true
	// true
}

// Example_systemBroadcast 演示广播消息
func Example_systemBroadcast() {
	sys := actor.NewSystem("broadcast-example")
	defer sys.Shutdown()

	// 创建多个 Actor
	pids := make([]*actor.PID, 0, 3)
	for i := 1; i <= 3; i++ {
		pid, _ := sys.Spawn(actor.ActorFunc(func(ctx *actor.Context, msg actor.Message) error {
			switch msg.(type) {
			case *PingMessage:
				fmt.Printf("%s received ping\n", ctx.Self.ID)
			case *Inc:
				ctx.Reply(&Count{})
			}
			return nil
		}), fmt.Sprintf("worker-%d", i))
		pids = append(pids, pid)
	}

	// 广播消息给所有 Actor
	sys.Broadcast(&PingMessage{})

	// 每个 Actor 按顺序处理，等待它们处理完广播
	for _, pid := range pids {
		_, _ = pid.Ask(context.Background(), &Inc{})
	}

	// Unordered output:
	// worker-1 received ping
	// worker-2 received ping
	// worker-3 received ping
}

// Example_defaultProps 演示 Props 配置
func Example_defaultProps() {
	props := actor.DefaultProps("my-actor").
		WithMailboxSize(1000).
		WithThroughput(50)

	fmt.Printf("Name: %s, Capacity: %d, Overflow: %s\n", props.Name, props.Mailbox.Capacity, props.Mailbox.Overflow)

	// Output:
	// Name: my-actor, Capacity: 1000, Overflow: block
}

// Example_context 演示 Actor 上下文的使用
func Example_context() {
	sys := actor.NewSystem("context-example")
	defer sys.Shutdown()

	pid, _ := sys.Spawn(actor.ActorFunc(func(ctx *actor.Context, msg actor.Message) error {
		switch msg.(type) {
		case *actor.Started:
			fmt.Printf("Self: %s\n", ctx.Self.ID)
			fmt.Printf("System: %s\n", ctx.System().Name())
		case *actor.Stopped:
			fmt.Println("Stopped")
		}
		return nil
	}), "demo")

	_ = sys.StopGracefully(pid, time.Second)

	// Output:
	// Self: demo
	// System: context-example
	// Stopped
}

// Example_simpleMessage 演示简单消息的使用
func Example_simpleMessage() {
	msg := actor.NewSimpleMessage("greeting", "Hello, World!")

	fmt.Printf("Kind: %s\n", msg.Kind())
	fmt.Printf("Payload: %v\n", msg.Payload)

	// Output:
	// Kind: greeting
	// Payload: Hello, World!
}
