// Package actor 提供进程内的轻量级 Actor 运行时
//
// 每个 Actor 是独立的计算单元：
// • 拥有私有状态（无需锁保护）
// • 通过邮箱（mailbox）接收消息，同一发送者的消息按发送顺序处理
// • 消息处理串行化，同一时刻最多一个 goroutine 执行某个 Actor 的 Receive
// • 空闲的 Actor 不占用 goroutine，百万级 Actor 只消耗内存
//
// # 核心组件
//
// [System] 是 Actor 系统的入口，管理所有 Actor 的生命周期：
//
//	sys := actor.NewSystem("my-system")
//	defer sys.Shutdown()
//
// [Actor] 接口定义消息处理行为，[ActorFunc] 和 [FromState] 提供函数式快捷方式。
//
// [PID] 是 Actor 的句柄，可以任意复制和共享。[PID.Tell] 异步发送消息（fire-and-forget），
// [PID.Ask] 发送请求并等待回复，[PID.TrySend] 永不阻塞。
//
// # 邮箱
//
// 默认邮箱无界。[Bounded] 创建有界邮箱，满时按 [OverflowPolicy] 阻塞发送者
// 或返回 [ErrMailboxFull]。阻塞的发送者在 ctx 结束、SendTimeout 到期或目标终止时返回。
//
// # 调度
//
// [DispatcherDefault] 每次激活启动一个 goroutine，由 Go 运行时做工作窃取；
// [DispatcherShared] 使用固定数量的 worker。两种调度器都在处理 Throughput 条消息后
// 让出执行权，避免单个繁忙 Actor 饿死其他 Actor。
//
// # 失败
//
// Receive 返回错误或 panic 只终止该 Actor：正在等待它回复的 Ask 收到 [*HandlerFailure]，
// 排队的 Ask 和之后的发送收到 [ErrActorTerminated]。系统中其他 Actor 不受影响。
//
// # 系统消息
//
// [Started] 在任何用户消息之前送达，[Stopped] 是终止前的最后一条消息。
// [PoisonPill] 在处理完排在它之前的消息后停止 Actor。
package actor
