package actor

import (
	"errors"
	"fmt"
)

var (
	// ErrMailboxFull 有界邮箱已满（非阻塞发送或阻塞发送超时）
	ErrMailboxFull = errors.New("actor: mailbox full")
	// ErrActorTerminated 目标 Actor 已终止
	ErrActorTerminated = errors.New("actor: actor terminated")
	// ErrSystemStopped Actor 系统已关闭
	ErrSystemStopped = errors.New("actor: system stopped")
	// ErrNameTaken 名称已被占用
	ErrNameTaken = errors.New("actor: name already taken")
	// ErrNoReply Ask 的处理函数返回时没有回复
	ErrNoReply = errors.New("actor: no reply")
	// ErrNilMessage 不能发送 nil 消息
	ErrNilMessage = errors.New("actor: nil message")
	// ErrReservedName 以 $ 开头的名称保留给自动生成的名称
	ErrReservedName = errors.New("actor: reserved name")
)

// HandlerFailure Actor 处理消息时返回错误或 panic
// 该 Actor 随之终止，只有正在等待它回复的调用方会收到此错误
type HandlerFailure struct {
	Actor string
	Kind  string
	Err   error
	Panic any
}

// Error 实现 error 接口
func (f *HandlerFailure) Error() string {
	if f.Panic != nil {
		return fmt.Sprintf("actor %s panicked handling %s: %v", f.Actor, f.Kind, f.Panic)
	}
	return fmt.Sprintf("actor %s failed handling %s: %v", f.Actor, f.Kind, f.Err)
}

// Unwrap 返回处理函数的原始错误
func (f *HandlerFailure) Unwrap() error {
	return f.Err
}

// IsHandlerFailure 判断错误是否为 HandlerFailure
func IsHandlerFailure(err error) bool {
	var hf *HandlerFailure
	return errors.As(err, &hf)
}
