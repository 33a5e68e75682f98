package sms

import "context"

// Dispatcher отправляет одноразовый код на телефон.
// Ошибка отправки не должна оставлять никакого состояния у вызывающего.
type Dispatcher interface {
	Send(ctx context.Context, to, body string) error
}
