package conversation

import "context"

// ReplyMessenger delivers replies back to the customer through the gateway.
type ReplyMessenger interface {
	SendReply(ctx context.Context, reply OutboundReply) error
	// MarkTyping shows a "composing" indicator; callers ignore its error.
	MarkTyping(ctx context.Context, to string) error
}

// OutboundReply carries the data required to push a message to the user.
type OutboundReply struct {
	JobID string
	To    string
	Body  string
}
