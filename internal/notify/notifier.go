package notify

import (
	"context"

	"github.com/dealer-transfers-api/internal/domain"
)

// Notifier is the hook event producers call: it shapes what they know into a
// context and hands it to the Dispatcher.
type Notifier struct {
	builder    *ContextBuilder
	dispatcher *Dispatcher
}

func NewNotifier(builder *ContextBuilder, dispatcher *Dispatcher) *Notifier {
	return &Notifier{builder: builder, dispatcher: dispatcher}
}

// Notify is a no-op on a nil Notifier.
func (n *Notifier) Notify(ctx context.Context, event domain.NotificationEvent, in EventData) []DispatchResult {
	if n == nil {
		return nil
	}
	return n.dispatcher.Dispatch(ctx, event, n.builder.Build(in))
}
