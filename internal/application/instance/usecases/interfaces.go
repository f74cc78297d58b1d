package usecases

import "context"

// QueueSignal wakes the provisioning workers after new entries are enqueued.
type QueueSignal interface {
	Wake(ctx context.Context)
}
