// Package retry holds the retry strategies shared by database and queue
// writes.
package retry

import (
	"time"

	wbfretry "github.com/wb-go/wbf/retry"
)

// DefaultStrategy is used for record write-back.
var DefaultStrategy = wbfretry.Strategy{
	Attempts: 3,
	Delay:    time.Second,
	Backoff:  2,
}

// QueueStrategy is used when publishing and fetching queue messages.
var QueueStrategy = wbfretry.Strategy{
	Attempts: 3,
	Delay:    2 * time.Second,
	Backoff:  2,
}
