package poll

import (
	"errors"
	"fmt"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// FromClient constructs a hook under the interval policy the client was built
// with: a zero interval takes Config.Poll.DefaultInterval, and any interval
// below Config.Poll.MinInterval is rejected.
//
// FromClient may return an error when input validation, dependency calls, or security checks fail.
// FromClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func FromClient[T any](client *goSession.Client, fetch FetchFunc[T], interval time.Duration) (*Hook[T], error) {
	if client == nil {
		return nil, errors.New("hook requires a client")
	}
	cfg := client.PollConfig()
	if interval == 0 {
		interval = cfg.DefaultInterval
	}
	if interval < cfg.MinInterval {
		return nil, fmt.Errorf("hook interval %v below configured minimum %v", interval, cfg.MinInterval)
	}
	return New(fetch, interval)
}
