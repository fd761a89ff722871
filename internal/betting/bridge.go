package betting

import (
	"context"

	"github.com/vovakirdan/tui-scratch/internal/relay"
	"github.com/vovakirdan/tui-scratch/internal/schedule"
)

// Attach feeds hub traffic and demo mode changes into c through exec.
// It returns once the subscription is set up; delivery stops when ctx is
// done or the hub closes.
func Attach(ctx context.Context, hub *relay.Hub, exec schedule.Executor, c *Coordinator) error {
	sub, err := hub.Incoming(0)
	if err != nil {
		return err
	}
	hub.OnDemoModeChange(func(demo bool) {
		exec.Post(func() {
			c.syncDemoMode(demo)
			c.publish()
		})
	})

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.C():
				if !ok {
					return
				}
				exec.Post(func() { c.HandleInbound(msg) })
			}
		}
	}()
	return nil
}
