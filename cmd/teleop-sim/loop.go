package main

import (
	"context"
	"time"

	"github.com/standalonetc/teleop/cmd/teleop-sim/interactive"
)

// runLoop ticks the op-mode every period until ctx ends. Console requests
// run between ticks, on this goroutine.
func runLoop(ctx context.Context, s *interactive.Session, period time.Duration, requests <-chan interactive.Request) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil

		case req := <-requests:
			out, err := req.Action(s)
			req.Reply <- interactive.Reply{Output: out, Err: err}

		case now := <-ticker.C:
			if err := s.OpMode.Loop(ctx, s.Master, s.Helper); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			s.Hardware.Step(now.Sub(last))
			last = now
		}
	}
}
