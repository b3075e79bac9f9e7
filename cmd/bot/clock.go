package main

import (
	"context"
	"time"
)

// Clock is the single time source of a session controller.
type Clock interface {
	Now() time.Time

	// Every calls fn with the tick time every d until stop is called.
	// stop does not wait for an in-flight fn to return.
	Every(d time.Duration, fn func(now time.Time)) (stop func())
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Every(d time.Duration, fn func(time.Time)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn(now)
			}
		}
	}()
	return cancel
}
