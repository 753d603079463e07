package safe

import (
	"DriveSync/logger"
)

// Go starts a goroutine that recovers from panic so a crashing cleanup
// path (disconnect handling, best-effort stamps) never takes the gateway
// down with it.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
