package signal

import (
	"golang.org/x/time/rate"
)

// newConnLimiter caps inbound messages on one connection. A non-positive
// rps disables limiting.
func newConnLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (c *WsSignalConn) allow() bool {
	return c.limiter.Allow()
}
