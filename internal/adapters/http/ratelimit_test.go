package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIPRateLimiter_Per_IP_Buckets(t *testing.T) {
	req := require.New(t)
	l := newIPRateLimiter(1, 2, time.Minute)

	req.True(l.Allow("10.0.0.1"))
	req.True(l.Allow("10.0.0.1"))
	req.False(l.Allow("10.0.0.1"))
	req.True(l.Allow("10.0.0.2"))
	req.Equal(2, l.Len())
}

func TestIPRateLimiter_Prune_Idle(t *testing.T) {
	req := require.New(t)
	l := newIPRateLimiter(1, 1, time.Minute)
	l.Allow("10.0.0.1")

	req.Equal(0, l.prune(time.Now()))
	req.Equal(1, l.prune(time.Now().Add(2*time.Minute)))
	req.Equal(0, l.Len())
}
