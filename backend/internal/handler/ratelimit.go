package handler

import (
	"sync"

	"golang.org/x/time/rate"
)

// UploadLimiter keeps a token bucket per user.
type UploadLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewUploadLimiter allows perMinute uploads per user on average, with bursts
// of up to burst. A non-positive perMinute disables limiting.
func NewUploadLimiter(perMinute float64, burst int) *UploadLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &UploadLimiter{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

// Allow reports whether userID may upload now, consuming a token if so.
func (l *UploadLimiter) Allow(userID string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
