package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"vendor-invoicing/internal/core/ports"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

type dependencyHealth struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// HealthCheck handles GET /health. Dependencies are pinged in parallel and
// any failure turns the answer into 503 "degraded".
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		var (
			mu   sync.Mutex
			wg   sync.WaitGroup
			deps = make(map[string]dependencyHealth, len(checkers))
		)
		for _, checker := range checkers {
			wg.Add(1)
			go func(hc ports.HealthChecker) {
				defer wg.Done()
				start := time.Now()
				dep := dependencyHealth{Status: "healthy"}
				if err := hc.Ping(ctx); err != nil {
					dep = dependencyHealth{Status: "unhealthy", Error: err.Error()}
				}
				dep.LatencyMS = time.Since(start).Milliseconds()

				mu.Lock()
				deps[hc.Name()] = dep
				mu.Unlock()
			}(checker)
		}
		wg.Wait()

		status, code := "healthy", http.StatusOK
		for _, dep := range deps {
			if dep.Status != "healthy" {
				status, code = "degraded", http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(code, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
