package monitor

import (
	"time"

	"admissions-portal-api/config"

	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

// RegisterMonitorRoutes exposes a small liveness surface for deploy checks.
func RegisterMonitorRoutes(router *gin.Engine) {
	router.GET("/monitor/health", func(c *gin.Context) {
		dbStatus := "ok"
		if sqlDB, err := config.DB.DB(); err != nil || sqlDB.Ping() != nil {
			dbStatus = "unreachable"
		}

		c.JSON(200, gin.H{
			"status":         "ok",
			"database":       dbStatus,
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		})
	})

	router.GET("/monitor", func(c *gin.Context) {
		c.Data(200, "text/html; charset=utf-8", []byte(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>Admissions API Monitor</title>
  <style>
    body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background: #111; color: #e0e0e0; padding: 40px; }
    .card { max-width: 480px; margin: 0 auto; background: #1c1c2b; border-radius: 8px; padding: 24px; }
    h1 { font-size: 1.4rem; margin-bottom: 12px; }
    pre { background: #0d0d16; padding: 12px; border-radius: 6px; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Admissions Portal API</h1>
    <pre id="out">loading...</pre>
  </div>
  <script>
    fetch('/monitor/health').then(r => r.json()).then(d => {
      document.getElementById('out').textContent = JSON.stringify(d, null, 2);
    });
  </script>
</body>
</html>`))
	})
}
