package handler

import (
	"context"
	"net/http"
	"time"

	"sinai/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports DB and Redis connectivity plus the depth of the async
// queues, so a stalled recibo/email pipeline shows up on one endpoint.
// Never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		colas := gin.H{}
		if redisStatus == "connected" {
			for _, q := range []string{worker.QueueRecibo, worker.QueueEmail} {
				pendientes, _ := rdb.LLen(ctx, q).Result()
				fallidos, _ := worker.DLQLength(ctx, rdb, q)
				colas[q] = gin.H{"pendientes": pendientes, "fallidos": fallidos}
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
			"colas": colas,
		})
	}
}
