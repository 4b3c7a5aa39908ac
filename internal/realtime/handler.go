package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"oink_ledger/internal/domain"
	"oink_ledger/internal/logger"
	"oink_ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// SnapshotFunc returns the current balance sent as the first frame.
type SnapshotFunc func(ctx context.Context, fid string) (int64, error)

// HandleWS upgrades GET /ws/balance?fid= and streams that fid's balance
// events. With tokens set the fid comes from the ?token= query instead.
func HandleWS(hub *Hub, tokens *service.IdentityTokens, allowedOrigin string, snapshot SnapshotFunc) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		fid := strings.TrimSpace(c.Query("fid"))
		if tokens != nil {
			tokenFID, err := tokens.Parse(c.Query("token"))
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			if fid != "" && fid != tokenFID {
				c.JSON(http.StatusForbidden, gin.H{"error": "fid does not match token"})
				return
			}
			fid = tokenFID
		}
		if fid == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fid is required"})
			return
		}

		var initial []byte
		if snapshot != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			balance, err := snapshot(ctx, fid)
			cancel()
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "balance unavailable", "retryable": true})
				return
			}
			initial, _ = json.Marshal(Message{
				Type:         "snapshot",
				BalanceEvent: domain.BalanceEvent{FID: fid, Balance: balance, At: time.Now().UTC()},
			})
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(fid, conn, hub)
		go client.Run(initial)
	}
}
