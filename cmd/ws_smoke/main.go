package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"oink_ledger/internal/logger"
	"oink_ledger/internal/service"

	"github.com/gorilla/websocket"
)

// ws_smoke subscribes to a balance stream, adjusts the balance over HTTP and
// waits for the pushed event.
func main() {
	fid := flag.String("fid", "3001", "account fid")
	delta := flag.Int64("delta", 1, "balance change to apply")
	flag.Parse()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	var token string
	if tokens := service.NewIdentityTokens(os.Getenv("JWT_SECRET")); tokens != nil {
		var err error
		if token, err = tokens.Issue(*fid, time.Hour); err != nil {
			logger.Fatal("gen token", "error", err)
		}
	}

	q := url.Values{"fid": {*fid}}
	if token != "" {
		q.Set("token", token)
	}
	wsURL := url.URL{Scheme: "ws", Host: base, Path: "/ws/balance", RawQuery: q.Encode()}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, snapshot, err := conn.ReadMessage()
	if err != nil {
		logger.Fatal("read snapshot", "error", err)
	}
	fmt.Printf("snapshot: %s\n", snapshot)

	body, _ := json.Marshal(map[string]any{"fid": *fid, "balanceChange": *delta, "reason": "smoke"})
	req, _ := http.NewRequest(http.MethodPost, "http://"+base+"/api/v1/balance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Fatal("adjust balance", "error", err)
	}
	res.Body.Close()
	fmt.Printf("POST /balance -> %d\n", res.StatusCode)

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, event, err := conn.ReadMessage()
	if err != nil {
		logger.Fatal("no balance event received", "error", err)
	}
	fmt.Printf("event: %s\n", event)
	fmt.Println("smoke test finished")
}
