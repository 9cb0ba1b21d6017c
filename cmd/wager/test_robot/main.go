package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frankieli/players_bet/pkg/logger"
)

// Config holds the robot configuration
type Config struct {
	Host      string
	HostKey   string
	UserCount int
	FirstID   int64
	Balance   int64
	Poll      time.Duration
}

// Robot represents a simulated player
type Robot struct {
	ID        int64
	Side      string
	cfg       Config
	Token     string
	Conn      *websocket.Conn
	Done      chan struct{}
	ctx       context.Context
	writeMu   sync.Mutex
	lastRound string
}

// Frame is what the gateway sends back
type Frame struct {
	Game    string          `json:"game"`
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

func main() {
	host := flag.String("host", "localhost:8090", "Server host address")
	hostKey := flag.String("host-key", os.Getenv("WAGER_HOST_KEY"), "Host key for roster, wallet and identity routes")
	users := flag.Int("users", 20, "Number of concurrent players")
	firstID := flag.Int64("first-id", 1000, "Player ID of the first robot")
	balance := flag.Int64("balance", 800, "Starting balance for each robot")
	poll := flag.Duration("poll", 2*time.Second, "How often robots ask for the round state")
	flag.Parse()

	cfg := Config{
		Host:      *host,
		HostKey:   *hostKey,
		UserCount: *users,
		FirstID:   *firstID,
		Balance:   *balance,
		Poll:      *poll,
	}

	logger.Init(logger.Config{
		Level:  "info",
		Format: "console",
	})

	ctx := context.Background()
	logger.Info(ctx).
		Int("users", cfg.UserCount).
		Str("host", cfg.Host).
		Msg("🤖 Starting Test Robot")

	for i := 0; i < cfg.UserCount; i++ {
		time.Sleep(20 * time.Millisecond)
		side := "t"
		if i%2 == 1 {
			side = "ct"
		}
		go func(id int64, side string) {
			robot := NewRobot(id, side, cfg)
			if err := robot.Run(); err != nil {
				logger.Error(ctx).Int64("player_id", id).Err(err).Msg("Robot failed")
			}
		}(cfg.FirstID+int64(i), side)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	logger.Info(ctx).Msg("🛑 Stopping robots...")
}

func NewRobot(id int64, side string, cfg Config) *Robot {
	return &Robot{
		ID:   id,
		Side: side,
		cfg:  cfg,
		Done: make(chan struct{}),
		ctx:  logger.WithPlayer(context.Background(), id),
	}
}

func (r *Robot) Run() error {
	// 1. Join the match as a connected team member
	if err := r.Join(); err != nil {
		return fmt.Errorf("join failed: %w", err)
	}

	// 2. Open the wallet account
	if err := r.OpenAccount(); err != nil {
		return fmt.Errorf("open account failed: %w", err)
	}

	// 3. Get a token
	if err := r.IssueToken(); err != nil {
		return fmt.Errorf("issue token failed: %w", err)
	}
	logger.Info(r.ctx).Str("side", r.Side).Msg("Robot registered")

	// 4. Connect WebSocket
	if err := r.ConnectWS(); err != nil {
		return fmt.Errorf("websocket connect failed: %w", err)
	}
	defer r.Conn.Close()
	logger.Info(r.ctx).Msg("Robot connected to WebSocket")

	// 5. Listen and Play
	go r.ListenLoop()
	go r.PollLoop()

	<-r.Done
	return nil
}

func (r *Robot) hostRequest(method, path string, body interface{}, out interface{}) error {
	var err error
	for i := 0; i < 3; i++ {
		if i > 0 {
			time.Sleep(time.Second * time.Duration(i))
			logger.Info(r.ctx).Int("retry", i).Str("path", path).Msg("Retrying host request...")
		}

		jsonBody, _ := json.Marshal(body)
		req, reqErr := http.NewRequest(method, fmt.Sprintf("http://%s%s", r.cfg.Host, path), bytes.NewBuffer(jsonBody))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Host-Key", r.cfg.HostKey)

		resp, doErr := http.DefaultClient.Do(req)
		if doErr != nil {
			err = doErr
			continue
		}
		if resp.StatusCode >= 300 {
			err = fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
			resp.Body.Close()
			continue
		}
		if out != nil {
			err = json.NewDecoder(resp.Body).Decode(out)
		}
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("failed after 3 retries: %w", err)
}

// Join starts dead so the robot can bet in the first round
func (r *Robot) Join() error {
	side := "first_team"
	if r.Side == "ct" {
		side = "second_team"
	}
	path := fmt.Sprintf("/api/roster/players/%d", r.ID)
	return r.hostRequest(http.MethodPut, path, map[string]interface{}{
		"side":      side,
		"connected": true,
		"alive":     false,
	}, nil)
}

func (r *Robot) OpenAccount() error {
	path := fmt.Sprintf("/api/wallet/accounts/%d", r.ID)
	return r.hostRequest(http.MethodPost, path, map[string]interface{}{"balance": r.cfg.Balance}, nil)
}

func (r *Robot) IssueToken() error {
	var result tokenResponse
	err := r.hostRequest(http.MethodPost, "/api/identity/tokens", map[string]string{
		"player_id": strconv.FormatInt(r.ID, 10),
	}, &result)
	if err != nil {
		return err
	}
	if result.Token == "" {
		return fmt.Errorf("no token: %s", result.Error)
	}
	r.Token = result.Token
	return nil
}

func (r *Robot) ConnectWS() error {
	u := url.URL{Scheme: "ws", Host: r.cfg.Host, Path: "/ws", RawQuery: "token=" + r.Token}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	r.Conn = c
	return nil
}

func (r *Robot) send(line string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.Conn.WriteMessage(websocket.TextMessage, []byte(line))
}

// PollLoop asks for the round state; a fresh open round triggers a bet
func (r *Robot) PollLoop() {
	ticker := time.NewTicker(r.cfg.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-r.Done:
			return
		case <-ticker.C:
			if err := r.send("state"); err != nil {
				logger.Error(r.ctx).Err(err).Msg("Failed to check state")
				return
			}
		}
	}
}

func (r *Robot) ListenLoop() {
	defer close(r.Done)

	for {
		_, message, err := r.Conn.ReadMessage()
		if err != nil {
			logger.Error(r.ctx).Err(err).Msg("Read error")
			return
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			logger.Warn(r.ctx).Err(err).Msg("Failed to parse message")
			continue
		}

		switch frame.Command {
		case "state_rsp":
			var state struct {
				RoundID string `json:"round_id"`
				Phase   string `json:"phase"`
			}
			if err := json.Unmarshal(frame.Data, &state); err != nil {
				logger.Warn(r.ctx).Err(err).Msg("Failed to parse state")
				continue
			}
			if state.Phase == "betting_open" && state.RoundID != r.lastRound {
				r.lastRound = state.RoundID
				go r.PlaceBet(state.RoundID)
			}
		case "round_started":
			var started struct {
				RoundID string `json:"round_id"`
			}
			if err := json.Unmarshal(frame.Data, &started); err == nil && started.RoundID != r.lastRound {
				r.lastRound = started.RoundID
				go r.PlaceBet(started.RoundID)
			}
		case "round_settled":
			logger.Info(r.ctx).Str("data", string(frame.Data)).Msg("Round settled")
		case "bet_rsp":
			var rsp struct {
				ErrorCode string `json:"error_code"`
				Error     string `json:"error"`
				Message   string `json:"message"`
			}
			if err := json.Unmarshal(frame.Data, &rsp); err != nil {
				continue
			}
			if rsp.ErrorCode != "" {
				logger.Info(r.ctx).Str("error_code", rsp.ErrorCode).Str("error", rsp.Error).Msg("Bet rejected")
			} else {
				logger.Info(r.ctx).Str("message", rsp.Message).Msg("Bet accepted")
			}
		case "bet_outcome":
			logger.Info(r.ctx).Str("data", string(frame.Data)).Msg("Received outcome")
		case "error":
			logger.Warn(r.ctx).Str("data", string(frame.Data)).Msg("Gateway error")
		}
	}
}

func (r *Robot) PlaceBet(roundID string) {
	// Random delay to simulate human behavior
	time.Sleep(time.Duration(rand.Intn(1500)) * time.Millisecond)

	// Back the other team now and then so both directions get exercised
	side := r.Side
	if rand.Intn(4) == 0 {
		if side == "t" {
			side = "ct"
		} else {
			side = "t"
		}
	}
	amounts := []string{"10", "50", "100", "half", "all"}
	amount := amounts[rand.Intn(len(amounts))]

	if err := r.send(fmt.Sprintf("!bet %s %s", side, amount)); err != nil {
		logger.Error(r.ctx).Err(err).Msg("Failed to place bet")
		return
	}

	logger.Info(r.ctx).Str("amount", amount).Str("side", side).Str("round_id", roundID).Msg("Placed bet")
}
