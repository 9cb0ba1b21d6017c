package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wagerDomain "github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/internal/modules/wager/odds"
)

type fakeWagerService struct {
	token, side, amount string
	err                 error
	wager               *wagerDomain.Wager
}

func (f *fakeWagerService) PlaceBet(ctx context.Context, token, sideArg, amountArg string) (*wagerDomain.Wager, error) {
	f.token, f.side, f.amount = token, sideArg, amountArg
	if f.err != nil {
		return nil, f.err
	}
	return f.wager, nil
}

func (f *fakeWagerService) State() wagerDomain.RoundState {
	return wagerDomain.RoundState{RoundID: "r1", Phase: wagerDomain.PhaseBettingOpen, OpenWagers: 2, TotalStaked: 300}
}

func (f *fakeWagerService) PlayerWager(playerID int64) (wagerDomain.Wager, bool) {
	if f.wager == nil || f.wager.PlayerID != playerID {
		return wagerDomain.Wager{}, false
	}
	return *f.wager, true
}

func (f *fakeWagerService) Quote(ctx context.Context) (odds.Quote, error) {
	return odds.NewQuote(3, 1), nil
}

type frame struct {
	Game    string                 `json:"game"`
	Command string                 `json:"command"`
	Data    map[string]interface{} `json:"data"`
}

func decode(t *testing.T, raw []byte) frame {
	t.Helper()
	var f frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func TestParseCommand(t *testing.T) {
	name, args, ok := ParseCommand("!BET ct half")
	require.True(t, ok)
	assert.Equal(t, "bet", name)
	assert.Equal(t, []string{"ct", "half"}, args)

	name, args, ok = ParseCommand("  css_bet   t 100 ")
	require.True(t, ok)
	assert.Equal(t, "bet", name)
	assert.Equal(t, []string{"t", "100"}, args)

	_, _, ok = ParseCommand("   ")
	assert.False(t, ok)
	_, _, ok = ParseCommand("!")
	assert.False(t, ok)
}

func TestHandleMessage_ChatBet(t *testing.T) {
	svc := &fakeWagerService{wager: &wagerDomain.Wager{WagerID: "w1", PlayerID: 7, Side: wagerDomain.SideSecondTeam, Stake: 100, PotentialProfit: 300}}
	uc := NewGatewayUseCase(svc)

	raw, err := uc.HandleMessage(context.Background(), 7, "tok", []byte("bet ct 100"))
	require.NoError(t, err)
	assert.Equal(t, "tok", svc.token)
	assert.Equal(t, "ct", svc.side)
	assert.Equal(t, "100", svc.amount)

	f := decode(t, raw)
	assert.Equal(t, "players_bet", f.Game)
	assert.Equal(t, "bet_rsp", f.Command)
	assert.Equal(t, "", f.Data["error_code"])
	assert.Contains(t, f.Data["message"], "300")
}

func TestHandleMessage_WrongArity(t *testing.T) {
	svc := &fakeWagerService{err: wagerDomain.ErrInvalidArgs}
	uc := NewGatewayUseCase(svc)

	raw, err := uc.HandleMessage(context.Background(), 7, "tok", []byte("bet ct"))
	require.NoError(t, err)
	assert.Equal(t, "", svc.side)
	assert.Equal(t, "", svc.amount)

	f := decode(t, raw)
	assert.Equal(t, "invalid_args", f.Data["error_code"])
	assert.Equal(t, wagerDomain.Usage, f.Data["error"])
}

func TestHandleMessage_JSONBet(t *testing.T) {
	svc := &fakeWagerService{err: wagerDomain.ErrStillAlive}
	uc := NewGatewayUseCase(svc)

	raw, err := uc.HandleMessage(context.Background(), 7, "tok", []byte(`{"command":"bet","data":{"side":"t","amount":"all"}}`))
	require.NoError(t, err)
	assert.Equal(t, "t", svc.side)
	assert.Equal(t, "all", svc.amount)
	assert.Equal(t, "still_alive", decode(t, raw).Data["error_code"])
}

func TestHandleMessage_SystemErrorHidden(t *testing.T) {
	svc := &fakeWagerService{err: errors.New("roster snapshot: connection refused")}
	uc := NewGatewayUseCase(svc)

	raw, err := uc.HandleMessage(context.Background(), 7, "tok", []byte("bet t 1"))
	require.NoError(t, err)
	f := decode(t, raw)
	assert.Equal(t, "internal_error", f.Data["error_code"])
	assert.NotContains(t, f.Data["error"], "connection refused")
}

func TestHandleMessage_Queries(t *testing.T) {
	svc := &fakeWagerService{wager: &wagerDomain.Wager{WagerID: "w1", PlayerID: 7, Stake: 50}}
	uc := NewGatewayUseCase(svc)
	ctx := context.Background()

	raw, err := uc.HandleMessage(ctx, 7, "tok", []byte("!state"))
	require.NoError(t, err)
	f := decode(t, raw)
	assert.Equal(t, "state_rsp", f.Command)
	assert.Equal(t, "betting_open", f.Data["phase"])

	raw, err = uc.HandleMessage(ctx, 7, "tok", []byte(`{"command":"odds"}`))
	require.NoError(t, err)
	f = decode(t, raw)
	assert.Equal(t, "odds_rsp", f.Command)
	assert.Equal(t, true, f.Data["available"])

	raw, err = uc.HandleMessage(ctx, 7, "tok", []byte("my_bet"))
	require.NoError(t, err)
	f = decode(t, raw)
	require.NotNil(t, f.Data["wager"])

	raw, err = uc.HandleMessage(ctx, 8, "tok", []byte("my_bet"))
	require.NoError(t, err)
	assert.Nil(t, decode(t, raw).Data["wager"])
}

func TestHandleMessage_Invalid(t *testing.T) {
	uc := NewGatewayUseCase(&fakeWagerService{})
	ctx := context.Background()

	_, err := uc.HandleMessage(ctx, 1, "tok", []byte("{not json"))
	assert.Error(t, err)
	_, err = uc.HandleMessage(ctx, 1, "tok", []byte(`{"data":{}}`))
	assert.Error(t, err)
	_, err = uc.HandleMessage(ctx, 1, "tok", []byte("dance"))
	assert.Error(t, err)
	_, err = uc.HandleMessage(ctx, 1, "tok", []byte(""))
	assert.Error(t, err)
}
