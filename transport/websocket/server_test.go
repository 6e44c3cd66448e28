package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/connectz-backend/internal/apperror"
	"github.com/rocketscienceinc/connectz-backend/internal/entity"
	"github.com/rocketscienceinc/connectz-backend/internal/usecase"
)

type mockGameUseCase struct {
	mock.Mock
}

func (m *mockGameUseCase) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	args := m.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (m *mockGameUseCase) NewGame(ctx context.Context, playerID string, options usecase.GameOptions) (*entity.Game, error) {
	args := m.Called(ctx, playerID, options)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (m *mockGameUseCase) MakeTurn(ctx context.Context, playerID string, row, col int) (*entity.Game, error) {
	args := m.Called(ctx, playerID, row, col)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (m *mockGameUseCase) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	args := m.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (m *mockGameUseCase) EndGame(ctx context.Context, game *entity.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

// dial starts a server over useCase and connects a client to it.
func dial(t *testing.T, useCase *mockGameUseCase) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := New(slog.New(slog.NewJSONHandler(io.Discard, nil)), useCase)
	httpServer := httptest.NewServer(server.Handler(ctx))
	t.Cleanup(httpServer.Close)

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
		_ = conn.Close()
	})

	t.Cleanup(func() { useCase.AssertExpectations(t) })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload Payload) {
	t.Helper()

	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: payloadBytes}))
}

func receive(t *testing.T, conn *websocket.Conn) (string, Payload) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	var payload Payload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))

	return msg.Action, payload
}

func connectPlayer(t *testing.T, conn *websocket.Conn, useCase *mockGameUseCase, player *entity.Player) {
	t.Helper()

	useCase.On("GetOrCreatePlayer", mock.Anything, player.ID).Return(player, nil).Once()
	send(t, conn, actionConnect, Payload{Player: &entity.Player{ID: player.ID}})

	action, payload := receive(t, conn)
	require.Equal(t, actionConnect, action)
	require.Empty(t, payload.Error)
}

func TestServer_Connect(t *testing.T) {
	t.Run("Creates a player", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		// Given: a client without a session
		useCase.On("GetOrCreatePlayer", mock.Anything, "").Return(&entity.Player{ID: "p1"}, nil).Once()

		// When: it connects
		send(t, conn, actionConnect, Payload{Player: &entity.Player{}})

		// Then: the new player is returned
		action, payload := receive(t, conn)
		assert.Equal(t, actionConnect, action)
		require.NotNil(t, payload.Player)
		assert.Equal(t, "p1", payload.Player.ID)
		assert.Nil(t, payload.Game)
	})

	t.Run("Returns the current game on reconnect", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		// Given: a player in a game
		player := &entity.Player{ID: "p1", GameID: "g1"}
		game := entity.NewGame("g1", entity.LocalType, 10)
		game.Players = []*entity.Player{player}
		useCase.On("GetOrCreatePlayer", mock.Anything, "p1").Return(player, nil).Once()
		useCase.On("GetGameByPlayerID", mock.Anything, "p1").Return(game, nil).Once()

		// When: it reconnects
		send(t, conn, actionConnect, Payload{Player: &entity.Player{ID: "p1"}})

		// Then: the game comes without the player list
		_, payload := receive(t, conn)
		require.NotNil(t, payload.Game)
		assert.Equal(t, "g1", payload.Game.ID)
		assert.Nil(t, payload.Game.Players)
	})

	t.Run("Requires a player", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		send(t, conn, actionConnect, Payload{})

		action, payload := receive(t, conn)
		assert.Equal(t, actionConnect, action)
		assert.Equal(t, "Player is required", payload.Error)
	})
}

func TestServer_UnknownAction(t *testing.T) {
	useCase := &mockGameUseCase{}
	conn := dial(t, useCase)

	// When: the client sends an action nobody handles
	send(t, conn, "game:join", Payload{Player: &entity.Player{ID: "p1"}})

	// Then: an error is returned and the connection stays usable
	action, payload := receive(t, conn)
	assert.Equal(t, "game:join", action)
	assert.Equal(t, "unknown action", payload.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	action, payload = receive(t, conn)
	assert.Equal(t, actionError, action)
	assert.Equal(t, "malformed message", payload.Error)
}

func TestServer_NewGame(t *testing.T) {
	t.Run("Starts a bot game", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		player := &entity.Player{ID: "p1"}
		connectPlayer(t, conn, useCase, player)

		// Given: the use case creates an easy bot game
		game := entity.NewGame("g1", entity.WithBotType, 10)
		game.Status = entity.StatusOngoing
		game.Difficulty = entity.EasyDifficulty
		game.Players = []*entity.Player{
			{ID: "p1", Mark: entity.PlayerX, GameID: "g1"},
			entity.NewBotPlayer("g1", entity.PlayerO),
		}
		options := usecase.GameOptions{Type: entity.WithBotType, Difficulty: entity.EasyDifficulty, Mark: entity.PlayerX}
		useCase.On("NewGame", mock.Anything, "p1", options).Return(game, nil).Once()

		// When: the client asks for it
		send(t, conn, actionGameNew, Payload{
			Player: &entity.Player{ID: "p1", Mark: entity.PlayerX},
			Game:   &entity.Game{Type: entity.WithBotType, Difficulty: entity.EasyDifficulty},
		})

		// Then: the player gets the game and its mark
		action, payload := receive(t, conn)
		assert.Equal(t, actionGameNew, action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, "g1", payload.Game.ID)
		assert.Equal(t, entity.StatusOngoing, payload.Game.Status)
		assert.Nil(t, payload.Game.Players)
		assert.Equal(t, entity.PlayerX, payload.Player.Mark)
	})

	t.Run("Reports an unknown game type", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		useCase.On("NewGame", mock.Anything, "p1", usecase.GameOptions{Type: "online"}).
			Return(nil, fmt.Errorf("%w: %q", apperror.ErrUnknownGameType, "online")).
			Once()

		send(t, conn, actionGameNew, Payload{
			Player: &entity.Player{ID: "p1"},
			Game:   &entity.Game{Type: "online"},
		})

		_, payload := receive(t, conn)
		assert.Contains(t, payload.Error, apperror.ErrUnknownGameType.Error())
	})

	t.Run("Reports an unknown difficulty", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		options := usecase.GameOptions{Type: entity.WithBotType, Difficulty: "impossible"}
		useCase.On("NewGame", mock.Anything, "p1", options).
			Return(nil, fmt.Errorf("%w: %q", apperror.ErrUnknownDifficulty, "impossible")).
			Once()

		send(t, conn, actionGameNew, Payload{
			Player: &entity.Player{ID: "p1"},
			Game:   &entity.Game{Type: entity.WithBotType, Difficulty: "impossible"},
		})

		_, payload := receive(t, conn)
		assert.Contains(t, payload.Error, apperror.ErrUnknownDifficulty.Error())
	})

	t.Run("Requires a game", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		send(t, conn, actionGameNew, Payload{Player: &entity.Player{ID: "p1"}})

		_, payload := receive(t, conn)
		assert.Equal(t, "Game is required", payload.Error)
	})
}

func TestServer_GameTurn(t *testing.T) {
	t.Run("Sends the updated game", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		player := &entity.Player{ID: "p1", GameID: "g1"}
		game := entity.NewGame("g1", entity.LocalType, 10)
		game.Status = entity.StatusOngoing
		game.Board[5][5] = entity.PlayerX
		game.MoveCount = 1
		game.Turn = entity.PlayerO
		game.Players = []*entity.Player{player}
		useCase.On("MakeTurn", mock.Anything, "p1", 5, 5).Return(game, nil).Once()

		// When: the player moves
		send(t, conn, actionGameTurn, Payload{Player: &entity.Player{ID: "p1"}, Cell: &entity.Cell{Row: 5, Col: 5}})

		// Then: the board is sent back
		action, payload := receive(t, conn)
		assert.Equal(t, actionGameTurn, action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, entity.PlayerX, payload.Game.Board[5][5])
		assert.Equal(t, entity.PlayerO, payload.Game.Turn)
	})

	t.Run("Sends the finished game", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		player := &entity.Player{ID: "p1"}
		game := entity.NewGame("g1", entity.LocalType, 10)
		game.Finish(entity.PlayerX)
		game.WinningLine = []entity.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 0, Col: 3}, {Row: 0, Col: 4}}
		game.Players = []*entity.Player{player}
		useCase.On("MakeTurn", mock.Anything, "p1", 0, 4).Return(game, apperror.ErrGameFinished).Once()

		send(t, conn, actionGameTurn, Payload{Player: &entity.Player{ID: "p1"}, Cell: &entity.Cell{Row: 0, Col: 4}})

		_, payload := receive(t, conn)
		assert.Empty(t, payload.Error)
		require.NotNil(t, payload.Game)
		assert.Equal(t, entity.StatusFinished, payload.Game.Status)
		assert.Equal(t, entity.PlayerX, payload.Game.Winner)
		assert.Len(t, payload.Game.WinningLine, 5)
	})

	t.Run("Reports an illegal move", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		useCase.On("MakeTurn", mock.Anything, "p1", 5, 5).
			Return(nil, fmt.Errorf("failed make turn: %w", apperror.ErrCellOccupied)).
			Once()

		send(t, conn, actionGameTurn, Payload{Player: &entity.Player{ID: "p1"}, Cell: &entity.Cell{Row: 5, Col: 5}})

		_, payload := receive(t, conn)
		assert.Contains(t, payload.Error, apperror.ErrCellOccupied.Error())
		assert.Nil(t, payload.Game)
	})

	t.Run("Requires a cell", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		conn := dial(t, useCase)

		send(t, conn, actionGameTurn, Payload{Player: &entity.Player{ID: "p1"}})

		_, payload := receive(t, conn)
		assert.Equal(t, "Cell is required", payload.Error)
	})
}

func TestServer_GameState(t *testing.T) {
	useCase := &mockGameUseCase{}
	conn := dial(t, useCase)

	player := &entity.Player{ID: "p1", GameID: "g1"}
	game := entity.NewGame("g1", entity.LocalType, 10)
	game.Players = []*entity.Player{player}
	useCase.On("GetGameByPlayerID", mock.Anything, "p1").Return(game, nil).Once()
	useCase.On("GetGameByPlayerID", mock.Anything, "p2").Return(nil, apperror.ErrGameNotFound).Once()

	send(t, conn, actionGameState, Payload{Player: &entity.Player{ID: "p1"}})
	_, payload := receive(t, conn)
	require.NotNil(t, payload.Game)
	assert.Equal(t, "g1", payload.Game.ID)
	assert.Equal(t, "p1", payload.Player.ID)

	send(t, conn, actionGameState, Payload{Player: &entity.Player{ID: "p2"}})
	_, payload = receive(t, conn)
	assert.Equal(t, "game doesn't exist", payload.Error)
}

func TestServer_GameLeave(t *testing.T) {
	useCase := &mockGameUseCase{}
	conn := dial(t, useCase)

	// Given: a player in a bot game
	player := &entity.Player{ID: "p1", GameID: "g1", Mark: entity.PlayerX}
	game := entity.NewGame("g1", entity.WithBotType, 10)
	game.Status = entity.StatusOngoing
	game.Players = []*entity.Player{player, entity.NewBotPlayer("g1", entity.PlayerO)}
	useCase.On("GetGameByPlayerID", mock.Anything, "p1").Return(game, nil).Once()
	useCase.On("EndGame", mock.Anything, game).Return(nil).Once()

	// When: the player leaves
	send(t, conn, actionGameLeave, Payload{Player: &entity.Player{ID: "p1"}})

	// Then: the game is ended and reported as left
	action, payload := receive(t, conn)
	assert.Equal(t, actionGameLeave, action)
	require.NotNil(t, payload.Game)
	assert.Equal(t, gameStatusLeave, payload.Game.Status)
	assert.Equal(t, entity.StatusOngoing, game.Status)
}
