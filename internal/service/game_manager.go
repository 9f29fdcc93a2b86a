package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/benbeisheim/arenachess-backend/internal/model"
	"github.com/benbeisheim/arenachess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultComputerDelay = 500 * time.Millisecond
	recordTimeout        = 5 * time.Second
)

// ManagerConfig configures a GameManager. Zero values fall back to defaults.
type ManagerConfig struct {
	Logger        zerolog.Logger
	Recorder      ResultRecorder
	ComputerDelay time.Duration
	Rand          *rand.Rand
}

type GameManager struct {
	games         map[string]*GameSession
	mu            sync.RWMutex
	recorder      ResultRecorder
	computerDelay time.Duration
	log           zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewGameManager(cfg ManagerConfig) *GameManager {
	gm := &GameManager{
		games:         make(map[string]*GameSession),
		recorder:      cfg.Recorder,
		computerDelay: cfg.ComputerDelay,
		rng:           cfg.Rand,
		log:           cfg.Logger.With().Str("component", "game_manager").Logger(),
	}
	if gm.recorder == nil {
		gm.recorder = NewLogRecorder(cfg.Logger)
	}
	if gm.computerDelay <= 0 {
		gm.computerDelay = DefaultComputerDelay
	}
	if gm.rng == nil {
		gm.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return gm
}

func (gm *GameManager) CreateGame(gameID, ownerID string, opts GameOptions) error {
	players, err := normalizePlayers(opts.Mode, opts.Players)
	if err != nil {
		return err
	}
	start := model.NewGame()
	if opts.FEN != "" {
		if start, err = model.ParseFEN(opts.FEN); err != nil {
			return err
		}
	}

	gm.mu.Lock()
	if _, exists := gm.games[gameID]; exists {
		gm.mu.Unlock()
		return ErrGameExists
	}
	session := newGameSession(gameID, ownerID, opts.Mode, players, start)
	gm.games[gameID] = session
	gm.mu.Unlock()

	gm.log.Info().
		Str("game_id", gameID).
		Str("owner_id", ownerID).
		Str("mode", string(opts.Mode)).
		Msg("game created")

	// a game set up with the computer to move starts thinking right away
	session.mu.Lock()
	if session.computerToMove() {
		gm.scheduleComputerMove(session)
	}
	session.mu.Unlock()
	return nil
}

// normalizePlayers fills in the default line-up for mode and checks a
// supplied one: one player per color, no computer in players mode and a
// single computer on Black in computer mode.
func normalizePlayers(mode model.GameMode, players []model.Player) ([]model.Player, error) {
	switch mode {
	case model.ModePlayers:
		if len(players) == 0 {
			return []model.Player{
				{Name: "Player 1", Color: model.White},
				{Name: "Player 2", Color: model.Black},
			}, nil
		}
	case model.ModeComputer:
		if len(players) == 0 {
			return []model.Player{
				{Name: "Player", Color: model.White},
				{Name: "Computer", Color: model.Black, IsComputer: true},
			}, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameMode, mode)
	}

	if len(players) != 2 || players[0].Color == players[1].Color {
		return nil, fmt.Errorf("%w: need one white and one black player", ErrInvalidPlayers)
	}
	computers := 0
	for _, p := range players {
		if p.Color != model.White && p.Color != model.Black {
			return nil, fmt.Errorf("%w: color %q", ErrInvalidPlayers, p.Color)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("%w: missing name", ErrInvalidPlayers)
		}
		if p.IsComputer {
			if mode == model.ModePlayers || p.Color != model.Black {
				return nil, fmt.Errorf("%w: computer must play black in computer mode", ErrInvalidPlayers)
			}
			computers++
		}
	}
	if mode == model.ModeComputer && computers != 1 {
		return nil, fmt.Errorf("%w: computer mode needs a computer player", ErrInvalidPlayers)
	}
	return append([]model.Player(nil), players...), nil
}

func (gm *GameManager) GetGame(gameID string) (*GameSession, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}

	return game, nil
}

func (gm *GameManager) GetGameState(gameID string) (GameSnapshot, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return GameSnapshot{}, err
	}
	return game.Snapshot(), nil
}

// LegalMoves lists the legal destinations of the piece on square.
func (gm *GameManager) LegalMoves(gameID string, square model.Position) ([]model.Position, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	game.mu.Lock()
	defer game.mu.Unlock()
	return game.state.LegalMoves(square), nil
}

// SelectOrMove forwards a player's intent to the game. Intents that the rules
// ignore still produce a fresh snapshot.
func (gm *GameManager) SelectOrMove(gameID, playerID string, from, to *model.Position) (GameSnapshot, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return GameSnapshot{}, err
	}

	game.mu.Lock()
	if !game.isOwner(playerID) {
		game.mu.Unlock()
		return GameSnapshot{}, ErrNotGameOwner
	}
	if game.computerToMove() {
		game.mu.Unlock()
		return GameSnapshot{}, ErrComputerTurn
	}
	t := gm.commit(game, game.state.SelectOrMove(from, to))
	game.mu.Unlock()

	gm.publish(game, t)
	return t.snapshot, nil
}

// Undo takes back the last move, or the last two in computer mode on the
// human's turn. A pending computer reply is discarded.
func (gm *GameManager) Undo(gameID, playerID string) (GameSnapshot, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return GameSnapshot{}, err
	}

	game.mu.Lock()
	if !game.isOwner(playerID) {
		game.mu.Unlock()
		return GameSnapshot{}, ErrNotGameOwner
	}
	next, err := model.Undo(game.state, game.Mode)
	if err != nil {
		game.mu.Unlock()
		return GameSnapshot{}, fmt.Errorf("undo: %w", err)
	}
	t := gm.commit(game, next)
	game.mu.Unlock()

	gm.log.Debug().Str("game_id", gameID).Int("moves", len(next.MoveHistory)).Msg("move undone")
	gm.publish(game, t)
	return t.snapshot, nil
}

// Restart puts the game back to its starting position.
func (gm *GameManager) Restart(gameID, playerID string) (GameSnapshot, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return GameSnapshot{}, err
	}

	game.mu.Lock()
	if !game.isOwner(playerID) {
		game.mu.Unlock()
		return GameSnapshot{}, ErrNotGameOwner
	}
	game.reported = false
	t := gm.commit(game, game.start)
	game.mu.Unlock()

	gm.log.Info().Str("game_id", gameID).Msg("game restarted")
	gm.publish(game, t)
	return t.snapshot, nil
}

// transition is the outcome of one state replacement, published once the
// game lock is released.
type transition struct {
	snapshot GameSnapshot
	result   *MatchResult
}

// commit installs next and reacts to it. The caller holds game.mu.
func (gm *GameManager) commit(game *GameSession, next model.GameState) transition {
	game.replace(next)
	t := transition{snapshot: game.snapshot()}
	if game.state.IsGameOver {
		t.result = gm.takeResult(game)
	} else if game.computerToMove() {
		gm.scheduleComputerMove(game)
	}
	return t
}

// scheduleComputerMove arms a timer for the current version. The caller
// holds game.mu.
func (gm *GameManager) scheduleComputerMove(game *GameSession) {
	version := game.version
	time.AfterFunc(gm.computerDelay, func() {
		gm.playComputerMove(game, version)
	})
}

// playComputerMove plays the computer's reply unless the game moved on since
// it was scheduled.
func (gm *GameManager) playComputerMove(game *GameSession, version uint64) {
	game.mu.Lock()
	if game.version != version || !game.computerToMove() {
		game.mu.Unlock()
		gm.log.Debug().Str("game_id", game.ID).Uint64("version", version).Msg("discarding stale computer move")
		return
	}

	gm.rngMu.Lock()
	move, ok := game.state.ComputerMove(game.state.CurrentPlayer, gm.rng)
	gm.rngMu.Unlock()
	if !ok {
		game.mu.Unlock()
		return
	}

	t := gm.commit(game, game.state.SelectOrMove(&move.From, &move.To))
	game.mu.Unlock()

	gm.log.Debug().
		Str("game_id", game.ID).
		Str("from", move.From.String()).
		Str("to", move.To.String()).
		Msg("computer moved")
	gm.publish(game, t)
}

// takeResult builds the result of a finished game the first time it is asked
// for. The caller holds game.mu.
func (gm *GameManager) takeResult(game *GameSession) *MatchResult {
	if game.reported {
		return nil
	}
	result, ok := buildMatchResult(game, time.Now())
	if !ok {
		return nil
	}
	game.reported = true
	return &result
}

// publish records a finished game and broadcasts the new state. It must be
// called without holding game.mu so a slow recorder never stalls the game.
func (gm *GameManager) publish(game *GameSession, t transition) {
	if t.result != nil {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := gm.recorder.RecordResult(ctx, *t.result); err != nil {
			gm.log.Error().Err(err).Str("game_id", game.ID).Msg("failed to record result")
		}
		cancel()
	}

	msg, err := ws.NewMessage(ws.MessageTypeGameState, t.snapshot)
	if err != nil {
		gm.log.Error().Err(err).Str("game_id", game.ID).Msg("failed to marshal state")
		return
	}
	go game.connections.broadcast(gm.log, t.snapshot.Version, msg)
}

// RegisterConnection attaches a socket to a game and sends it the current
// state. Anyone may watch; only the owner may play.
func (gm *GameManager) RegisterConnection(gameID, playerID string, conn *websocket.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}

	if !game.connections.add(playerID, conn) {
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Connection already exists"),
		)
		conn.Close()
		return nil
	}
	gm.log.Debug().
		Str("game_id", gameID).
		Str("player_id", playerID).
		Int("connections", game.connections.Count()).
		Msg("connection registered")

	snapshot := game.Snapshot()
	msg, err := ws.NewMessage(ws.MessageTypeGameState, snapshot)
	if err != nil {
		return err
	}
	go game.connections.sendState(gm.log, playerID, snapshot.Version, msg)
	return nil
}

func (gm *GameManager) UnregisterConnection(gameID, playerID string, conn *websocket.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	if game.connections.remove(playerID, conn) {
		gm.log.Debug().Str("game_id", gameID).Str("player_id", playerID).Msg("connection unregistered")
	}
}

// Notify sends msg to a single player's socket.
func (gm *GameManager) Notify(gameID, playerID string, msg ws.Message) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.connections.send(gm.log, playerID, msg)
}
