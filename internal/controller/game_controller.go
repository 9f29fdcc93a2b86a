package controller

import (
	"errors"

	"github.com/benbeisheim/arenachess-backend/internal/model"
	"github.com/benbeisheim/arenachess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type GameController struct {
	gameService *service.GameService
	log         zerolog.Logger
}

func NewGameController(gameService *service.GameService, log zerolog.Logger) *GameController {
	return &GameController{
		gameService: gameService,
		log:         log.With().Str("component", "game_controller").Logger(),
	}
}

type selectRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var opts service.GameOptions
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&opts); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}
	if opts.Mode == "" {
		opts.Mode = model.ModePlayers
	}

	gameID, err := gc.gameService.CreateGame(playerID(c), opts)
	if err != nil {
		return gc.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	snapshot, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return gc.fail(c, err)
	}
	return c.JSON(snapshot)
}

func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	square := c.Params("square")
	moves, err := gc.gameService.LegalMoves(c.Params("gameId"), square)
	if err != nil {
		return gc.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"square": square,
		"moves":  moves,
	})
}

func (gc *GameController) SelectOrMove(c *fiber.Ctx) error {
	var req selectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	snapshot, err := gc.gameService.SelectOrMove(c.Params("gameId"), playerID(c), req.From, req.To)
	if err != nil {
		return gc.fail(c, err)
	}
	return c.JSON(snapshot)
}

func (gc *GameController) Undo(c *fiber.Ctx) error {
	snapshot, err := gc.gameService.Undo(c.Params("gameId"), playerID(c))
	if err != nil {
		return gc.fail(c, err)
	}
	return c.JSON(snapshot)
}

func (gc *GameController) Restart(c *fiber.Ctx) error {
	snapshot, err := gc.gameService.Restart(c.Params("gameId"), playerID(c))
	if err != nil {
		return gc.fail(c, err)
	}
	return c.JSON(snapshot)
}

func (gc *GameController) fail(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		gc.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNotGameOwner):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrComputerTurn),
		errors.Is(err, model.ErrNothingToUndo),
		errors.Is(err, model.ErrNotEnoughToUndo):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidGameMode),
		errors.Is(err, service.ErrInvalidPlayers),
		errors.Is(err, service.ErrInvalidSquare),
		errors.Is(err, model.ErrInvalidFEN):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals("playerID").(string)
	return id
}
