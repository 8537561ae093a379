package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"wardrobe/internal/bgremoval"
	"wardrobe/internal/http/middleware"
	"wardrobe/internal/logging"
	"wardrobe/internal/model"
	"wardrobe/internal/service"
	"wardrobe/internal/session"
)

// Pinger reports whether the remote store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Sessions is the part of session.Holder the API needs.
type Sessions interface {
	Current() session.Session
	SignIn(ctx context.Context, email, password string) (session.Session, error)
	SignOut(ctx context.Context) error
}

// Deps groups what the routes are served from.
type Deps struct {
	DB       Pinger
	Items    service.ClothingService
	Auth     service.AuthService
	Sessions Sessions
	Remover  bgremoval.Remover
	Metrics  prometheus.Gatherer
	Log      *logging.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	log := d.Log.With("api")

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Metrics != nil {
		app.Get("/metrics", middleware.MetricsHandler(d.Metrics))
	}

	app.Post("/users", SignUp(d.Auth, log))

	app.Get("/session", CurrentSession(d.Sessions))
	app.Post("/session", SignIn(d.Sessions, log))
	app.Delete("/session", SignOut(d.Sessions, log))

	app.Get("/items", ListItems(d.Items, d.Sessions, log))
	app.Post("/items", AddItem(d.Items, d.Sessions, log))
	app.Get("/items/:id", GetItem(d.Items, d.Sessions, log))
	app.Patch("/items/:id", UpdateItem(d.Items, d.Sessions, log))
	app.Delete("/items/:id", DeleteItem(d.Items, d.Sessions, log))

	app.Get("/stats", GetStats(d.Items, d.Sessions, log))
	app.Get("/outfits/:slot", OutfitCandidates(d.Items, d.Sessions, log))

	app.Post("/background-removal", RemoveBackground(d.Remover, d.Sessions, log))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Pings the database.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 while the process is up.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SignedIn bool   `json:"signed_in"`
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
}

func toSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{SignedIn: s.SignedIn(), UserID: s.UserID, Email: s.Email}
}

// SignUp godoc
// @Summary Create an account
// @Tags session
// @Accept json
// @Produce json
// @Param body body credentials true "Email and password"
// @Success 201 {object} model.User
// @Failure 400 {object} errorPayload
// @Router /users [post]
func SignUp(auth service.AuthService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body credentials
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		}
		user, err := auth.SignUp(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

// CurrentSession godoc
// @Summary Current session
// @Tags session
// @Produce json
// @Success 200 {object} sessionResponse
// @Router /session [get]
func CurrentSession(sessions Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(toSessionResponse(sessions.Current()))
	}
}

// SignIn godoc
// @Summary Sign in
// @Tags session
// @Accept json
// @Produce json
// @Param body body credentials true "Email and password"
// @Success 200 {object} sessionResponse
// @Failure 401 {object} errorPayload
// @Router /session [post]
func SignIn(sessions Sessions, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body credentials
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		}
		s, err := sessions.SignIn(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(toSessionResponse(s))
	}
}

// SignOut godoc
// @Summary Sign out
// @Tags session
// @Success 204
// @Router /session [delete]
func SignOut(sessions Sessions, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := sessions.SignOut(context.WithoutCancel(c.UserContext())); err != nil {
			return writeServiceError(c, log, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListItems godoc
// @Summary List the signed-in user's items, newest first
// @Tags items
// @Produce json
// @Success 200 {object} cache.Result[[]model.ClothingItem]
// @Router /items [get]
func ListItems(svc service.ClothingService, sessions Sessions, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := svc.ListItems(c.UserContext(), sessions.Current())
		if res.Err != nil {
			return writeServiceError(c, log, res.Err)
		}
		return c.JSON(res)
	}
}

// AddItem godoc
// @Summary Upload a photo and catalog it
// @Tags items
// @Accept json
// @Produce json
// @Param body body model.NewItem true "Item fields and local image path"
// @Success 201 {object} model.ClothingItem
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Failure 504 {object} errorPayload
// @Router /items [post]
func AddItem(svc service.ClothingService, sessions Sessions, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.NewItem
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		}
		item, err := svc.AddItem(c.UserContext(), sessions.Current(), in)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// GetItem godoc
// @Summary Get one item
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} cache.Result[model.ClothingItem]
// @Failure 404 {object} errorPayload
// @Router /items/{id} [get]
func GetItem(svc service.ClothingService, sessions Sessions, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := svc.GetItem(c.UserContext(), sessions.Current(), c.Params("id"))
		if res.Err != nil {
			return writeServiceError(c, log, res.Err)
		}
		return c.JSON(res)
	}
}

// UpdateItem godoc
// @Summary Partially update an item
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param body body model.ItemPatch true "Fields to change"
// @Success 200 {object} model.ClothingItem
// @Router /items/{id} [patch]
func UpdateItem(svc service.ClothingService, sessions Sessions, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch model.ItemPatch
		if err := c.BodyParser(&patch); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		}
		item, err := svc.UpdateItem(c.UserContext(), sessions.Current(), c.Params("id"), patch)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(item)
	}
}

// DeleteItem godoc
// @Summary Delete an item and its stored image
// @Tags items
// @Param id path string true "Item ID"
// @Param image_url query string false "Current image URL of the item"
// @Success 204
// @Router /items/{id} [delete]
func DeleteItem(svc service.ClothingService, sessions Sessions, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := svc.DeleteItem(c.UserContext(), sessions.Current(), c.Params("id"), c.Query("image_url"))
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetStats godoc
// @Summary Wardrobe summary
// @Tags items
// @Produce json
// @Success 200 {object} service.Stats
// @Router /stats [get]
func GetStats(svc service.ClothingService, sessions Sessions, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext(), sessions.Current())
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(stats)
	}
}

// OutfitCandidates godoc
// @Summary Items that fit an outfit slot
// @Tags outfits
// @Produce json
// @Param slot path string true "top, bottom or shoes"
// @Success 200 {array} model.ClothingItem
// @Router /outfits/{slot} [get]
func OutfitCandidates(svc service.ClothingService, sessions Sessions, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.OutfitCandidates(c.UserContext(), sessions.Current(), model.OutfitSlot(c.Params("slot")))
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

type backgroundRemovalRequest struct {
	ImagePath string `json:"image_path"`
}

// RemoveBackground godoc
// @Summary Cut the background out of a local photo
// @Tags items
// @Accept json
// @Produce json
// @Param body body backgroundRemovalRequest true "Local image path"
// @Success 200 {object} backgroundRemovalRequest
// @Failure 502 {object} errorPayload
// @Failure 504 {object} errorPayload
// @Router /background-removal [post]
func RemoveBackground(remover bgremoval.Remover, sessions Sessions, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := session.Require(sessions.Current()); err != nil {
			return writeServiceError(c, log, err)
		}
		var body backgroundRemovalRequest
		if err := c.BodyParser(&body); err != nil || body.ImagePath == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "image_path is required")
		}
		out, err := remover.Remove(c.UserContext(), body.ImagePath)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(backgroundRemovalRequest{ImagePath: out})
	}
}
