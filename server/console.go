package server

import (
	"context"
	"errors"
	"solo/db"
	"solo/models"
	"solo/query"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	log "github.com/sirupsen/logrus"
)

const (
	sessionUserKey = "userEmail"
	localsUserKey  = "user"
)

type consoleHandlers struct {
	store    *db.DB
	sessions *session.Store
	timeout  time.Duration
}

type loginRequest struct {
	Email    string `json:"userEmail"`
	Password string `json:"userPassword"`
}

type linkRequest struct {
	Link models.Link `json:"link"`
}

type linkOrderRequest struct {
	Id        string `json:"oId"`
	Direction string `json:"direction"`
}

type articleRequest struct {
	Article models.Article `json:"article"`
}

func (h *consoleHandlers) storeContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.timeout)
}

func succeed(c *fiber.Ctx, msg string, extra fiber.Map) error {
	body := fiber.Map{"sc": true, "msg": msg}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(body)
}

func failure(c *fiber.Ctx, msg string, err error) error {
	log.WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"error":  err,
	}).Error(msg)

	return c.JSON(fiber.Map{"sc": false, "msg": msg})
}

func (h *consoleHandlers) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"sc": false, "msg": "Invalid login request"})
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	user, err := h.store.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, db.ErrInvalidCredentials) {
		log.WithFields(log.Fields{
			"email": req.Email,
		}).Warn("Login failed")
		return c.JSON(fiber.Map{"sc": false, "msg": "Wrong email or password"})
	}
	if err != nil {
		return failure(c, "Login failed", err)
	}

	sess, err := h.sessions.Get(c)
	if err != nil {
		return failure(c, "Login failed", err)
	}
	if err := sess.Regenerate(); err != nil {
		return failure(c, "Login failed", err)
	}
	sess.Set(sessionUserKey, user.Email)
	if err := sess.Save(); err != nil {
		return failure(c, "Login failed", err)
	}

	log.WithFields(log.Fields{
		"email": user.Email,
		"role":  user.Role,
	}).Info("User logged in")

	return succeed(c, "Logged in", fiber.Map{"userName": user.Name, "userRole": user.Role})
}

func (h *consoleHandlers) logout(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return failure(c, "Logout failed", err)
	}
	if err := sess.Destroy(); err != nil {
		return failure(c, "Logout failed", err)
	}
	return succeed(c, "Logged out", nil)
}

// currentUser loads the user of the session, nil when nobody is logged in
func (h *consoleHandlers) currentUser(c *fiber.Ctx) (*models.User, error) {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return nil, err
	}

	email, ok := sess.Get(sessionUserKey).(string)
	if !ok || email == "" {
		return nil, nil
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	user, err := h.store.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (h *consoleHandlers) authorize(c *fiber.Ctx, adminOnly bool) error {
	user, err := h.currentUser(c)
	if err != nil {
		return failure(c, "Could not load session", err)
	}
	if user == nil || (adminOnly && !user.IsAdmin()) {
		return c.SendStatus(fiber.StatusForbidden)
	}

	c.Locals(localsUserKey, user)
	return c.Next()
}

func (h *consoleHandlers) requireLogin(c *fiber.Ctx) error {
	return h.authorize(c, false)
}

func (h *consoleHandlers) requireAdmin(c *fiber.Ctx) error {
	return h.authorize(c, true)
}

func (h *consoleHandlers) getLinks(c *fiber.Ctx) error {
	page, err := query.ParsePath(c.Params("*"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"sc": false, "msg": err.Error()})
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	links, total, err := h.store.GetLinks(ctx, page)
	if err != nil {
		return failure(c, "Could not get links", err)
	}

	pageCount := query.PageCount(total, page.Size)

	return succeed(c, "", fiber.Map{
		"pagination": models.Pagination{
			PageCount: pageCount,
			PageNums:  query.Paginate(page.Current, pageCount, page.WindowSize),
		},
		"links": links,
	})
}

func (h *consoleHandlers) getLink(c *fiber.Ctx) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	link, err := h.store.GetLink(ctx, c.Params("id"))
	if errors.Is(err, models.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"sc": false, "msg": "Link not found"})
	}
	if err != nil {
		return failure(c, "Could not get link", err)
	}

	return succeed(c, "", fiber.Map{"link": link})
}

func (h *consoleHandlers) addLink(c *fiber.Ctx) error {
	var req linkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"sc": false, "msg": "Invalid link"})
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	id, err := h.store.CreateLink(ctx, req.Link)
	if err != nil {
		return failure(c, "Could not add link", err)
	}

	return succeed(c, "Link added", fiber.Map{"oId": id})
}

func (h *consoleHandlers) updateLink(c *fiber.Ctx) error {
	var req linkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"sc": false, "msg": "Invalid link"})
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	if err := h.store.UpdateLink(ctx, req.Link); err != nil {
		return failure(c, "Could not update link", err)
	}

	return succeed(c, "Link updated", nil)
}

func (h *consoleHandlers) removeLink(c *fiber.Ctx) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	if err := h.store.DeleteLink(ctx, c.Params("id")); err != nil {
		return failure(c, "Could not remove link", err)
	}

	return succeed(c, "Link removed", nil)
}

func (h *consoleHandlers) changeLinkOrder(c *fiber.Ctx) error {
	var req linkOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"sc": false, "msg": "Invalid order change"})
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	if err := h.store.ChangeLinkOrder(ctx, req.Id, req.Direction); err != nil {
		return failure(c, "Could not change link order", err)
	}

	return succeed(c, "Link order changed", nil)
}

func (h *consoleHandlers) getTags(c *fiber.Ctx) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	tags, err := h.store.GetTags(ctx)
	if err != nil {
		return failure(c, "Could not get tags", err)
	}

	return succeed(c, "", fiber.Map{"tags": tags})
}

func (h *consoleHandlers) getArticle(c *fiber.Ctx) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	article, err := h.store.GetArticle(ctx, c.Params("id"))
	if errors.Is(err, models.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"sc": false, "msg": "Article not found"})
	}
	if err != nil {
		return failure(c, "Could not get article", err)
	}

	return succeed(c, "", fiber.Map{"article": article})
}

func (h *consoleHandlers) addArticle(c *fiber.Ctx) error {
	var req articleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"sc": false, "msg": "Invalid article"})
	}

	// Articles are written by the logged in user unless stated otherwise
	if req.Article.AuthorEmail == "" {
		req.Article.AuthorEmail = c.Locals(localsUserKey).(*models.User).Email
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	id, err := h.store.CreateArticle(ctx, req.Article)
	if err != nil {
		return failure(c, "Could not add article", err)
	}

	return succeed(c, "Article added", fiber.Map{"oId": id})
}

func (h *consoleHandlers) updateArticle(c *fiber.Ctx) error {
	var req articleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"sc": false, "msg": "Invalid article"})
	}

	if req.Article.AuthorEmail == "" {
		req.Article.AuthorEmail = c.Locals(localsUserKey).(*models.User).Email
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	if err := h.store.UpdateArticle(ctx, req.Article); err != nil {
		return failure(c, "Could not update article", err)
	}

	return succeed(c, "Article updated", nil)
}

func (h *consoleHandlers) removeArticle(c *fiber.Ctx) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	if err := h.store.DeleteArticle(ctx, c.Params("id")); err != nil {
		return failure(c, "Could not remove article", err)
	}

	return succeed(c, "Article removed", nil)
}
