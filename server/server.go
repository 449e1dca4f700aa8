package server

import (
	"solo/db"
	"solo/feeds"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type ServerConfig struct {

	// The store backing feeds and the console
	Store *db.DB

	// Version reported in the feed generator element
	Version string

	// Deadline for the store calls of a single request
	StoreTimeout time.Duration

	// Only send the session cookie over HTTPS
	SessionSecure bool
}

// Returns a fiber.App instance to be used as the HTTP server of the blog
func Server(config *ServerConfig) *fiber.App {

	assembler := feeds.NewAssembler(config.Store, config.Store, config.Version)

	sessions := session.New(session.Config{
		Expiration:     24 * time.Hour,
		KeyLookup:      "cookie:solo_session",
		CookieSecure:   config.SessionSecure,
		CookieHTTPOnly: true,
		KeyGenerator:   uuid.NewString,
	})

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log.WithFields(log.Fields{
			"method":    c.Method(),
			"route":     c.Route().Path,
			"status":    c.Response().StatusCode(),
			"latency":   time.Since(start),
			"requestId": c.Locals(requestid.ConfigDefault.ContextKey),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	fh := &feedHandlers{
		assembler: assembler,
		timeout:   config.StoreTimeout,
	}

	// Feeds, HEAD is registered alongside GET
	app.Get(feeds.AtomSitePath, fh.site(feeds.Atom))
	app.Get(feeds.AtomTagPath, fh.tag(feeds.Atom))
	app.Get(feeds.RSSSitePath, fh.site(feeds.RSS))
	app.Get(feeds.RSSTagPath, fh.tag(feeds.RSS))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	console := &consoleHandlers{
		store:    config.Store,
		sessions: sessions,
		timeout:  config.StoreTimeout,
	}

	app.Post("/login", console.login)
	app.Post("/logout", console.logout)

	group := app.Group("/console")

	// Any logged in user may read links, everything else needs the admin
	group.Get("/links/*", console.requireLogin, console.getLinks)
	group.Get("/link/:id", console.requireLogin, console.getLink)
	group.Post("/link/", console.requireAdmin, console.addLink)
	group.Put("/link/order/", console.requireAdmin, console.changeLinkOrder)
	group.Put("/link/", console.requireAdmin, console.updateLink)
	group.Delete("/link/:id", console.requireAdmin, console.removeLink)

	group.Get("/tags", console.requireAdmin, console.getTags)
	group.Get("/article/:id", console.requireAdmin, console.getArticle)
	group.Post("/article/", console.requireAdmin, console.addArticle)
	group.Put("/article/", console.requireAdmin, console.updateArticle)
	group.Delete("/article/:id", console.requireAdmin, console.removeArticle)

	return app
}
