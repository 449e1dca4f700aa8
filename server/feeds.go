package server

import (
	"context"
	"solo/feeds"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	feedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solo_feed_requests_total",
		Help: "The total number of feed requests by feed and status code",
	}, []string{"feed", "status"})

	feedBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solo_feed_build_duration_seconds",
		Help:    "Time spent building and rendering a feed",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // Start at 1ms, double each bucket
	}, []string{"feed"})
)

type feedHandlers struct {
	assembler *feeds.Assembler
	timeout   time.Duration
}

func contentType(format feeds.Format) string {
	if format == feeds.RSS {
		return "application/rss+xml; charset=utf-8"
	}
	return "application/atom+xml; charset=utf-8"
}

func render(format feeds.Format, feed *feeds.Feed) ([]byte, error) {
	if format == feeds.RSS {
		return feeds.RenderRSS(feed)
	}
	return feeds.RenderAtom(feed)
}

func statusOf(kind feeds.ErrorKind) int {
	switch kind {
	case feeds.BadRequest:
		return fiber.StatusBadRequest
	case feeds.NotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusServiceUnavailable
	}
}

// Serves the latest published articles of the blog
func (h *feedHandlers) site(format feeds.Format) fiber.Handler {
	name := format.String() + "_site"

	return h.serve(name, format, func(ctx context.Context, c *fiber.Ctx) (*feeds.Feed, error) {
		return h.assembler.BuildSiteFeed(ctx, format)
	})
}

// Serves the latest published articles of the tag given by the oId query parameter
func (h *feedHandlers) tag(format feeds.Format) fiber.Handler {
	name := format.String() + "_tag"

	return h.serve(name, format, func(ctx context.Context, c *fiber.Ctx) (*feeds.Feed, error) {
		return h.assembler.BuildTagFeed(ctx, c.Query("oId"), format)
	})
}

func (h *feedHandlers) serve(name string, format feeds.Format, build func(context.Context, *fiber.Ctx) (*feeds.Feed, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		defer func() {
			feedBuildDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		}()

		ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
		defer cancel()

		feed, err := build(ctx, c)
		if err != nil {
			return h.fail(c, name, err)
		}

		// Rendering only starts once the whole feed is built
		body, err := render(format, feed)
		if err != nil {
			return h.fail(c, name, err)
		}

		feedRequests.WithLabelValues(name, strconv.Itoa(fiber.StatusOK)).Inc()

		c.Set(fiber.HeaderContentType, contentType(format))
		return c.Status(fiber.StatusOK).Send(body)
	}
}

func (h *feedHandlers) fail(c *fiber.Ctx, name string, err error) error {
	kind := feeds.KindOf(err)
	status := statusOf(kind)

	fields := log.Fields{
		"feed":   name,
		"status": status,
		"query":  string(c.Request().URI().QueryString()),
		"error":  err,
	}
	if kind == feeds.ServiceUnavailable {
		log.WithFields(fields).Error("Could not build feed")
	} else {
		log.WithFields(fields).Warn("Feed request rejected")
	}

	feedRequests.WithLabelValues(name, strconv.Itoa(status)).Inc()

	if err := c.SendStatus(status); err != nil {
		log.WithFields(log.Fields{
			"feed":   name,
			"status": status,
			"error":  err,
		}).Panic("Could not send feed error status")
	}
	return nil
}
