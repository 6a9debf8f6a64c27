package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/peergrade-api/internal/config"
	"github.com/noah-isme/peergrade-api/internal/handler"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	GradingHandler    *handler.GradingHandler
	SubmissionHandler *handler.SubmissionHandler
	ContentHandler    *handler.ContentHandler
	GradebookHandler  *handler.GradebookHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	questions := api.Group("/questions", jwtMiddleware)
	if deps.ContentHandler != nil {
		questions.Post("/", deps.ContentHandler.CreateQuestion)
	}
	if deps.AssignmentHandler != nil {
		questions.Post("/:id/assign", deps.AssignmentHandler.Assign)
	}
	if deps.GradingHandler != nil {
		questions.Get("/:id/grading-tasks", deps.GradingHandler.Tasks)
		questions.Get("/:id/feedback", deps.GradingHandler.Feedback)
		questions.Get("/:id/rating-summary", deps.GradingHandler.RatingSummary)
	}
	if deps.SubmissionHandler != nil {
		questions.Post("/:id/submission", deps.SubmissionHandler.Submit)
		questions.Get("/:id/submission", deps.SubmissionHandler.Load)
	}

	if deps.GradingHandler != nil {
		tasks := api.Group("/grading-tasks", jwtMiddleware)
		tasks.Post("/:id/grade", deps.GradingHandler.RecordGrade)
		tasks.Post("/:id/rating", deps.GradingHandler.RecordRating)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		submissions.Get("/:id/aggregate", deps.SubmissionHandler.Aggregate)
	}

	homeworks := api.Group("/homeworks", jwtMiddleware)
	if deps.ContentHandler != nil {
		homeworks.Post("/", deps.ContentHandler.CreateHomework)
		homeworks.Get("/", deps.ContentHandler.ListHomeworks)
		homeworks.Get("/:id", deps.ContentHandler.GetHomework)
	}
	if deps.GradebookHandler != nil {
		homeworks.Post("/:id/grades/refresh", deps.GradebookHandler.Refresh)
		api.Get("/grades", jwtMiddleware, deps.GradebookHandler.Grades)
	}
}
