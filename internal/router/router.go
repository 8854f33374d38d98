package router

import (
	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"

	"contact-triage-go/internal/gql"
	"contact-triage-go/internal/handler"
	"contact-triage-go/internal/metrics"
	"contact-triage-go/internal/middleware"
)

// Options selects the optional parts of the router
type Options struct {
	Mode    string
	Limiter middleware.Limiter
}

// SetupRouter configures the Gin router with routes and middleware
func SetupRouter(h *handler.Handlers, schema graphql.Schema, m *metrics.Metrics, opts Options) *gin.Engine {
	if opts.Mode == "" {
		opts.Mode = gin.ReleaseMode
	}
	gin.SetMode(opts.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics(m))

	var writeGuards []gin.HandlerFunc
	if opts.Limiter != nil {
		writeGuards = append(writeGuards, middleware.RateLimit(opts.Limiter, m))
	}

	h.SetupRoutes(r, writeGuards...)

	graphqlHandler := gql.Handler(schema)
	r.GET("/graphql", graphqlHandler)
	r.POST("/graphql", append(writeGuards, graphqlHandler)...)
	return r
}
