// Package api wires the REST handlers into a gin engine.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/mmynk/ticketsplit/internal/api/handler"
	"github.com/mmynk/ticketsplit/internal/config"
	"github.com/mmynk/ticketsplit/internal/metrics"
	"github.com/mmynk/ticketsplit/internal/middleware"
	"github.com/mmynk/ticketsplit/internal/service"
	"github.com/mmynk/ticketsplit/internal/storage"
)

func init() {
	// Request bodies are strict: unknown fields are a 400.
	binding.EnableDecoderDisallowUnknownFields = true
}

// Services groups what the handlers need.
type Services struct {
	Users       *service.UserService
	Tickets     *service.TicketService
	Allocations *service.AllocationService
	Totals      *service.TotalsService
}

// NewServices builds every service on one store. m may be nil.
func NewServices(store storage.Store, m *metrics.Metrics) *Services {
	return &Services{
		Users:       service.NewUserService(store),
		Tickets:     service.NewTicketService(store),
		Allocations: service.NewAllocationService(store, m),
		Totals:      service.NewTotalsService(store),
	}
}

type Server struct {
	Config  config.ServerConfig
	Router  *gin.Engine
	metrics *metrics.Metrics
}

// NewServer builds the gin engine. m may be nil, which disables /metrics.
func NewServer(conf config.ServerConfig, svcs *Services, store storage.Store, m *metrics.Metrics) *Server {
	if conf.GinMode != "" {
		gin.SetMode(conf.GinMode)
	}
	engine := gin.New()

	s := &Server{
		Config:  conf,
		Router:  engine,
		metrics: m,
	}

	s.MountMiddlewares()
	s.MountHandlers(
		handler.NewUserHandler(svcs.Users, svcs.Totals),
		handler.NewTicketHandler(svcs.Tickets, svcs.Allocations),
		handler.NewAssignmentHandler(svcs.Allocations),
		handler.NewTotalsHandler(svcs.Totals),
		store,
	)

	return s
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.RequestLogger())
	s.Router.Use(middleware.RequestMetrics(s.metrics))
	s.Router.Use(corsMiddleware(s.Config.CORSOrigins))
}

func (s *Server) MountHandlers(
	userHandler *handler.UserHandler,
	ticketHandler *handler.TicketHandler,
	assignmentHandler *handler.AssignmentHandler,
	totalsHandler *handler.TotalsHandler,
	pinger handler.Pinger,
) {
	users := s.Router.Group("/users")
	{
		users.GET("", userHandler.HandleListUsers)
		users.POST("", userHandler.HandleCreateUser)
		users.GET("/:id", userHandler.HandleGetUser)
		users.DELETE("/:id", userHandler.HandleDeleteUser)
		users.GET("/:id/total", userHandler.HandleUserTotal)
	}

	tickets := s.Router.Group("/tickets")
	{
		tickets.GET("", ticketHandler.HandleListTickets)
		tickets.POST("", ticketHandler.HandleCreateTicket)
		tickets.GET("/:id", ticketHandler.HandleGetTicket)
		tickets.PUT("/:id", ticketHandler.HandleUpdateTicket)
		tickets.DELETE("/:id", ticketHandler.HandleDeleteTicket)
	}

	assignments := s.Router.Group("/assignments")
	{
		assignments.GET("", assignmentHandler.HandleListAssignments)
		assignments.POST("", assignmentHandler.HandleCreateAssignment)
		assignments.GET("/user/:userId", assignmentHandler.HandleListUserAssignments)
		assignments.GET("/:id", assignmentHandler.HandleGetAssignment)
		assignments.DELETE("/:id", assignmentHandler.HandleDeleteAssignment)
	}

	s.Router.GET("/totals", totalsHandler.HandleSummary)
	s.Router.GET("/healthz", handler.HandleHealthcheck(pinger))

	if s.metrics != nil {
		s.Router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// ServeHTTP lets the server be mounted on a plain http.ServeMux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", "Connect-Protocol-Version"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	return cors.New(conf)
}
