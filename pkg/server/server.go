// Package server exposes junction controllers over HTTP. Each session owns
// one controller with its own emergency override.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/anggasct/junction"
	"github.com/anggasct/junction/pkg/analytics"
	"github.com/anggasct/junction/pkg/emergency"
	"github.com/anggasct/junction/pkg/history"
	"github.com/anggasct/junction/pkg/observers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Options configures a Server
type Options struct {
	// Junction is the configuration of sessions created without a body
	Junction junction.Config

	// CORSOrigins lists allowed origins; empty or "*" allows all
	CORSOrigins []string

	// Logger defaults to a no-op logger
	Logger *zerolog.Logger

	// History, if set, receives a record after every advance
	History *history.Store

	// Recorder logs a snapshot after every advance; nil creates a fresh one
	Recorder *analytics.Recorder

	// Now defaults to time.Now
	Now func() time.Time
}

// Server routes HTTP requests to sessions
type Server struct {
	engine   *gin.Engine
	sessions *Sessions
	options  Options
	base     zerolog.Logger
	logger   zerolog.Logger
}

// New builds a server and its routes
func New(opts Options) (*Server, error) {
	if err := opts.Junction.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Recorder == nil {
		opts.Recorder = analytics.NewRecorder()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	s := &Server{
		engine:   gin.New(),
		sessions: NewSessions(),
		options:  opts,
		base:     logger,
		logger:   logger.With().Str("component", "server").Logger(),
	}

	s.engine.Use(gin.Recovery(), requestID(), accessLog(s.logger), cors.New(corsConfig(opts.CORSOrigins)))
	s.routes()
	return s, nil
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", RequestIDHeader}
	config.ExposeHeaders = []string{RequestIDHeader}
	return config
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/health", s.handleHealth)
	r.GET("/emergency/types", s.handleEmergencyTypes)
	r.GET("/analytics/report", s.handleReport)

	sessions := r.Group("/sessions")
	sessions.POST("", s.handleCreate)

	session := sessions.Group("/:id", s.loadSession)
	session.DELETE("", s.handleDelete)
	session.GET("/state", s.handleState)
	session.GET("/statistics", s.handleStatistics)
	session.GET("/congested", s.handleCongested)
	session.GET("/dot", s.handleDOT)
	session.PUT("/lanes", s.handleSetLanes)
	session.PUT("/lanes/:lane", s.handleSetLane)
	session.POST("/advance", s.handleAdvance)
	session.POST("/reset", s.handleReset)
	session.GET("/emergency", s.handleEmergencyStatus)
	session.POST("/emergency", s.handleEmergency)
	session.DELETE("/emergency", s.handleClearEmergency)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Sessions returns the session registry
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// errorStatus maps domain errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, emergency.ErrOverrideActive):
		return http.StatusConflict
	case junction.IsConfigurationError(err):
		return http.StatusUnprocessableEntity
	case junction.IsLaneError(err), junction.IsInputError(err), errors.Is(err, emergency.ErrUnknownVehicle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", c.GetString(RequestIDHeader)).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// Register adds a session for controller with logging attached
func (s *Server) Register(controller *junction.Controller) *Session {
	session := s.sessions.Add(controller, s.options.Now())
	s.observe(session)
	return session
}

// Record feeds analytics and history after the rotation of session moved
func (s *Server) Record(session *Session) {
	now := s.options.Now()
	c := session.Controller

	s.options.Recorder.Log(now, session.Number, c.SignalState(), c.Statistics())

	if s.options.History != nil {
		if err := s.options.History.Save(history.NewRecord(now, session.Number, c)); err != nil {
			s.logger.Error().Err(err).Str("session", session.ID.String()).Msg("history save failed")
		}
	}
}

func (s *Server) observe(session *Session) {
	id := session.ID.String()
	session.Controller.AddObserver(observers.NewLoggingObserver(s.base, observers.LogInfo, id))
	session.Override.SetLogger(s.base.With().Str("junction", id).Logger())
}
