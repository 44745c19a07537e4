package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/anggasct/junction"
	"github.com/anggasct/junction/pkg/emergency"
	"github.com/anggasct/junction/visualization"
	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

type createResponse struct {
	ID    string            `json:"id"`
	State junction.Snapshot `json:"state"`
}

type countRequest struct {
	Count *int `json:"count" binding:"required"`
}

type emergencyRequest struct {
	Lane string `json:"lane" binding:"required"`
	Type string `json:"type" binding:"required"`
}

type congestedResponse struct {
	Lane     junction.Lane `json:"lane"`
	Vehicles int           `json:"vehicles"`
}

// loadSession resolves :id and stores the session on the context
func (s *Server) loadSession(c *gin.Context) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	session.expire(s.options.Now())
	c.Set(sessionKey, session)
	c.Next()
}

func current(c *gin.Context) *Session {
	return c.MustGet(sessionKey).(*Session)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "sessions": s.sessions.Len()})
}

func (s *Server) handleEmergencyTypes(c *gin.Context) {
	c.JSON(http.StatusOK, emergency.Types())
}

func (s *Server) handleReport(c *gin.Context) {
	report, err := s.options.Recorder.Report(s.options.Now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", report)
}

// handleCreate starts a session. The optional body overrides fields of the
// server's default junction configuration.
func (s *Server) handleCreate(c *gin.Context) {
	cfg := s.options.Junction
	cfg.LaneOrder = append([]junction.Lane(nil), cfg.LaneOrder...)
	if err := c.ShouldBindJSON(&cfg); err != nil && !errors.Is(err, io.EOF) {
		s.fail(c, asInput(err))
		return
	}

	controller, err := junction.NewController(cfg)
	if err != nil {
		s.fail(c, err)
		return
	}
	session := s.Register(controller)

	c.JSON(http.StatusCreated, createResponse{
		ID:    session.ID.String(),
		State: session.Override.SignalState(),
	})
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).Override.SignalState())
}

func (s *Server) handleStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).Controller.Statistics())
}

func (s *Server) handleCongested(c *gin.Context) {
	lane, vehicles := current(c).Controller.MostCongestedLane()
	c.JSON(http.StatusOK, congestedResponse{Lane: lane, Vehicles: vehicles})
}

func (s *Server) handleDOT(c *gin.Context) {
	session := current(c)
	dot, err := visualization.NewSnapshotDOTGenerator(session.Override.SignalState(), session.Controller.Rotation()).Generate()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(dot))
}

func (s *Server) handleSetLane(c *gin.Context) {
	session := current(c)

	lane, err := junction.ParseLane(c.Param("lane"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var req countRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, asInput(err))
		return
	}
	if err := session.Controller.SetVehicleCount(lane, *req.Count); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Override.SignalState().Lane(lane))
}

// handleSetLanes applies a {"North": 3, ...} body atomically
func (s *Server) handleSetLanes(c *gin.Context) {
	session := current(c)

	var counts map[junction.Lane]int
	if err := c.ShouldBindJSON(&counts); err != nil {
		s.fail(c, asInput(err))
		return
	}
	if err := session.Controller.SetVehicleCounts(counts); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Override.SignalState())
}

func (s *Server) handleAdvance(c *gin.Context) {
	session := current(c)
	session.Controller.Advance()
	s.Record(session)
	c.JSON(http.StatusOK, session.Override.SignalState())
}

func (s *Server) handleReset(c *gin.Context) {
	session := current(c)
	session.Override.Clear()
	session.Controller.Reset()
	s.Record(session)
	c.JSON(http.StatusOK, session.Override.SignalState())
}

func (s *Server) handleEmergencyStatus(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).Override.Status())
}

func (s *Server) handleEmergency(c *gin.Context) {
	session := current(c)

	var req emergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, asInput(err))
		return
	}
	lane, err := junction.ParseLane(req.Lane)
	if err != nil {
		s.fail(c, err)
		return
	}
	vt, err := emergency.ParseVehicleType(req.Type)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := session.detect(lane, vt, s.options.Now()); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": session.Override.Status(),
		"alert":  session.Override.Alert(),
		"color":  session.Override.Color(),
		"state":  session.Override.SignalState(),
	})
}

func (s *Server) handleClearEmergency(c *gin.Context) {
	current(c).Override.Clear()
	c.Status(http.StatusNoContent)
}

// asInput reports a malformed request body as an input error
func asInput(err error) error {
	if junction.IsLaneError(err) || junction.IsInputError(err) {
		return err
	}
	return junction.NewInputError("body", 0, err.Error())
}
