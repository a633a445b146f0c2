package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dagforge/dagforge/pkg/depgraph"
	"github.com/dagforge/dagforge/pkg/ports"
)

// GraphSubmitRequest represents a graph submission request
type GraphSubmitRequest struct {
	Name  string             `json:"name"`
	Graph *depgraph.Snapshot `json:"graph" binding:"required"`
}

// GraphSubmitResponse represents a graph submission response
type GraphSubmitResponse struct {
	GraphID     string    `json:"graph_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ExecutionStartResponse represents an execution start response
type ExecutionStartResponse struct {
	ExecutionID string    `json:"execution_id"`
	GraphID     string    `json:"graph_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error: ErrorDetail{
			Code:    "NOT_FOUND",
			Message: message,
		},
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"checks": gin.H{
			"orchestrator": "ok",
		},
	})
}

// handleSubmitGraph handles graph submission
func (s *Server) handleSubmitGraph(c *gin.Context) {
	var req GraphSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	graphID, err := s.orchestrator.SubmitGraph(c.Request.Context(), req.Name, req.Graph)
	if err != nil {
		s.logger.Error("failed to submit graph", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    "SUBMISSION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, GraphSubmitResponse{
		GraphID:     graphID,
		Status:      "accepted",
		SubmittedAt: time.Now(),
	})
}

// handleListGraphs handles listing graphs
func (s *Server) handleListGraphs(c *gin.Context) {
	graphs, err := s.orchestrator.ListGraphs(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list graphs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: "Failed to list graphs",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"graphs": graphs,
		"total":  len(graphs),
	})
}

// handleGetGraph handles getting graph details
func (s *Server) handleGetGraph(c *gin.Context) {
	stored, err := s.orchestrator.GetGraph(c.Request.Context(), c.Param("id"))
	if err != nil {
		notFound(c, "Graph not found")
		return
	}

	c.JSON(http.StatusOK, stored)
}

// handleDeleteGraph handles deleting a graph definition
func (s *Server) handleDeleteGraph(c *gin.Context) {
	graphID := c.Param("id")

	if err := s.orchestrator.DeleteGraph(c.Request.Context(), graphID); err != nil {
		notFound(c, "Graph not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"graph_id": graphID,
		"status":   "deleted",
	})
}

// handleGetOrder handles topological order queries
func (s *Server) handleGetOrder(c *gin.Context) {
	graphID := c.Param("id")

	order, err := s.orchestrator.Order(c.Request.Context(), graphID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			notFound(c, "Graph not found")
			return
		}
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    "ORDER_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"graph_id": graphID,
		"order":    order,
	})
}

// handleGetPlan handles parallel execution plan queries
func (s *Server) handleGetPlan(c *gin.Context) {
	graphID := c.Param("id")

	groups, err := s.orchestrator.Plan(c.Request.Context(), graphID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			notFound(c, "Graph not found")
			return
		}
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    "PLAN_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"graph_id": graphID,
		"groups":   groups,
	})
}

// handleGetDOT handles DOT rendering queries
func (s *Server) handleGetDOT(c *gin.Context) {
	dot, err := s.orchestrator.DOT(c.Request.Context(), c.Param("id"))
	if err != nil {
		notFound(c, "Graph not found")
		return
	}

	c.Data(http.StatusOK, "text/vnd.graphviz", []byte(dot))
}

// handleStartExecution handles starting a graph execution
func (s *Server) handleStartExecution(c *gin.Context) {
	graphID := c.Param("id")

	executionID, err := s.orchestrator.StartExecution(c.Request.Context(), graphID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			notFound(c, "Graph not found")
			return
		}
		s.logger.Error("failed to start execution", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    "EXECUTION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, ExecutionStartResponse{
		ExecutionID: executionID,
		GraphID:     graphID,
		Status:      "submitted",
		SubmittedAt: time.Now(),
	})
}

// handleListExecutions handles listing executions for a graph
func (s *Server) handleListExecutions(c *gin.Context) {
	graphID := c.Param("id")

	executions, err := s.orchestrator.ListExecutions(c.Request.Context(), graphID)
	if err != nil {
		s.logger.Error("failed to list executions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: "Failed to list executions",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"graph_id":   graphID,
		"executions": executions,
		"total":      len(executions),
	})
}

// handleGetExecution handles getting execution state
func (s *Server) handleGetExecution(c *gin.Context) {
	state, err := s.orchestrator.GetExecution(c.Request.Context(), c.Param("id"))
	if err != nil {
		notFound(c, "Execution not found")
		return
	}

	c.JSON(http.StatusOK, state)
}

// handleCancelExecution handles execution cancellation
func (s *Server) handleCancelExecution(c *gin.Context) {
	executionID := c.Param("id")

	if err := s.orchestrator.CancelExecution(c.Request.Context(), executionID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			notFound(c, "Execution not found")
			return
		}
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: ErrorDetail{
				Code:    "CANCELLATION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"execution_id": executionID,
		"status":       "cancelling",
		"cancelled_at": time.Now(),
	})
}
