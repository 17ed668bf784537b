package http

import (
	"net/http"

	"github.com/dkeye/Meet/internal/app/orch"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type roomHandlers struct {
	orch *orch.Orchestrator
}

func handlerHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/rooms
func (h roomHandlers) listRooms(c *gin.Context) {
	rooms, err := h.orch.ListRooms()
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list rooms")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GET /api/rooms/:name
func (h roomHandlers) getRoom(c *gin.Context) {
	name := domain.RoomName(c.Param("name"))
	view, found, err := h.orch.Room(name)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("get room")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unavailable"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}
