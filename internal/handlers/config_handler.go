package handler

import (
	"net/http"

	service "bank-reconciliation-backend/internal/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConfigHandler struct {
	service *service.Service
}

func NewConfigHandler(s *service.Service) *ConfigHandler {
	return &ConfigHandler{service: s}
}

func (h *ConfigHandler) CreateConfig(c *gin.Context) {
	var payload inlineConfigPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	cfg := payload.toModel()
	if err := h.service.CreateConfig(cfg); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "config created", "config": cfg})
}

func (h *ConfigHandler) GetConfig(c *gin.Context) {
	id, err := uuid.Parse(c.Param("configId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config ID"})
		return
	}

	cfg, err := h.service.GetConfig(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

func (h *ConfigHandler) ListConfigs(c *gin.Context) {
	configs, err := h.service.ListConfigs()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}
