package templates

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workhub/office-portal/office-portal-backend/internal/auth"
	"workhub/office-portal/office-portal-backend/pkg/apperrors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	tpls := rg.Group("/templates")
	{
		tpls.POST("", h.Create)
		tpls.GET("", h.ListActive)
		tpls.GET("/:id", h.Get)
		tpls.PUT("/:id/activate", h.Activate)
		tpls.PUT("/:id/deactivate", h.Deactivate)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
		Key     string `json:"key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.service.CreateTemplate(c.Request.Context(), CreateRequest{
		Name:    req.Name,
		Content: req.Content,
		Key:     req.Key,
		OwnerID: auth.ActorID(c),
	})
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) ListActive(c *gin.Context) {
	summaries, err := h.service.ListActiveTemplates(c.Request.Context())
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	tpl, err := h.service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *Handler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if active {
		err = h.service.ActivateTemplate(c.Request.Context(), id)
	} else {
		err = h.service.DeactivateTemplate(c.Request.Context(), id)
	}
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusOK)
}
