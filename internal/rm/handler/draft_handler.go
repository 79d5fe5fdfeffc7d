package handler

import (
	"github.com/bitfantasy/rmqc/internal/rm/service"
	"github.com/gin-gonic/gin"
)

// DraftHandler 录入草稿处理器
type DraftHandler struct {
	svc *service.DraftService
}

func NewDraftHandler(svc *service.DraftService) *DraftHandler {
	return &DraftHandler{svc: svc}
}

// GetDraft GET /api/v1/rm/drafts/:callNo/:section
func (h *DraftHandler) GetDraft(c *gin.Context) {
	d, err := h.svc.Load(c.Request.Context(), c.Param("callNo"), c.Param("section"))
	if err != nil {
		respondError(c, err, "获取草稿失败")
		return
	}
	Success(c, d)
}

// SaveDraft PUT /api/v1/rm/drafts/:callNo/:section
func (h *DraftHandler) SaveDraft(c *gin.Context) {
	var req service.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	d, err := h.svc.Save(c.Request.Context(), GetOperator(c), c.Param("callNo"), c.Param("section"), &req)
	if err != nil {
		respondError(c, err, "保存草稿失败")
		return
	}
	Success(c, d)
}

// DeleteDraft DELETE /api/v1/rm/drafts/:callNo/:section
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("callNo"), c.Param("section")); err != nil {
		respondError(c, err, "删除草稿失败")
		return
	}
	Success(c, nil)
}
