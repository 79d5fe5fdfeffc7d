package handler

import (
	"github.com/bitfantasy/rmqc/internal/rm/service"
	"github.com/gin-gonic/gin"
)

// HeatHandler 炉号及录入处理器
type HeatHandler struct {
	svc *service.InspectionService
}

func NewHeatHandler(svc *service.InspectionService) *HeatHandler {
	return &HeatHandler{svc: svc}
}

// AddHeat 添加炉号
// POST /api/v1/rm/calls/:id/heats
func (h *HeatHandler) AddHeat(c *gin.Context) {
	var req service.AddHeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	heat, err := h.svc.AddHeat(c.Request.Context(), GetOperator(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "添加炉号失败")
		return
	}
	Created(c, heat)
}

// RemoveHeat 删除炉号
// DELETE /api/v1/rm/calls/:id/heats/:heatId
func (h *HeatHandler) RemoveHeat(c *gin.Context) {
	if err := h.svc.RemoveHeat(c.Request.Context(), GetOperator(c), c.Param("id"), c.Param("heatId")); err != nil {
		respondError(c, err, "删除炉号失败")
		return
	}
	Success(c, nil)
}

// SaveVisual 保存外观检查
// PUT /api/v1/rm/calls/:id/heats/:heatId/visual
func (h *HeatHandler) SaveVisual(c *gin.Context) {
	var req service.SaveVisualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	ev, err := h.svc.SaveVisual(c.Request.Context(), GetOperator(c), c.Param("id"), c.Param("heatId"), &req)
	if err != nil {
		respondError(c, err, "保存外观检查失败")
		return
	}
	Success(c, ev)
}

// ToggleDefect 勾选/取消缺陷
// POST /api/v1/rm/calls/:id/heats/:heatId/visual/toggle
func (h *HeatHandler) ToggleDefect(c *gin.Context) {
	var req struct {
		DefectType string `json:"defect_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	ev, err := h.svc.ToggleDefect(c.Request.Context(), GetOperator(c), c.Param("id"), c.Param("heatId"), req.DefectType)
	if err != nil {
		respondError(c, err, "保存外观检查失败")
		return
	}
	Success(c, ev)
}

// SaveDimensional 保存尺寸检查
// PUT /api/v1/rm/calls/:id/heats/:heatId/dimensional
func (h *HeatHandler) SaveDimensional(c *gin.Context) {
	var req service.SaveDimensionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	ev, err := h.svc.SaveDimensional(c.Request.Context(), GetOperator(c), c.Param("id"), c.Param("heatId"), &req)
	if err != nil {
		respondError(c, err, "保存尺寸检查失败")
		return
	}
	Success(c, ev)
}

// SaveMaterial 保存化学/机械试样
// PUT /api/v1/rm/calls/:id/heats/:heatId/material
func (h *HeatHandler) SaveMaterial(c *gin.Context) {
	var req service.SaveMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	ev, err := h.svc.SaveMaterial(c.Request.Context(), GetOperator(c), c.Param("id"), c.Param("heatId"), &req)
	if err != nil {
		respondError(c, err, "保存试样失败")
		return
	}
	Success(c, ev)
}

// SaveLadle 保存炉前化学成分
// PUT /api/v1/rm/calls/:id/heats/:heatId/ladle
func (h *HeatHandler) SaveLadle(c *gin.Context) {
	var req service.SaveLadleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	ev, err := h.svc.SaveLadle(c.Request.Context(), GetOperator(c), c.Param("id"), c.Param("heatId"), &req)
	if err != nil {
		respondError(c, err, "保存炉前成分失败")
		return
	}
	Success(c, ev)
}

// ImportLadle 上传供应商质保书导入炉前成分
// POST /api/v1/rm/calls/:id/ladle/import?encoding=gbk
func (h *HeatHandler) ImportLadle(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传质保书文件")
		return
	}
	src, err := file.Open()
	if err != nil {
		InternalError(c, "读取文件失败: "+err.Error())
		return
	}
	defer src.Close()

	res, err := h.svc.ImportLadle(c.Request.Context(), GetOperator(c), c.Param("id"), src, c.DefaultQuery("encoding", "utf-8"))
	if err != nil {
		respondError(c, err, "导入质保书失败")
		return
	}
	Success(c, res)
}
