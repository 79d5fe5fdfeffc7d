package handler

import (
	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/bitfantasy/rmqc/internal/rm/service"
	"github.com/gin-gonic/gin"
)

// ReferenceHandler 规格限值、公差带和单值校验
type ReferenceHandler struct {
	svc *service.InspectionService
}

func NewReferenceHandler(svc *service.InspectionService) *ReferenceHandler {
	return &ReferenceHandler{svc: svc}
}

// SpecLimits GET /api/v1/rm/spec-limits
func (h *ReferenceHandler) SpecLimits(c *gin.Context) {
	Success(c, gin.H{
		"limits":    h.svc.SpecLimits(),
		"defects":   engine.DefectCatalogue,
		"no_defect": engine.NoDefect,
	})
}

// ToleranceBands GET /api/v1/rm/tolerance-bands
func (h *ReferenceHandler) ToleranceBands(c *gin.Context) {
	Success(c, h.svc.ToleranceBands())
}

// ValidateRequest 单值校验请求
type ValidateRequest struct {
	Attribute string  `json:"attribute" binding:"required"`
	Value     *string `json:"value"`
}

// Validate 单个属性的即时校验，供录入界面逐格提示
// POST /api/v1/rm/validate
func (h *ReferenceHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	attr, ok := engine.ResolveAttribute(req.Attribute)
	if !ok {
		BadRequest(c, "未知属性: "+req.Attribute)
		return
	}
	Success(c, h.svc.ValidateValue(attr, engine.Deref(req.Value)))
}
