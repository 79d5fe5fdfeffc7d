package handler

import (
	"fmt"

	"github.com/bitfantasy/rmqc/internal/rm/service"
	"github.com/gin-gonic/gin"
)

// CallHandler 报验单处理器
type CallHandler struct {
	svc    *service.InspectionService
	report *service.ReportService
}

func NewCallHandler(svc *service.InspectionService, report *service.ReportService) *CallHandler {
	return &CallHandler{svc: svc, report: report}
}

// ListCalls 报验列表
// GET /api/v1/rm/calls?status=xxx&result=xxx&product_model=xxx&vendor_name=xxx
func (h *CallHandler) ListCalls(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":        c.Query("status"),
		"result":        c.Query("result"),
		"product_model": c.Query("product_model"),
		"vendor_name":   c.Query("vendor_name"),
	}

	items, total, err := h.svc.ListCalls(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取报验列表失败: "+err.Error())
		return
	}

	Success(c, ListResponse{
		Items:      items,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// CreateCall 创建报验
// POST /api/v1/rm/calls
func (h *CallHandler) CreateCall(c *gin.Context) {
	var req service.CreateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	call, err := h.svc.CreateCall(c.Request.Context(), GetOperator(c), &req)
	if err != nil {
		respondError(c, err, "创建报验失败")
		return
	}
	Created(c, call)
}

// GetCall 报验详情
// GET /api/v1/rm/calls/:id
func (h *CallHandler) GetCall(c *gin.Context) {
	call, err := h.svc.GetCall(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "获取报验失败")
		return
	}
	Success(c, call)
}

// Evaluate 实时判定
// GET /api/v1/rm/calls/:id/evaluation
func (h *CallHandler) Evaluate(c *gin.Context) {
	ev, err := h.svc.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "判定失败")
		return
	}
	Success(c, ev)
}

// Finalize 完成报验
// POST /api/v1/rm/calls/:id/finalize
func (h *CallHandler) Finalize(c *gin.Context) {
	var req service.FinalizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "参数错误: "+err.Error())
			return
		}
	}

	res, err := h.svc.FinalizeCall(c.Request.Context(), GetOperator(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "完成报验失败")
		return
	}
	Success(c, res)
}

// ListActivities 操作日志
// GET /api/v1/rm/calls/:id/activities
func (h *CallHandler) ListActivities(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListActivities(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		InternalError(c, "获取操作日志失败: "+err.Error())
		return
	}
	Success(c, ListResponse{
		Items:      items,
		Pagination: NewPagination(page, pageSize, total),
	})
}

// ExportReport 导出检验报告
// GET /api/v1/rm/calls/:id/report
func (h *CallHandler) ExportReport(c *gin.Context) {
	buf, filename, err := h.report.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "导出报告失败")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
