package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/rmqc/internal/rm/service"
	"github.com/bitfantasy/rmqc/internal/rm/sse"
	"github.com/gin-gonic/gin"
)

// Handlers 原材料检验处理器集合
type Handlers struct {
	Call      *CallHandler
	Heat      *HeatHandler
	Reference *ReferenceHandler
	Draft     *DraftHandler
	SSE       *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		Call:      NewCallHandler(svc.Inspection, svc.Report),
		Heat:      NewHeatHandler(svc.Inspection),
		Reference: NewReferenceHandler(svc.Inspection),
		Draft:     NewDraftHandler(svc.Draft),
		SSE:       NewSSEHandler(hub),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      int(total),
		TotalPages: totalPages,
	}
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData 错误响应附带明细，如字段级提示
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func UnprocessableEntity(c *gin.Context, message string, fields map[string]string) {
	if fields == nil {
		Error(c, 42200, message)
		return
	}
	ErrorWithData(c, 42200, message, gin.H{"fields": fields})
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// respondError 按服务层错误类型映射响应码
func respondError(c *gin.Context, err error, fallback string) {
	var entryErr *service.EntryError
	switch {
	case errors.As(err, &entryErr):
		UnprocessableEntity(c, err.Error(), entryErr.Fields)
	case errors.Is(err, service.ErrInvalidInput):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrCallNotFound),
		errors.Is(err, service.ErrHeatNotFound),
		errors.Is(err, service.ErrDraftNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrDuplicateCall),
		errors.Is(err, service.ErrDuplicateHeat),
		errors.Is(err, service.ErrCallCompleted):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrVerdictPending),
		errors.Is(err, service.ErrRemarkRequired):
		UnprocessableEntity(c, err.Error(), nil)
	default:
		InternalError(c, fallback+": "+err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetOperator 当前登录用户
func GetOperator(c *gin.Context) service.Operator {
	op := service.Operator{ID: GetUserID(c)}
	if name, ok := c.Get("user_name"); ok {
		op.Name, _ = name.(string)
	}
	return op
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
