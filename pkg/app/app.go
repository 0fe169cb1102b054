// Package app 统一的 HTTP 响应结构
package app

import (
	"net/http"
	"strings"

	"github.com/magnusfroste/notton/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionInfo version information // 版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

type Response struct {
	Ctx *gin.Context
}

// Res is the unified response structure: Code/Status/Msg/Data
// Res 是统一的响应结构：Code/Status/Msg/Data
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{
		Ctx: ctx,
	}
}

// StatusCode maps a business code onto an HTTP status: codes below 1000
// are HTTP statuses, longer codes carry one in their first three digits
// StatusCode 将业务错误码映射为 HTTP 状态码
func StatusCode(c *code.Code) int {
	if c.Status() {
		return http.StatusOK
	}
	n := c.Code()
	for n >= 1000 {
		n /= 10
	}
	if n < 100 || n > 599 {
		return http.StatusInternalServerError
	}
	return n
}

// ToResponse 输出到浏览器
func (r *Response) ToResponse(codeObj *code.Code) {
	status := StatusCode(codeObj)
	r.Ctx.Set("status_code", status)

	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.Msg(),
		Data:    codeObj.Data(),
	}
	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}

	r.Ctx.JSON(status, content)
}
