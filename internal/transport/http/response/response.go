package response

import "github.com/gin-gonic/gin"

// Resp 统一响应体，HTTP 状态码与 success 一致
type Resp struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// OK 成功响应
func OK(data any) Resp { return Resp{Success: true, Data: data} }

// Error 失败响应（customMsg 为空时用默认提示）
func Error(code int, customMsg string) Resp {
	msg := customMsg
	if msg == "" {
		msg = MessageOf(code)
	}
	return Resp{Success: false, Message: msg}
}

// Fields 带字段级错误的失败响应
func Fields(code int, msg string, fields map[string]string) Resp {
	r := Error(code, msg)
	if len(fields) > 0 {
		r.Errors = fields
	}
	return r
}

// Abort 中断链路并写出错误
func Abort(c *gin.Context, code int, customMsg string) {
	c.AbortWithStatusJSON(code, Error(code, customMsg))
}
