// Package apperr 统一错误分类：业务层返回，传输层按 Code 映射 HTTP 状态
package apperr

import (
	"errors"
	"net/http"
)

type Error struct {
	Code   int               // 直接使用 HTTP 语义
	Msg    string            // 对外可见
	Fields map[string]string // 字段级校验信息（可选）
	Err    error             // 内部原因，不对外
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// WithField 追加字段级信息
func (e *Error) WithField(name, msg string) *Error {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[name] = msg
	return e
}

func BadRequest(msg string) *Error   { return &Error{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) *Error { return &Error{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) *Error    { return &Error{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) *Error     { return &Error{Code: http.StatusNotFound, Msg: msg} }
func Conflict(msg string) *Error     { return &Error{Code: http.StatusConflict, Msg: msg} }
func Internal(msg string, err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// As 取出 *Error；非 apperr 返回 nil
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// CodeOf 未分类错误视为 500
func CodeOf(err error) int {
	if ae := As(err); ae != nil {
		return ae.Code
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool     { return CodeOf(err) == http.StatusNotFound }
func IsForbidden(err error) bool    { return CodeOf(err) == http.StatusForbidden }
func IsUnauthorized(err error) bool { return CodeOf(err) == http.StatusUnauthorized }
