package response

import "net/http"

// 默认提示语；业务错误一般会带自己的 Msg
var CodeMsgMap = map[int]string{
	http.StatusOK:                    "OK",
	http.StatusCreated:               "Created",
	http.StatusBadRequest:            "Bad Request",
	http.StatusUnauthorized:          "not authenticated",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Not Found",
	http.StatusConflict:              "Conflict",
	http.StatusRequestEntityTooLarge: "request body too large",
	http.StatusTooManyRequests:       "too many requests",
	http.StatusInternalServerError:   "internal server error",
	http.StatusServiceUnavailable:    "server busy",
	http.StatusGatewayTimeout:        "timeout",
}

func MessageOf(code int) string {
	if m, ok := CodeMsgMap[code]; ok {
		return m
	}
	return http.StatusText(code)
}
