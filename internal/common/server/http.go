package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse 统一的错误响应体。
// Errors 仅在业务校验失败时填充（一次性返回全部校验错误）。
type ErrorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

// JSON 写出 JSON 响应。
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// header 已发出，只能放弃这个响应
		return
	}
}

// Error 写出单条错误。
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorResponse{Error: msg})
}

// Errorf 格式化写出单条错误。
func Errorf(w http.ResponseWriter, status int, format string, args ...any) {
	Error(w, status, fmt.Sprintf(format, args...))
}

// ValidationFailed 写出业务校验失败（400 + 全部错误列表）。
func ValidationFailed(w http.ResponseWriter, errs []string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Errors: errs})
}

// Decode 解析 JSON 请求体。
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
