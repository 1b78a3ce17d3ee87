package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error codes surfaced to clients. Text stays human-readable because the ws
// error frame carries only a message field.
var (
	ErrArgs     = NewCodeError(1001, "invalid argument")
	ErrAuth     = NewCodeError(1002, "not authenticated")
	ErrPayload  = NewCodeError(1003, "malformed payload")
	ErrDatabase = NewCodeError(2001, "database error")
	ErrInternal = NewCodeError(5000, "internal error")
)

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{
		Code:   e.Code,
		Msg:    e.Msg,
		Detail: d,
	}
}

// WrapMsg clones the sentinel and appends msg plus key/value pairs to the
// detail, so sentinels stay immutable and errors.Is keeps matching by code.
func (e *CodeError) WrapMsg(msg string, kv ...any) error {
	return e.WithDetail(toString(msg, kv))
}

func (e *CodeError) Is(err error) bool {
	var codeErr *CodeError
	if !errors.As(err, &codeErr) {
		return false
	}
	return e.Code == codeErr.Code
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)

	if e.Detail != "" {
		v = append(v, e.Detail)
	}

	return strings.Join(v, " ")
}

func New(msg string, kv ...any) error {
	return &CodeError{Code: ErrInternal.Code, Msg: toString(msg, kv)}
}

func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", toString(msg, kv), err)
}

func toString(msg string, kv []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		sb.WriteString(" ")
		sb.WriteString(fmt.Sprint(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(fmt.Sprint(kv[i+1]))
		}
	}
	return sb.String()
}
