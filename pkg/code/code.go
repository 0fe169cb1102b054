package code

import (
	"fmt"
	"strings"
)

// Code is a coded, bilingual error value.
// Code 带错误码的双语错误值
type Code struct {
	// 错误码
	code int
	// 是否为成功码
	status bool
	// 消息文本
	Lang lang
	// 错误详细信息
	details []string
	// 附带数据
	data interface{}
	// 原始错误
	cause error
}

var codes = map[int]string{}

// NewError registers an error code. Registering the same code twice panics.
// NewError 注册错误码，重复注册会 panic
func NewError(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.GetMessage()

	return &Code{code: code, status: false, Lang: l}
}

var sussCodes = map[int]string{}

// NewSuss registers a success code.
// NewSuss 注册成功码
func NewSuss(code int, l lang) *Code {
	if _, ok := sussCodes[code]; ok {
		panic(fmt.Sprintf("成功码 %d 已经存在，请更换一个", code))
	}
	sussCodes[code] = l.GetMessage()

	return &Code{code: code, status: true, Lang: l}
}

// Clone returns a copy without details, data or cause, so package level
// codes are never mutated.
// Clone 返回一个不带详情的副本，避免修改包级变量
func (e *Code) Clone() *Code {
	return &Code{
		code:   e.code,
		status: e.status,
		Lang:   e.Lang,
	}
}

func (e *Code) Error() string {
	if len(e.details) == 0 {
		return e.Msg()
	}
	return e.Msg() + ": " + strings.Join(e.details, "; ")
}

// Is reports whether target carries the same code, so cloned values still
// match their registered code under errors.Is.
func (e *Code) Is(target error) bool {
	t, ok := target.(*Code)
	if !ok {
		return false
	}
	return t.code == e.code && t.status == e.status
}

// Unwrap returns the error attached with WithCause.
func (e *Code) Unwrap() error {
	return e.cause
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) HaveDetails() bool {
	return len(e.details) > 0
}

func (e *Code) WithData(data interface{}) *Code {
	e.data = data
	return e
}

func (e *Code) WithDetails(details ...string) *Code {
	e.details = append([]string{}, details...)
	return e
}

// WithCause attaches the underlying error and records its text as a detail.
// WithCause 附加原始错误，并将其文本记录为详情
func (e *Code) WithCause(err error) *Code {
	if err == nil {
		return e
	}
	e.cause = err
	e.details = append(e.details, err.Error())
	return e
}
