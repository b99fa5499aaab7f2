package collector

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 抓取失败的分类
type Kind int

const (
	// KindTransport DNS / 连接 / 超时
	KindTransport Kind = iota + 1
	// KindUpstream 非 2xx 响应，或所有候选 Fetcher 都失败
	KindUpstream
	// KindParse 响应内容不符合预期结构
	KindParse
	// KindUnsupported 声明了类型但没有对应的 Fetcher
	KindUnsupported
	// KindMalformed 描述缺少必填字段
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUpstream:
		return "upstream_status"
	case KindParse:
		return "parse"
	case KindUnsupported:
		return "unsupported_source"
	case KindMalformed:
		return "malformed_descriptor"
	}
	return "unknown"
}

// FetchError 抓取失败，携带面向调用方的状态码
type FetchError struct {
	Kind   Kind
	Source string
	// Status 上游返回的 HTTP 状态码，仅 KindUpstream 时有意义
	Status int
	Msg    string
	Err    error
}

func (e *FetchError) Error() string {
	msg := e.Source + ": " + e.Msg
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusCode 返回给调用方的 HTTP 状态：上游问题 502，不支持 501，描述错误 400
func (e *FetchError) StatusCode() int {
	switch e.Kind {
	case KindUnsupported:
		return http.StatusNotImplemented
	case KindMalformed:
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// StatusCode 从任意错误中提取状态码；不是 FetchError 时按 502 处理
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode()
	}
	return http.StatusBadGateway
}

// KindOf 返回错误分类，不是 FetchError 时返回 0
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

func transportError(source string, err error) error {
	return &FetchError{Kind: KindTransport, Source: source, Msg: "request failed", Err: err}
}

func statusError(source string, status int) error {
	return &FetchError{Kind: KindUpstream, Source: source, Status: status, Msg: "unexpected status"}
}

func parseError(source, msg string, err error) error {
	return &FetchError{Kind: KindParse, Source: source, Msg: msg, Err: err}
}

func unsupportedError(source, msg string) error {
	return &FetchError{Kind: KindUnsupported, Source: source, Msg: msg}
}

func malformedError(source, msg string) error {
	return &FetchError{Kind: KindMalformed, Source: source, Msg: msg}
}

func exhaustedError(source, msg string, errs ...error) error {
	return &FetchError{Kind: KindUpstream, Source: source, Msg: msg, Err: errors.Join(errs...)}
}
