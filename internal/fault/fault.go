package fault

import (
	"errors"
	"fmt"
)

// Kind は Fault の分類。HTTP 層はこれでステータスコードを決める。
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindExpired
	KindQuotaExceeded
	KindNoData
	KindRenderFailure
	KindUnauthorized
	KindInvalidToken
)

var (
	ErrNotFound      = &Fault{Kind: KindNotFound, Message: "resource not found"}
	ErrExpired       = &Fault{Kind: KindExpired, Message: "link expired"}
	ErrQuotaExceeded = &Fault{Kind: KindQuotaExceeded, Message: "submission limit reached"}
	ErrNoData        = &Fault{Kind: KindNoData, Message: "no submissions found"}
)

type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap は errors.Is / errors.As 用。
func (e *Fault) Unwrap() error {
	return e.Err
}

// Is は同じ種類の Fault すべてに一致する。ラップされた fault もパッケージの番兵と等しく扱われる。
func (e *Fault) Is(target error) bool {
	var other *Fault
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "Internal"
	case KindInvalid:
		return "Invalid"
	case KindNotFound:
		return "NotFound"
	case KindExpired:
		return "Expired"
	case KindQuotaExceeded:
		return "QuotaExceeded"
	case KindNoData:
		return "NoData"
	case KindRenderFailure:
		return "RenderFailure"
	case KindUnauthorized:
		return "Unauthorized"
	case KindInvalidToken:
		return "InvalidToken"
	default:
		return "Unknown"
	}
}

// New は指定した種類の fault を作る。
func New(kind Kind, msg string, err error) error {
	return &Fault{Kind: kind, Message: msg, Err: err}
}

// NotFound はイベントや回答が存在しないことを表す。
func NotFound(msg string) error {
	return &Fault{Kind: KindNotFound, Message: msg}
}

// Invalid はクライアント入力の不備を表す。
func Invalid(msg string) error {
	return &Fault{Kind: KindInvalid, Message: msg}
}

// Invalidf は書式付きの Invalid。
func Invalidf(format string, args ...any) error {
	return &Fault{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

// Internal はストアや実行時の障害を包む。
func Internal(msg string, err error) error {
	return &Fault{Kind: KindInternal, Message: msg, Err: err}
}

// RenderFailure はエンコーダーの障害を包む。
func RenderFailure(msg string, err error) error {
	return &Fault{Kind: KindRenderFailure, Message: msg, Err: err}
}

// KindOf は err のチェーンで最初に見つかった Fault の種類を返す。fault でなければ Internal。
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindInternal
}

// MessageOf はクライアントへ返すメッセージを返す。
func MessageOf(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Message
	}
	return "internal server error"
}
