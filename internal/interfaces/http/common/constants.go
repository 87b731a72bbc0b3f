package common

import "time"

const (
	// MaxRequestBody は JSON リクエストボディの上限。
	MaxRequestBody = 1 << 20
	// RequestTimeout はリクエスト処理中のストア呼び出しの上限時間。
	RequestTimeout = 5 * time.Second
	// ExportTimeout はエクスポート時の読み込みと集計の上限時間。
	ExportTimeout = 30 * time.Second
)
