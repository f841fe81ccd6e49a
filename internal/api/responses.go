// Package api は全ハンドラー共通のレスポンス型を定義します。
package api

// ErrorResponse はエラー時の共通JSONレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse は成功メッセージのみを返すレスポンスです。
type MessageResponse struct {
	Message string `json:"message"`
}
