package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrCredentials は API キーの欠落・無効・権限不足を表します。リトライしません。
	ErrCredentials = errors.New("gemini: 認証情報が無効です")
	// ErrNoImage は応答にインライン画像が含まれていなかったことを表します。
	ErrNoImage = errors.New("gemini: 応答に画像が含まれていません")
)

var credentialMarkers = []string{
	"requested entity was not found",
	"api_key_invalid",
	"api key not valid",
	"permission denied",
	"permission_denied",
}

// IsCredentialError は err が認証情報の問題によるものかを判定します。
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCredentials) {
		return true
	}
	if code, ok := apiErrorCode(err); ok && (code == http.StatusUnauthorized || code == http.StatusForbidden) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range credentialMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// classify は認証系のエラーに ErrCredentials を付与します。
func classify(err error) error {
	if err == nil || errors.Is(err, ErrCredentials) {
		return err
	}
	if IsCredentialError(err) {
		return fmt.Errorf("%w: %w", ErrCredentials, err)
	}
	return err
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
