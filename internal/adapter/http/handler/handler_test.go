package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bedrock-relay/internal/core/domain"
	"bedrock-relay/internal/core/ports"
	"bedrock-relay/internal/core/ports/mocks"
	"bedrock-relay/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- Webhook Handler Tests ---

func TestThirdweb_PassesHeadersAndRawBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockSvc)

	raw := []byte(`{"data": {"buyWithCryptoStatus": {}}}`)
	amount := 5.0
	mockSvc.EXPECT().Process(gomock.Any(), ports.WebhookInput{
		Signature: "abc123",
		Timestamp: "1700000000",
		RawBody:   raw,
	}).Return(&domain.WebhookResult{
		Status:          domain.WebhookOutcomeSuccess,
		TransactionHash: "0xdest",
		Address:         testAddress,
		Amount:          &amount,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhooks/thirdweb", bytes.NewReader(raw))
	c.Request.Header.Set(HeaderPaySignature, "abc123")
	c.Request.Header.Set(HeaderPayTimestamp, "1700000000")

	h.Thirdweb(c)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "0xdest", body["transaction_hash"])
	assert.Equal(t, testAddress, body["address"])
	assert.Equal(t, 5.0, body["amount"])

	_, marked := c.Get("audit_resource")
	assert.True(t, marked)
}

func TestThirdweb_IgnoredIsNotAudited(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockSvc)

	mockSvc.EXPECT().Process(gomock.Any(), gomock.Any()).Return(domain.Ignored(domain.ReasonNoDestination), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhooks/thirdweb", strings.NewReader(`{}`))

	h.Thirdweb(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"status": "ignored", "reason": "No destination"}, decodeBody(t, w))
	_, marked := c.Get("audit_resource")
	assert.False(t, marked)
}

func TestThirdweb_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"bad signature", apperror.ErrInvalidSignature(), http.StatusUnauthorized, "WH_006"},
		{"unsupported", apperror.ErrUnsupportedWebhook(), http.StatusBadRequest, "WH_010"},
		{"processing", apperror.ErrWebhookProcessing(errors.New("aleph down")), http.StatusInternalServerError, "WH_020"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockSvc := mocks.NewMockWebhookService(ctrl)
			mockSvc.EXPECT().Process(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/webhooks/thirdweb", strings.NewReader(`{}`))

			NewWebhookHandler(mockSvc).Thirdweb(c)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, decodeBody(t, w)["error_code"])
		})
	}
}

func TestThirdweb_BodyTooLarge(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockWebhookService(ctrl)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/webhooks/thirdweb", strings.NewReader(strings.Repeat("x", 64)))
	c.Request.Body = http.MaxBytesReader(w, c.Request.Body, 16)

	NewWebhookHandler(mockSvc).Thirdweb(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

// --- Credit Handler Tests ---

func TestGetCredits_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockCreditService(ctrl)
	mockSvc.EXPECT().GetCredits(gomock.Any(), strings.ToLower(testAddress)).
		Return(&domain.CreditBalance{Address: testAddress, Balance: 12.5}, nil)

	r := gin.New()
	r.GET("/credits/:address", NewCreditHandler(mockSvc).GetCredits)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credits/"+strings.ToLower(testAddress), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"address": testAddress, "balance": 12.5}, decodeBody(t, w))
}

func TestGetCredits_InvalidAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockCreditService(ctrl)
	mockSvc.EXPECT().GetCredits(gomock.Any(), "nope").
		Return(nil, apperror.ErrGettingCredits(domain.ErrInvalidAddress))

	r := gin.New()
	r.GET("/credits/:address", NewCreditHandler(mockSvc).GetCredits)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credits/nope", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "CREDIT_001", decodeBody(t, w)["error_code"])
}

func TestAddCredits_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockCreditService(ctrl)
	mockSvc.EXPECT().AddCreditsDirect(gomock.Any(), testAddress, -2.5).
		Return(&domain.CreditAdjustment{Address: testAddress, AmountAdded: -2.5, NewBalance: 7.5}, nil)

	r := gin.New()
	r.POST("/credits/:address/add", NewCreditHandler(mockSvc).AddCredits)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/credits/"+testAddress+"/add?amount=-2.5", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{
		"address":      testAddress,
		"amount_added": -2.5,
		"new_balance":  7.5,
	}, decodeBody(t, w))
}

func TestAddCredits_InvalidAmount(t *testing.T) {
	for _, query := range []string{"", "?amount=", "?amount=ten", "?amount=NaN", "?amount=Inf"} {
		t.Run(query, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockSvc := mocks.NewMockCreditService(ctrl)

			r := gin.New()
			r.POST("/credits/:address/add", NewCreditHandler(mockSvc).AddCredits)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/credits/"+testAddress+"/add"+query, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "CREDIT_003", decodeBody(t, w)["error_code"])
		})
	}
}

// --- Name Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockNameService(ctrl)
	mockSvc.EXPECT().Register(gomock.Any(), "alice", testAddress).
		Return(&domain.Registration{TxHash: "0xtx"}, nil)

	r := gin.New()
	r.POST("/register", NewNameHandler(mockSvc).Register)

	body := `{"username":"alice","address":"` + testAddress + `"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"tx_hash": "0xtx"}, decodeBody(t, w))
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockNameService(ctrl)

	r := gin.New()
	r.POST("/register", NewNameHandler(mockSvc).Register)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"username":"alice","address":"0x12"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "SYS_002", body["error_code"])
	assert.Equal(t, "address must be a 0x-prefixed hex address", body["detail"])
}

func TestRegister_ChainError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockNameService(ctrl)
	mockSvc.EXPECT().Register(gomock.Any(), "alice", testAddress).
		Return(nil, apperror.ErrChainCall(errors.New("nonce too low")))

	r := gin.New()
	r.POST("/register", NewNameHandler(mockSvc).Register)

	body := `{"username":"alice","address":"` + testAddress + `"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "nonce too low", decodeBody(t, w)["detail"])
}

func TestNameLookups(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockNameService(ctrl)
	h := NewNameHandler(mockSvc)

	r := gin.New()
	r.GET("/username/:address", h.Username)
	r.GET("/available", h.Available)
	r.GET("/resolve/:username", h.Resolve)
	r.GET("/avatar/:username", h.Avatar)

	mockSvc.EXPECT().Username(gomock.Any(), testAddress).Return(&domain.UsernameRecord{Username: "alice"}, nil)
	mockSvc.EXPECT().Available(gomock.Any(), "bob").Return(&domain.Availability{Username: "bob", Available: true}, nil)
	mockSvc.EXPECT().Resolve(gomock.Any(), "alice").Return(&domain.Resolution{Username: "alice", Address: testAddress}, nil)
	mockSvc.EXPECT().Resolve(gomock.Any(), "ghost").Return(nil, apperror.ErrNameNotFound("ghost.bedrock.eth"))
	mockSvc.EXPECT().Avatar(gomock.Any(), "alice").Return(&domain.AvatarRecord{Username: "alice", Avatar: "ipfs://bafy"}, nil)

	tests := []struct {
		path     string
		wantCode int
		want     map[string]interface{}
	}{
		{"/username/" + testAddress, http.StatusOK, map[string]interface{}{"username": "alice"}},
		{"/available?username=bob", http.StatusOK, map[string]interface{}{"username": "bob", "available": true}},
		{"/resolve/alice", http.StatusOK, map[string]interface{}{"username": "alice", "address": testAddress}},
		{"/avatar/alice", http.StatusOK, map[string]interface{}{"username": "alice", "avatar": "ipfs://bafy"}},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.wantCode, w.Code, tt.path)
		assert.Equal(t, tt.want, decodeBody(t, w), tt.path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resolve/ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NAME_002", decodeBody(t, w)["error_code"])
}

func TestAvailable_MissingUsername(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockNameService(ctrl)

	r := gin.New()
	r.GET("/available", NewNameHandler(mockSvc).Available)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/available", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NAME_001", decodeBody(t, w)["error_code"])
}

func multipartAvatar(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSetAvatar_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockNameService(ctrl)
	data := []byte("\x89PNG\r\n\x1a\nfake")

	mockSvc.EXPECT().SetAvatar(gomock.Any(), "alice", data, "application/octet-stream").
		Return(&domain.AvatarUpdate{CID: "bafy", URI: "ipfs://bafy", TxHash: "0xtx"}, nil)

	r := gin.New()
	r.PUT("/avatar/:username", NewNameHandler(mockSvc).SetAvatar)

	body, contentType := multipartAvatar(t, "file", data)
	req := httptest.NewRequest(http.MethodPut, "/avatar/alice", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"cid": "bafy", "uri": "ipfs://bafy", "tx_hash": "0xtx"}, decodeBody(t, w))
}

func TestSetAvatar_MissingFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockNameService(ctrl)

	r := gin.New()
	r.PUT("/avatar/:username", NewNameHandler(mockSvc).SetAvatar)

	body, contentType := multipartAvatar(t, "image", []byte("x"))
	req := httptest.NewRequest(http.MethodPut, "/avatar/alice", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file is required", decodeBody(t, w)["detail"])
}

func TestSetAvatar_PinningFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockNameService(ctrl)
	mockSvc.EXPECT().SetAvatar(gomock.Any(), "alice", gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrPinning(errors.New("gateway timeout")))

	r := gin.New()
	r.PUT("/avatar/:username", NewNameHandler(mockSvc).SetAvatar)

	body, contentType := multipartAvatar(t, "file", []byte("x"))
	req := httptest.NewRequest(http.MethodPut, "/avatar/alice", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "IPFS_001", decodeBody(t, w)["error_code"])
}

// --- Health Check Tests ---

func TestHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockHealthChecker(ctrl)
	down := mocks.NewMockHealthChecker(ctrl)
	up.EXPECT().Ping(gomock.Any()).Return(nil).AnyTimes()
	up.EXPECT().Name().Return("aleph").AnyTimes()
	down.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused")).AnyTimes()
	down.EXPECT().Name().Return("redis").AnyTimes()

	t.Run("healthy", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", HealthCheck(up))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", decodeBody(t, w)["status"])
	})

	t.Run("degraded", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", HealthCheck(up, down))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "degraded", body["status"])
		deps := body["dependencies"].(map[string]interface{})
		assert.Equal(t, "unhealthy", deps["redis"].(map[string]interface{})["status"])
		assert.Equal(t, "connection refused", deps["redis"].(map[string]interface{})["error"])
	})
}
