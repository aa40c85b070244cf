package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"private-ledger-indexer/internal/adapter/http/dto"
	"private-ledger-indexer/internal/adapter/http/middleware"
	"private-ledger-indexer/internal/core/domain"
	"private-ledger-indexer/internal/core/ports"
	"private-ledger-indexer/internal/core/ports/mocks"
	"private-ledger-indexer/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	clientID := uuid.New()
	mockAuth.EXPECT().Register(gomock.Any(), ports.RegisterRequest{
		Name: "test-client",
	}).Return(&ports.RegisterResponse{
		ClientID:  clientID,
		AccessKey: "ak_test",
		Secret:    "s3cret",
	}, nil)

	body, _ := json.Marshal(dto.RegisterRequest{Name: "test-client"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, clientID.String(), data["client_id"])
	assert.Equal(t, "ak_test", data["access_key"])
	assert.Equal(t, "s3cret", data["secret"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	// Empty body => binding error
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrClientNameExists())

	body, _ := json.Marshal(dto.RegisterRequest{Name: "taken-name"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestToken_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "ak_test", "s3cret").Return("jwt-token-123", expiry, nil)

	body, _ := json.Marshal(dto.TokenRequest{AccessKey: "ak_test", Secret: "s3cret"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Token(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "jwt-token-123", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestToken_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), "ak_test", "wrong").
		Return("", time.Time{}, apperror.ErrInvalidCredentials())

	body, _ := json.Marshal(dto.TokenRequest{AccessKey: "ak_test", Secret: "wrong"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Token(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Hook Handler Tests ---

func TestLedgerEvent_SchedulesRebuild(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	scheduler := mocks.NewMockReloadScheduler(ctrl)
	scheduler.EXPECT().Trigger()

	h := NewHookHandler(scheduler, zerolog.Nop())

	body, _ := json.Marshal(dto.LedgerEventRequest{Slot: 42})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/hooks/ledger", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.LedgerEvent(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"scheduled":true`)
}

func TestLedgerEvent_MalformedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	scheduler := mocks.NewMockReloadScheduler(ctrl) // Trigger must not be called

	h := NewHookHandler(scheduler, zerolog.Nop())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/hooks/ledger", bytes.NewReader([]byte("not json")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.LedgerEvent(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Record Handler Tests ---

func TestRecordList_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	indexSvc := mocks.NewMockIndexService(ctrl)
	scheduler := mocks.NewMockReloadScheduler(ctrl)
	h := NewRecordHandler(indexSvc, scheduler)

	clientID := uuid.New()
	views := []ports.RecordView{
		{LedgerRecord: domain.LedgerRecord{
			Commitment: "c1",
			LeafIndex:  3,
			AssetID:    "SOL",
			Envelope:   []byte("envelope"),
			CreatedAt:  time.Now().UTC(),
		}},
	}
	indexSvc.EXPECT().Records(gomock.Any(), clientID, false).Return(views, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	c.Set(middleware.CtxClientID, clientID)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
}

func TestRecordList_DecryptQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	indexSvc := mocks.NewMockIndexService(ctrl)
	scheduler := mocks.NewMockReloadScheduler(ctrl)
	h := NewRecordHandler(indexSvc, scheduler)

	clientID := uuid.New()
	decoded := domain.PrivateRecord{Amount: "1000", Blinding: "7", Index: 3, AssetID: "SOL"}
	views := []ports.RecordView{
		{
			LedgerRecord: domain.LedgerRecord{Commitment: "c1", LeafIndex: 3, AssetID: "SOL", CreatedAt: time.Now().UTC()},
			Decrypted:    &decoded,
		},
	}
	indexSvc.EXPECT().Records(gomock.Any(), clientID, true).Return(views, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/records?decrypt=true", nil)
	c.Set(middleware.CtxClientID, clientID)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"amount":"1000"`)
}

func TestRecordList_MissingAuthContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewRecordHandler(mocks.NewMockIndexService(ctrl), mocks.NewMockReloadScheduler(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)

	h.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecordSubmit_SchedulesRebuildAfterInsert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	indexSvc := mocks.NewMockIndexService(ctrl)
	scheduler := mocks.NewMockReloadScheduler(ctrl)
	h := NewRecordHandler(indexSvc, scheduler)

	ownerID := uuid.New()
	stored := &domain.LedgerRecord{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Commitment: "c-new",
		LeafIndex:  8,
		AssetID:    "SOL",
		Envelope:   []byte("envelope"),
		CreatedAt:  time.Now().UTC(),
	}

	gomock.InOrder(
		indexSvc.EXPECT().Submit(gomock.Any(), ports.SubmitRecordInput{
			OwnerID:    ownerID,
			Commitment: "c-new",
			LeafIndex:  8,
			Record:     domain.PrivateRecord{Amount: "500", Blinding: "11", Index: 8, AssetID: "SOL"},
		}).Return(stored, nil),
		scheduler.EXPECT().Trigger(),
	)

	body, _ := json.Marshal(dto.SubmitRecordRequest{
		OwnerID:    ownerID.String(),
		Commitment: "c-new",
		LeafIndex:  8,
		Amount:     "500",
		Blinding:   "11",
		AssetID:    "SOL",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/records", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Submit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"commitment":"c-new"`)
}

func TestRecordSubmit_DuplicateCommitment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	indexSvc := mocks.NewMockIndexService(ctrl)
	scheduler := mocks.NewMockReloadScheduler(ctrl) // no Trigger on failure
	h := NewRecordHandler(indexSvc, scheduler)

	indexSvc.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrDuplicateCommitment())

	body, _ := json.Marshal(dto.SubmitRecordRequest{
		OwnerID:    uuid.New().String(),
		Commitment: "dup",
		Amount:     "500",
		Blinding:   "11",
		AssetID:    "SOL",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/records", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Submit(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
