package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fupan-admin/internal/constants"
	"github.com/fupan-admin/internal/http/response"
	"github.com/fupan-admin/internal/models"
	"github.com/fupan-admin/internal/provider"
	"github.com/fupan-admin/internal/repository"
	"github.com/fupan-admin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupExchangeCodeHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:exchange_code_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.ExchangeCode{},
		&models.CoinTransaction{},
		&models.AdminAuditLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	codeRepo := repository.NewExchangeCodeRepository(db)
	userRepo := repository.NewUserRepository(db)
	txnRepo := repository.NewCoinTransactionRepository(db)
	auditRepo := repository.NewAdminAuditLogRepository(db)

	h := &Handler{Container: &provider.Container{
		ExchangeCodeRepo:    codeRepo,
		UserRepo:            userRepo,
		CoinTxnRepo:         txnRepo,
		AuditLogRepo:        auditRepo,
		ExchangeCodeService: service.NewExchangeCodeService(codeRepo, userRepo, txnRepo, 0),
		AuditService:        service.NewAuditService(auditRepo, nil),
	}}
	return h, db
}

func newAdminTestContext(t *testing.T, method, url string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	c.Request = httptest.NewRequest(method, url, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	c.Set("admin_id", uint(1))
	c.Set("username", "ops")
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, map[string]interface{}) {
	t.Helper()
	var resp struct {
		StatusCode int                    `json:"status_code"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode, resp.Data
}

func TestGenerateExchangeCodesEndpoint(t *testing.T) {
	h, db := setupExchangeCodeHandlerTest(t)

	c, w := newAdminTestContext(t, http.MethodPost, "/admin/exchange-codes",
		`{"face_value":30,"quantity":5}`)
	h.GenerateExchangeCodes(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	statusCode, data := decodeEnvelope(t, w)
	if statusCode != 0 {
		t.Fatalf("status_code want 0 got %d", statusCode)
	}
	batchNo, _ := data["batch_no"].(string)
	if batchNo == "" {
		t.Fatal("batch_no missing")
	}
	codes, _ := data["codes"].([]interface{})
	if len(codes) != 5 {
		t.Fatalf("codes want 5 got %d", len(codes))
	}

	var persisted int64
	if err := db.Model(&models.ExchangeCode{}).Where("batch_no = ?", batchNo).Count(&persisted).Error; err != nil {
		t.Fatalf("count persisted failed: %v", err)
	}
	if persisted != 5 {
		t.Fatalf("persisted want 5 got %d", persisted)
	}

	// 队列未启用时审计同步落库
	var auditCount int64
	if err := db.Model(&models.AdminAuditLog{}).Where("action = ?", constants.AuditActionGenerateCodes).Count(&auditCount).Error; err != nil {
		t.Fatalf("count audit failed: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("audit rows want 1 got %d", auditCount)
	}
}

func TestGenerateExchangeCodesRejectsInvalidInput(t *testing.T) {
	h, _ := setupExchangeCodeHandlerTest(t)

	c, w := newAdminTestContext(t, http.MethodPost, "/admin/exchange-codes",
		`{"face_value":0,"quantity":5}`)
	h.GenerateExchangeCodes(c)

	statusCode, _ := decodeEnvelope(t, w)
	if statusCode != response.CodeBadRequest {
		t.Fatalf("status_code want %d got %d", response.CodeBadRequest, statusCode)
	}

	c, w = newAdminTestContext(t, http.MethodPost, "/admin/exchange-codes",
		`{"face_value":10,"quantity":1001}`)
	h.GenerateExchangeCodes(c)

	statusCode, _ = decodeEnvelope(t, w)
	if statusCode != response.CodeBadRequest {
		t.Fatalf("over-limit quantity status_code want %d got %d", response.CodeBadRequest, statusCode)
	}
}

func TestDeleteExchangeCodeBatchEndpoint(t *testing.T) {
	h, db := setupExchangeCodeHandlerTest(t)

	user := models.User{Email: "handler@example.com", Nickname: "h", Status: constants.UserStatusActive}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	now := time.Now()
	codes := []models.ExchangeCode{
		{Code: "FPCHDL000001", BatchNo: "FPHDL", FaceValue: 10, Status: constants.ExchangeCodeStatusUnused},
		{Code: "FPCHDL000002", BatchNo: "FPHDL", FaceValue: 10, Status: constants.ExchangeCodeStatusUnused},
		{Code: "FPCHDL000003", BatchNo: "FPHDL", FaceValue: 10, Status: constants.ExchangeCodeStatusUsed, UsedByUserID: &user.ID, UsedAt: &now},
	}
	if err := db.Create(&codes).Error; err != nil {
		t.Fatalf("seed codes failed: %v", err)
	}

	c, w := newAdminTestContext(t, http.MethodDelete, "/admin/exchange-codes/batches/FPHDL", "")
	c.Params = gin.Params{{Key: "batch_no", Value: "FPHDL"}}
	h.DeleteExchangeCodeBatch(c)

	statusCode, data := decodeEnvelope(t, w)
	if statusCode != 0 {
		t.Fatalf("status_code want 0 got %d", statusCode)
	}
	if deleted, _ := data["deleted_count"].(float64); deleted != 2 {
		t.Fatalf("deleted_count want 2 got %v", data["deleted_count"])
	}
	if remaining, _ := data["remaining_count"].(float64); remaining != 1 {
		t.Fatalf("remaining_count want 1 got %v", data["remaining_count"])
	}

	c, w = newAdminTestContext(t, http.MethodDelete, "/admin/exchange-codes/batches/FPNOSUCH", "")
	c.Params = gin.Params{{Key: "batch_no", Value: "FPNOSUCH"}}
	h.DeleteExchangeCodeBatch(c)

	statusCode, _ = decodeEnvelope(t, w)
	if statusCode != response.CodeNotFound {
		t.Fatalf("unknown batch status_code want %d got %d", response.CodeNotFound, statusCode)
	}
}

func TestRedeemExchangeCodeEndpoint(t *testing.T) {
	h, db := setupExchangeCodeHandlerTest(t)

	user := models.User{Email: "redeemer@example.com", Nickname: "r", Coins: 5, Status: constants.UserStatusActive}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	code := models.ExchangeCode{Code: "FPCHDLREDEEM1", BatchNo: "FPHDLR", FaceValue: 20, Status: constants.ExchangeCodeStatusUnused}
	if err := db.Create(&code).Error; err != nil {
		t.Fatalf("seed code failed: %v", err)
	}

	body := fmt.Sprintf(`{"code":"FPCHDLREDEEM1","user_id":%d}`, user.ID)
	c, w := newAdminTestContext(t, http.MethodPost, "/admin/exchange-codes/redeem", body)
	h.RedeemExchangeCode(c)

	statusCode, data := decodeEnvelope(t, w)
	if statusCode != 0 {
		t.Fatalf("status_code want 0 got %d", statusCode)
	}
	if balance, _ := data["balance_after"].(float64); balance != 25 {
		t.Fatalf("balance_after want 25 got %v", data["balance_after"])
	}

	c, w = newAdminTestContext(t, http.MethodPost, "/admin/exchange-codes/redeem", body)
	h.RedeemExchangeCode(c)

	statusCode, _ = decodeEnvelope(t, w)
	if statusCode != response.CodeConflict {
		t.Fatalf("reuse status_code want %d got %d", response.CodeConflict, statusCode)
	}
}

func TestGetExchangeCodesMarksExpiredItems(t *testing.T) {
	h, db := setupExchangeCodeHandlerTest(t)

	past := time.Now().Add(-time.Hour)
	codes := []models.ExchangeCode{
		{Code: "FPCHDLEXP001", BatchNo: "FPHDLE", FaceValue: 10, Status: constants.ExchangeCodeStatusUnused, ExpiresAt: &past},
		{Code: "FPCHDLEXP002", BatchNo: "FPHDLE", FaceValue: 10, Status: constants.ExchangeCodeStatusUnused},
	}
	if err := db.Create(&codes).Error; err != nil {
		t.Fatalf("seed codes failed: %v", err)
	}

	c, w := newAdminTestContext(t, http.MethodGet, "/admin/exchange-codes?batch_no=FPHDLE", "")
	h.GetExchangeCodes(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
		Data       []struct {
			Code      string `json:"code"`
			Status    string `json:"status"`
			IsExpired bool   `json:"is_expired"`
		} `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 || resp.Pagination.Total != 2 {
		t.Fatalf("want status 0 total 2 got %d %d", resp.StatusCode, resp.Pagination.Total)
	}
	byCode := map[string]struct {
		Status    string
		IsExpired bool
	}{}
	for _, item := range resp.Data {
		byCode[item.Code] = struct {
			Status    string
			IsExpired bool
		}{item.Status, item.IsExpired}
	}
	if got := byCode["FPCHDLEXP001"]; got.Status != constants.ExchangeCodeStatusExpired || !got.IsExpired {
		t.Fatalf("expired item want expired/true got %+v", got)
	}
	if got := byCode["FPCHDLEXP002"]; got.Status != constants.ExchangeCodeStatusUnused || got.IsExpired {
		t.Fatalf("live item want unused/false got %+v", got)
	}
}
