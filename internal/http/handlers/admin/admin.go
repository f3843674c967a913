package admin

import (
	"errors"
	"time"

	"github.com/fupan-admin/internal/constants"
	"github.com/fupan-admin/internal/http/response"
	"github.com/fupan-admin/internal/service"

	"github.com/gin-gonic/gin"
)

type adminLoginRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

type adminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AdminID   uint      `json:"admin_id"`
	Username  string    `json:"username"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AdminLogin 管理员登录
// 用户名不存在和密码错误统一返回同一提示，避免暴露账号是否存在。
func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if h.CaptchaService != nil && h.CaptchaService.Enabled() {
		if err := h.CaptchaService.Verify(req.CaptchaID, req.CaptchaCode); err != nil {
			respondError(c, response.CodeBadRequest, "验证码错误或已过期", nil)
			return
		}
	}

	admin, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			requestLog(c).Infow("admin_login_rejected",
				"username", req.Username,
				"client_ip", c.ClientIP(),
			)
			respondError(c, response.CodeUnauthorized, service.ErrInvalidCredentials.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "登录失败，请稍后重试", err)
		return
	}

	h.AuditService.Record(service.AuditRecordInput{
		AdminID:     admin.ID,
		Username:    admin.Username,
		Action:      constants.AuditActionLogin,
		TargetTable: "admins",
		TargetID:    &admin.ID,
		Description: "管理员登录，来源 IP " + c.ClientIP(),
		RequestID:   getRequestID(c),
	})

	response.Success(c, adminLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		AdminID:   admin.ID,
		Username:  admin.Username,
	})
}

// AdminLogout 管理员登出，令已签发的 token 全部失效
func (h *Handler) AdminLogout(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	if err := h.AuthService.Logout(adminID); err != nil {
		respondError(c, response.CodeInternal, "登出失败，请稍后重试", err)
		return
	}

	h.AuditService.Record(service.AuditRecordInput{
		AdminID:     adminID,
		Username:    getAdminUsername(c),
		Action:      constants.AuditActionLogout,
		TargetTable: "admins",
		TargetID:    &adminID,
		Description: "管理员登出",
		RequestID:   getRequestID(c),
	})

	response.SuccessWithMsg(c, "已退出登录", nil)
}

// UpdateAdminPassword 修改当前管理员密码，成功后旧 token 立即失效
func (h *Handler) UpdateAdminPassword(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if err := h.AuthService.ChangePassword(adminID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPassword):
			respondError(c, response.CodeBadRequest, "原密码错误", nil)
		case service.IsPasswordPolicyError(err):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "密码修改失败，请稍后重试", err)
		}
		return
	}

	h.AuditService.Record(service.AuditRecordInput{
		AdminID:     adminID,
		Username:    getAdminUsername(c),
		Action:      constants.AuditActionChangePassword,
		TargetTable: "admins",
		TargetID:    &adminID,
		Description: "管理员修改登录密码",
		RequestID:   getRequestID(c),
	})

	response.SuccessWithMsg(c, "密码修改成功，请重新登录", nil)
}

// GetImageCaptcha 获取登录图形验证码
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	if h.CaptchaService == nil || !h.CaptchaService.Enabled() {
		response.Success(c, gin.H{"enabled": false})
		return
	}

	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondError(c, response.CodeInternal, "验证码生成失败，请稍后重试", err)
		return
	}

	response.Success(c, gin.H{
		"enabled":      true,
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}
