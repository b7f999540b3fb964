package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"suarawarga/internal/middleware"
	"suarawarga/internal/models"
	"suarawarga/internal/services"
)

// Render helper to inject common variables like the connected wallet
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if wallet := middleware.CurrentWallet(c); wallet != "" {
		obj["Wallet"] = wallet
	}
	obj["Categories"] = models.Categories()
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// RenderError renders the error page
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrSelfVerification),
		errors.Is(err, services.ErrDuplicateVerification),
		errors.Is(err, services.ErrAlreadyVerified):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes {success:false, error} for err. Storage details stay in the log.
func fail(c *gin.Context, err error) {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "Internal server error"
	}
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   message,
	})
}

// ok writes {success:true} merged with body.
func ok(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

// walletOr 请求体未带钱包地址时回退到会话中已连接的钱包
func walletOr(c *gin.Context, wallet string) string {
	if wallet != "" {
		return wallet
	}
	return middleware.CurrentWallet(c)
}
