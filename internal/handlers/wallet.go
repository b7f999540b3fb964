package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"suarawarga/internal/middleware"
)

// WalletHandler 管理会话中的钱包连接，不校验签名
type WalletHandler struct{}

func NewWalletHandler() *WalletHandler {
	return &WalletHandler{}
}

// Connect POST /api/wallet/connect
func (h *WalletHandler) Connect(c *gin.Context) {
	var req walletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	wallet := strings.TrimSpace(req.WalletAddress)
	if wallet == "" {
		badRequest(c, "Missing required fields: walletAddress")
		return
	}

	if err := middleware.ConnectWallet(c, wallet); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"walletAddress": wallet})
}

// Disconnect POST /api/wallet/disconnect
func (h *WalletHandler) Disconnect(c *gin.Context) {
	if err := middleware.DisconnectWallet(c); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Current GET /api/wallet
func (h *WalletHandler) Current(c *gin.Context) {
	wallet := middleware.CurrentWallet(c)
	ok(c, gin.H{
		"connected":     wallet != "",
		"walletAddress": wallet,
	})
}
