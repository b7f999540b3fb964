package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// WalletKey 当前连接的钱包地址在 gin.Context 中的 key
	WalletKey = "wallet"

	sessionWalletKey = "wallet_address"
)

// LoadWallet retrieves the connected wallet from the session and sets it on the context.
func LoadWallet() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if wallet, ok := session.Get(sessionWalletKey).(string); ok && wallet != "" {
			c.Set(WalletKey, wallet)
		}
		c.Next()
	}
}

// WalletRequired rejects requests without a connected wallet.
func WalletRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentWallet(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Connect a wallet first",
			})
			return
		}
		c.Next()
	}
}

// CurrentWallet returns the session wallet, or "" when none is connected.
func CurrentWallet(c *gin.Context) string {
	return c.GetString(WalletKey)
}

// ConnectWallet stores wallet in the session. The address is taken as an
// already authenticated principal.
func ConnectWallet(c *gin.Context, wallet string) error {
	wallet = strings.TrimSpace(wallet)
	session := sessions.Default(c)
	session.Set(sessionWalletKey, wallet)
	if err := session.Save(); err != nil {
		return err
	}
	c.Set(WalletKey, wallet)
	return nil
}

func DisconnectWallet(c *gin.Context) error {
	session := sessions.Default(c)
	session.Delete(sessionWalletKey)
	if err := session.Save(); err != nil {
		return err
	}
	c.Set(WalletKey, "")
	return nil
}
