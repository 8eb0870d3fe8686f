package http

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"grove/internal/cart"
)

const (
	sessionUserID = "uid"
	sessionCart   = "cart" // JSON, see cart.Encode
)

func sessionUID(c *gin.Context) (uint, bool) {
	id, ok := sessions.Default(c).Get(sessionUserID).(uint)
	return id, ok && id != 0
}

func signIn(c *gin.Context, userID uint) error {
	sess := sessions.Default(c)
	sess.Set(sessionUserID, userID)
	return sess.Save()
}

// signOut forgets the user; the cart stays in the session.
func signOut(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Delete(sessionUserID)
	return sess.Save()
}

func getCart(c *gin.Context) cart.Cart {
	raw, _ := sessions.Default(c).Get(sessionCart).(string)
	return cart.Decode(raw)
}

func saveCart(c *gin.Context, ct cart.Cart) error {
	sess := sessions.Default(c)
	if len(ct) == 0 {
		sess.Delete(sessionCart)
	} else {
		sess.Set(sessionCart, ct.Encode())
	}
	return sess.Save()
}
