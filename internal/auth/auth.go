// Package auth 负责会话令牌：服务端用 HS256 JWT 识别用户，缺失或无效令牌视为未登录。
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer     = "contract-agent"
	CookieName = "session"
	DefaultTTL = 30 * 24 * time.Hour
)

var ErrNoSecret = errors.New("auth: signing secret not configured")

// User 是已登录的会话用户。
type User struct {
	ID string `json:"id"`
}

type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(strings.TrimSpace(secret)), now: time.Now}
}

// Enabled 报告是否配置了签名密钥；未配置时所有请求都是匿名的。
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.secret) > 0
}

// Mint 为 userID 签发令牌，ttl<=0 时使用 DefaultTTL。
func (a *Authenticator) Mint(userID string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", ErrNoSecret
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("auth: empty user id")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse 校验令牌并返回用户。
func (a *Authenticator) Parse(raw string) (*User, error) {
	if !a.Enabled() {
		return nil, ErrNoSecret
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("auth: token has no subject")
	}
	return &User{ID: claims.Subject}, nil
}

// FromRequest 从 Authorization: Bearer 或 session cookie 读取用户，失败时返回 nil。
func (a *Authenticator) FromRequest(r *http.Request) *User {
	if !a.Enabled() || r == nil {
		return nil
	}
	raw := bearer(r.Header.Get("Authorization"))
	if raw == "" {
		if c, err := r.Cookie(CookieName); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return nil
	}
	u, err := a.Parse(raw)
	if err != nil {
		return nil
	}
	return u
}

func bearer(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
