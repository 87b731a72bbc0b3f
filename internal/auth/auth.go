// Package auth は管理者向けの Bearer トークンを発行・検証する。
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/formcollector/api/internal/fault"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Identity は認証済みの管理者。
type Identity struct {
	Email string
}

// Authorizer は Authorization ヘッダーの値が管理者を示すか判定する。
// ヘッダーが無ければ Unauthorized、検証できなければ InvalidToken の fault を返す。
type Authorizer interface {
	Authorize(header string) (Identity, error)
}

// Credentials は唯一の管理者アカウント。
type Credentials struct {
	Email        string
	PasswordHash []byte
}

// NewCredentials は bcrypt ハッシュを優先する。平文のパスワードはここで一度だけハッシュ化する。
func NewCredentials(email, passwordHash, password string) (Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Credentials{}, fmt.Errorf("管理者メールアドレスは必須です")
	}
	if hash := strings.TrimSpace(passwordHash); hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return Credentials{}, fmt.Errorf("管理者パスワードハッシュが不正です: %w", err)
		}
		return Credentials{Email: email, PasswordHash: []byte(hash)}, nil
	}
	if password == "" {
		return Credentials{}, fmt.Errorf("管理者パスワードまたはパスワードハッシュは必須です")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Credentials{}, fmt.Errorf("管理者パスワードのハッシュ化に失敗: %w", err)
	}
	return Credentials{Email: email, PasswordHash: hash}, nil
}

// Verify はメールアドレスとパスワードの組を照合する。
func (c Credentials) Verify(email, password string) bool {
	emailOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(email))),
		[]byte(strings.ToLower(c.Email)),
	) == 1
	passwordOK := bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)) == nil
	return emailOK && passwordOK
}

// Claims は管理者トークンのクレーム。
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Tokens は共有シークレットで HS256 トークンを署名・検証する。
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret []byte, issuer string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tokens{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}
}

// WithClock は発行と検証に使う時計を差し替える。
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	clone := *t
	clone.now = now
	return &clone
}

// Issue は email 宛てのトークンを署名し、有効期限とともに返す。
func (t *Tokens) Issue(email string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse は署名、アルゴリズム、有効期限、発行者を検証する。
func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("アクセストークンが無効です")
	}
	return claims, nil
}

// Authorize は "Bearer <token>" 形式のヘッダーに対する Authorizer 実装。
func (t *Tokens) Authorize(header string) (Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Identity{}, fault.New(fault.KindUnauthorized, "Unauthorized", nil)
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(header, bearerPrefix) {
		return Identity{}, fault.New(fault.KindInvalidToken, "Invalid token", nil)
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if tokenString == "" {
		return Identity{}, fault.New(fault.KindInvalidToken, "Invalid token", nil)
	}

	claims, err := t.Parse(tokenString)
	if err != nil {
		return Identity{}, fault.New(fault.KindInvalidToken, "Invalid token", err)
	}
	email := claims.Email
	if email == "" {
		email = claims.Subject
	}
	return Identity{Email: email}, nil
}
