package token

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/hertz-contrib/jwt"

	"MediPay/config"
	"MediPay/pkg/errors"
)

const (
	// IdentityKey 会话 JWT 中的用户标识，即身份服务的用户 ID
	IdentityKey = "sub"
	// MetadataClaim 会话 JWT 中携带的 public metadata
	MetadataClaim = "metadata"
)

var (
	// 这个实例会被 middleware 和 token 包共同使用
	sharedGenerator *jwt.HertzJWTMiddleware
)

func Init() error {
	var err error
	sharedGenerator, err = jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       config.Cfg.ServiceName,
		Key:         []byte(config.Cfg.SessionJWTSecret),
		Timeout:     sessionTTL(),
		IdentityKey: IdentityKey,
		TimeFunc:    time.Now,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token generator: %w", err)
	}

	return nil
}

// GetGenerator 获取共享的 token 生成器（供 middleware 使用）
func GetGenerator() *jwt.HertzJWTMiddleware {
	return sharedGenerator
}

func sessionTTL() time.Duration {
	if config.Cfg.SessionExpireMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(config.Cfg.SessionExpireMinutes) * time.Minute
}

// IssueSession 签发携带最新 metadata 的会话 token，用于 metadata 变更后刷新会话
func IssueSession(userID string, metadata map[string]interface{}) (string, time.Time, error) {
	if sharedGenerator == nil {
		return "", time.Time{}, errors.ErrTokenGeneratorNotInitialized
	}
	if userID == "" {
		return "", time.Time{}, errors.ErrUserIDNotFound
	}

	now := sharedGenerator.TimeFunc()
	expiresAt := now.Add(sharedGenerator.Timeout)

	claims := jwtv5.MapClaims{
		IdentityKey: userID,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}
	if metadata != nil {
		claims[MetadataClaim] = metadata
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(sharedGenerator.Key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// ParseSession 校验会话 token 并返回用户 ID 与 metadata
func ParseSession(tokenString string) (string, map[string]interface{}, error) {
	if sharedGenerator == nil {
		return "", nil, errors.ErrTokenGeneratorNotInitialized
	}

	parsed, err := jwtv5.ParseWithClaims(tokenString, jwtv5.MapClaims{}, func(t *jwtv5.Token) (interface{}, error) {
		if t.Method != jwtv5.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v, expected HS256", errors.ErrUnexpectedSigningMethod, t.Header["alg"])
		}
		return sharedGenerator.Key, nil
	}, jwtv5.WithExpirationRequired(), jwtv5.WithTimeFunc(sharedGenerator.TimeFunc))
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !parsed.Valid {
		return "", nil, errors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwtv5.MapClaims)
	if !ok {
		return "", nil, errors.ErrInvalidTokenClaims
	}

	uid, _ := claims[IdentityKey].(string)
	if uid == "" {
		return "", nil, errors.ErrUserIDNotFound
	}

	metadata, _ := claims[MetadataClaim].(map[string]interface{})
	return uid, metadata, nil
}
