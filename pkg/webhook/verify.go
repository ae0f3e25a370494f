package webhook

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

// 身份服务通过 Svix 投递 webhook，签名相关请求头
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"

	// 标准 webhook 头，部分投递使用无厂商前缀的名字
	HeaderIDAlt        = "webhook-id"
	HeaderTimestampAlt = "webhook-timestamp"
	HeaderSignatureAlt = "webhook-signature"

	secretPrefix = "whsec_"

	DefaultTolerance = 5 * time.Minute
)

var (
	ErrInvalidSecret       = errors.New("webhook secret is not valid base64")
	ErrMissingHeaders      = errors.New("missing webhook signature headers")
	ErrInvalidTimestamp    = errors.New("invalid webhook timestamp")
	ErrTimestampOutOfRange = errors.New("webhook timestamp outside tolerance")
	ErrNoMatchingSignature = errors.New("no matching webhook signature")
)

// Headers 参与验签的三个请求头，由 handler 从 hertz 请求中取出
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

func (h Headers) httpHeader() http.Header {
	header := http.Header{}
	header.Set(HeaderID, h.ID)
	header.Set(HeaderTimestamp, h.Timestamp)
	header.Set(HeaderSignature, h.Signature)
	return header
}

// Verifier 签名校验交给 svix，时间窗口在这里按配置的容忍度和时钟检查
type Verifier struct {
	wh        *svix.Webhook
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	if strings.TrimPrefix(secret, secretPrefix) == "" {
		return nil, ErrInvalidSecret
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	return &Verifier{wh: wh, tolerance: tolerance, now: time.Now}, nil
}

// WithClock 替换时间来源，测试用
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

func (v *Verifier) Verify(payload []byte, h Headers) error {
	if h.ID == "" || h.Timestamp == "" || h.Signature == "" {
		return ErrMissingHeaders
	}

	sec, err := strconv.ParseInt(h.Timestamp, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	ts := time.Unix(sec, 0)

	now := v.now()
	if now.Sub(ts) > v.tolerance || ts.Sub(now) > v.tolerance {
		return ErrTimestampOutOfRange
	}

	// 签名头可能同时带多个 "v1,<base64>"，密钥轮换期间会出现
	if err := v.wh.VerifyIgnoringTimestamp(payload, h.httpHeader()); err != nil {
		return fmt.Errorf("%w: %v", ErrNoMatchingSignature, err)
	}
	return nil
}

// Sign 生成 svix-signature 头的值
func (v *Verifier) Sign(id string, ts time.Time, payload []byte) (string, error) {
	return v.wh.Sign(id, ts, payload)
}
