package errors

import (
	"errors"
	"fmt"
)

func (d Definition) Error() string {
	return d.Message
}

// Is 按错误码比较，WithMessage 之后仍可用 errors.Is 判断。
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	return ok && t.Code == d.Code
}

// WithMessage 返回同一错误码、不同信息的副本。
func (d Definition) WithMessage(format string, args ...interface{}) Definition {
	d.Message = fmt.Sprintf(format, args...)
	return d
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// DetailError 携带附加信息的业务错误，响应中写入 error.details。
type DetailError struct {
	Def     Definition
	Details map[string]interface{}
}

func (e *DetailError) Error() string {
	return e.Def.Message
}

func (e *DetailError) Unwrap() error {
	return e.Def
}

func WithDetails(def Definition, details map[string]interface{}) error {
	return &DetailError{Def: def, Details: details}
}

// 通用错误。
var (
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	Unauthenticated = Definition{Code: "UNAUTHENTICATED", Message: "Authentication required"}
	NotFound        = Definition{Code: "NOT_FOUND", Message: "Resource not found"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
	InternalError   = Definition{Code: "INTERNAL_ERROR", Message: "Internal server error"}
)

// 引导流程错误。
var (
	OnboardingStepInvalid        = Definition{Code: "ONBOARDING_STEP_INVALID", Message: "Onboarding step invalid"}
	OnboardingStoreWriteFailed   = Definition{Code: "ONBOARDING_STORE_WRITE_FAILED", Message: "Failed to save onboarding progress"}
	OnboardingMetadataSyncFailed = Definition{Code: "ONBOARDING_METADATA_SYNC_FAILED", Message: "Onboarding progress saved but profile metadata update failed"}
	OnboardingCompleteFailed     = Definition{Code: "ONBOARDING_COMPLETE_FAILED", Message: "Failed to mark onboarding complete"}
	OnboardingRequired           = Definition{Code: "ONBOARDING_REQUIRED", Message: "Onboarding must be completed first"}
)

// 身份服务 webhook 错误。
var (
	WebhookSignatureInvalid = Definition{Code: "WEBHOOK_SIGNATURE_INVALID", Message: "Webhook signature invalid"}
	WebhookPayloadInvalid   = Definition{Code: "WEBHOOK_PAYLOAD_INVALID", Message: "Webhook payload invalid"}
	WebhookStoreFailed      = Definition{Code: "WEBHOOK_STORE_FAILED", Message: "Failed to apply webhook event"}
)

// 业务数据错误。
var (
	DataSourceReadOnly     = Definition{Code: "DATA_SOURCE_READ_ONLY", Message: "Data source is read only"}
	ClinicNotFound         = Definition{Code: "CLINIC_NOT_FOUND", Message: "Clinic not found"}
	PaymentPlanNotFound    = Definition{Code: "PAYMENT_PLAN_NOT_FOUND", Message: "Payment plan not found"}
	ClaimNotFound          = Definition{Code: "CLAIM_NOT_FOUND", Message: "Claim not found"}
	ClaimTransitionInvalid = Definition{Code: "CLAIM_TRANSITION_INVALID", Message: "Claim status transition not allowed"}
	AmountInvalid          = Definition{Code: "AMOUNT_INVALID", Message: "Amount invalid"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:               InvalidRequest,
	Unauthenticated.Code:              Unauthenticated,
	NotFound.Code:                     NotFound,
	TooManyRequests.Code:              TooManyRequests,
	InternalError.Code:                InternalError,
	OnboardingStepInvalid.Code:        OnboardingStepInvalid,
	OnboardingStoreWriteFailed.Code:   OnboardingStoreWriteFailed,
	OnboardingMetadataSyncFailed.Code: OnboardingMetadataSyncFailed,
	OnboardingCompleteFailed.Code:     OnboardingCompleteFailed,
	OnboardingRequired.Code:           OnboardingRequired,
	WebhookSignatureInvalid.Code:      WebhookSignatureInvalid,
	WebhookPayloadInvalid.Code:        WebhookPayloadInvalid,
	WebhookStoreFailed.Code:           WebhookStoreFailed,
	DataSourceReadOnly.Code:           DataSourceReadOnly,
	ClinicNotFound.Code:               ClinicNotFound,
	PaymentPlanNotFound.Code:          PaymentPlanNotFound,
	ClaimNotFound.Code:                ClaimNotFound,
	ClaimTransitionInvalid.Code:       ClaimTransitionInvalid,
	AmountInvalid.Code:                AmountInvalid,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// 内部错误，不直接暴露给调用方。
var (
	ErrTokenGeneratorNotInitialized = errors.New("token generator not initialized")
	ErrUnexpectedSigningMethod      = errors.New("unexpected signing method")
	ErrInvalidToken                 = errors.New("invalid token")
	ErrInvalidTokenClaims           = errors.New("invalid token claims")
	ErrUserIDNotFound               = errors.New("user id not found in token")
	ErrIdentityProviderNotReady     = errors.New("identity provider not initialized")
	ErrRecordNotFound               = errors.New("record not found")
)

// SkipMessageError 消费者遇到无法处理的消息时返回，消息会被确认而不是重新入队。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}
