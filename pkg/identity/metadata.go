package identity

import (
	"encoding/json"
	"math"
)

// 身份服务 public metadata 中由本服务维护的键
const (
	KeyOnboardingComplete = "onboardingComplete"
	KeyLastCompletedStep  = "lastCompletedStep"
)

// Metadata 用户的 public metadata，除上述两个键外的内容原样保留
type Metadata map[string]interface{}

func (m Metadata) OnboardingComplete() bool {
	v, ok := m[KeyOnboardingComplete].(bool)
	return ok && v
}

// LastCompletedStep 兼容 JSON 解码后的 float64 与 json.Number
func (m Metadata) LastCompletedStep() (int, bool) {
	switch v := m[KeyLastCompletedStep].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge 浅合并，patch 覆盖同名键，其余键保持不变
func (m Metadata) Merge(patch Metadata) Metadata {
	out := m.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}
