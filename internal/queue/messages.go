package queue

import "MediPay/storage/mq"

// 引导 metadata 同步的拓扑
const (
	ExchangeOnboarding        = "onboarding"
	ExchangeOnboardingDelayed = "onboarding.delayed"
	RoutingKeyMetadataSync    = "onboarding.metadata.sync"
	QueueMetadataSync         = "onboarding.metadata.sync"
)

// 消息来源
const (
	SourceSave      = "save"
	SourceReconcile = "reconcile"
)

// Bindings worker 和 server 启动时声明的交换机与队列
func Bindings() []mq.Binding {
	return []mq.Binding{
		{Exchange: ExchangeOnboarding, Queue: QueueMetadataSync, RoutingKey: RoutingKeyMetadataSync},
		// 失败重试经延迟交换机回到同一个队列
		{Exchange: ExchangeOnboardingDelayed, Queue: QueueMetadataSync, RoutingKey: RoutingKeyMetadataSync, Delayed: true},
	}
}
