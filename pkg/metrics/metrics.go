// Package metrics 定义服务的 Prometheus 指标，由 /metrics 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatTurns 按结果统计对话轮次：completed、cancelled、failed、rejected。
	ChatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_chat_turns_total",
		Help: "Chat turns by outcome",
	}, []string{"outcome"})

	// ChatStreamDuration 记录流式生成耗时
	ChatStreamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resume_chat_stream_duration_seconds",
		Help:    "Streaming generation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s to ~32s
	})

	// TitleDerivations 按结果统计标题生成
	TitleDerivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_chat_title_derivations_total",
		Help: "Title derivations by outcome",
	}, []string{"outcome"})

	// ContextResolutions 按结果统计简历上下文解析：present、unavailable
	ContextResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_chat_context_resolutions_total",
		Help: "Document context resolutions by outcome",
	}, []string{"outcome", "source"})

	// DocumentOps 按操作与结果统计简历存储操作
	DocumentOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resume_chat_document_ops_total",
		Help: "Document store operations by operation and outcome",
	}, []string{"operation", "outcome"})
)
