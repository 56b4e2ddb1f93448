package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VIPPurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ncp_vip_purchases_total",
		Help: "VIP levels purchased, by level.",
	}, []string{"level"})

	TasksCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ncp_tasks_completed_total",
		Help: "Daily tasks completed.",
	})

	DepositRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ncp_deposit_requests_total",
		Help: "Deposit requests recorded, by payment method.",
	}, []string{"method"})

	WithdrawalRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ncp_withdrawal_requests_total",
		Help: "Withdrawal requests recorded.",
	})

	TransactionsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ncp_transactions_resolved_total",
		Help: "Pending transactions resolved by an admin.",
	}, []string{"type", "status"})

	MembershipsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ncp_memberships_expired_total",
		Help: "VIP memberships cleared after their expiry date.",
	})

	RejectedOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ncp_rejected_operations_total",
		Help: "Engine operations refused by a precondition, by operation.",
	}, []string{"operation"})

	BotUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ncp_bot_updates_total",
		Help: "Telegram updates received, by kind.",
	}, []string{"kind"})

	BotRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ncp_bot_rate_limited_total",
		Help: "Telegram updates dropped by the per-user rate limiter.",
	})
)
