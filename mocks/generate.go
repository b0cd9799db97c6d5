package mocks

//go:generate mockgen -destination=./mock_gateway.go -package=mocks github.com/rxtech-lab/argo-router/internal/gateway Gateway
//go:generate mockgen -destination=./mock_store.go -package=mocks github.com/rxtech-lab/argo-router/internal/store Store
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-router/internal/strategy Strategy,SignalHandler,History,AccountProvider
//go:generate mockgen -destination=./mock_sink.go -package=mocks github.com/rxtech-lab/argo-router/internal/dashboard Sink
//go:generate mockgen -destination=./mock_history_provider.go -package=mocks github.com/rxtech-lab/argo-router/pkg/marketdata/provider HistoryProvider
