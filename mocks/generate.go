package mocks

//go:generate mockgen -destination=./mock_fetcher.go -package=mocks SignalSentinel/internal/collector Fetcher
