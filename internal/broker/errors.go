package broker

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrRateLimited  = errors.New("rate limited by API")
	ErrUnauthorized = errors.New("authentication failed")
	ErrNoAccounts   = errors.New("no accounts found for API key")
)
