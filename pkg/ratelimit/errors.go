package ratelimit

import "errors"

var (
	ErrIdentifierRequired = errors.New("identifier is required")
	ErrInvalidPolicy      = errors.New("policy must have positive requests and window")
	ErrClientRequired     = errors.New("redis client is required")
	ErrUnexpectedReply    = errors.New("unexpected reply from rate limit script")
)
