package redisstore

import "errors"

var (
	ErrEncode = errors.New("redisstore: failed to encode file")
	ErrDecode = errors.New("redisstore: failed to decode file")
	ErrRedis  = errors.New("redisstore: redis command failed")
)
