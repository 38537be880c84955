package pgstore

import "errors"

var (
	ErrEncode = errors.New("pgstore: failed to encode file")
	ErrDecode = errors.New("pgstore: failed to decode file")
	ErrQuery  = errors.New("pgstore: query failed")
)
