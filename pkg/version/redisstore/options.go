package redisstore

// Option configures a Store.
type Option func(*options)

type options struct {
	prefix      string
	maxAttempts int
}

func defaultOptions() *options {
	return &options{
		prefix:      "filevault",
		maxAttempts: 5,
	}
}

// WithPrefix sets the key prefix.
// Default: "filevault".
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithMaxAttempts bounds how often an aborted transaction is retried.
// Default: 5.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}
