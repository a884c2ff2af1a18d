package notifx

// SendOptions holds optional configuration for a send operation.
type SendOptions struct {
	// Tags are attached as provider message tags, e.g. alert class.
	Tags map[string]string
}

// Option is a functional option for send operations.
type Option func(*SendOptions)

// WithTag adds one metadata tag.
func WithTag(key, value string) Option {
	return func(o *SendOptions) {
		if o.Tags == nil {
			o.Tags = make(map[string]string)
		}
		o.Tags[key] = value
	}
}

// ApplySendOptions folds opts into SendOptions. Providers call it.
func ApplySendOptions(opts []Option) SendOptions {
	var so SendOptions
	for _, o := range opts {
		o(&so)
	}
	return so
}
