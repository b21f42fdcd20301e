package httpoll

import (
	"io"
	"time"

	"github.com/stealthrocket/httpoll/internal/network"
	"github.com/stealthrocket/httpoll/internal/transport"
	"go.uber.org/zap"
)

// Option configures a Client when passed to New, or a single request when
// passed to one of the request methods. Request options take precedence over
// client options, which take precedence over the defaults of each method.
type Option func(*options)

type options struct {
	timeout        *time.Duration
	connectTimeout *time.Duration
	bandwidthLimit *int64
	resource       io.Closer
	logger         *zap.Logger
	transport      transport.Options
	drainTimeout   time.Duration
	now            func() time.Time
}

// WithTimeout sets the overall deadline of requests. A value less than or
// equal to zero disables both the overall and the connect deadlines.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = &timeout }
}

// WithConnectTimeout sets the time allowed to establish connections. A value
// less than or equal to zero leaves the connection phase bounded only by the
// overall deadline.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(o *options) { o.connectTimeout = &timeout }
}

// WithBandwidthLimit caps the rate of uploads in bytes per second, zero means
// unlimited. It has no effect on other requests.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(o *options) { o.bandwidthLimit = &bytesPerSecond }
}

// WithResource transfers ownership of r to the request: it is closed exactly
// once, right after the request invoked its completion or error callback.
//
// The option is ignored when passed to New.
func WithResource(r io.Closer) Option {
	return func(o *options) { o.resource = r }
}

// WithLogger sets the logger of a client. The default discards all logs.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithNetwork sets the socket options of the connections created by a client.
func WithNetwork(opts network.Options) Option {
	return func(o *options) { o.transport.Network = opts }
}

// WithReadSize sets the size of the buffers that responses are read into,
// which is also the largest chunk passed to download callbacks.
func WithReadSize(size int) Option {
	return func(o *options) { o.transport.ReadSize = size }
}

// WithResolver sets the resolver used to look up host names.
func WithResolver(r transport.Resolver) Option {
	return func(o *options) { o.transport.Resolver = r }
}

// WithTransport replaces all the transport options of a client.
func WithTransport(opts transport.Options) Option {
	return func(o *options) { o.transport = opts }
}

// WithDrainTimeout sets how long Close waits for cancelled requests to be
// closed by their transport.
func WithDrainTimeout(timeout time.Duration) Option {
	return func(o *options) { o.drainTimeout = timeout }
}

func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// requestDefaults are the deadlines and limits of a request method when no
// option set them.
type requestDefaults struct {
	timeout        time.Duration
	connectTimeout time.Duration
}

var (
	shortRequest    = requestDefaults{timeout: 5 * time.Second, connectTimeout: 5 * time.Second}
	genericRequest  = requestDefaults{timeout: 60 * time.Second, connectTimeout: 5 * time.Second}
	downloadRequest = requestDefaults{timeout: 60 * time.Second, connectTimeout: 10 * time.Second}
	uploadRequest   = requestDefaults{timeout: 60 * time.Second, connectTimeout: 5 * time.Second}
)

// resolve merges the client options, the request options and the defaults.
func (c *Client) resolve(defaults requestDefaults, opts []Option) options {
	o := c.opts
	o.resource = nil
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout == nil {
		o.timeout = &defaults.timeout
	}
	if o.connectTimeout == nil {
		o.connectTimeout = &defaults.connectTimeout
	}
	if o.bandwidthLimit == nil {
		var unlimited int64
		o.bandwidthLimit = &unlimited
	}
	return o
}
