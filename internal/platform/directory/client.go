package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sds/sds/internal/platform/metrics"
)

var (
	// ErrSearchTimeout is returned by strict searches that did not complete
	// within the configured timeout.
	ErrSearchTimeout = errors.New("LDAP request timed out")

	// ErrInvalidResponse wraps failures talking to the directory: connection
	// errors, rejected binds and non-success result codes.
	ErrInvalidResponse = errors.New("invalid LDAP response received")
)

// Searcher runs filtered lookups against the registry.
type Searcher interface {
	// Search returns the records matching q. A search that runs past the
	// timeout is logged and yields no records rather than an error.
	Search(ctx context.Context, q Query, attributes []string) ([]Record, error)

	// SearchStrict is Search except that a timeout is reported as
	// ErrSearchTimeout. Callers that need an answer use this.
	SearchStrict(ctx context.Context, q Query, attributes []string) ([]Record, error)
}

// HealthChecker confirms the directory is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Conn is the subset of *ldap.Conn the client depends on.
type Conn interface {
	UnauthenticatedBind(username string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	IsClosing() bool
}

// DialFunc opens a new connection to the directory.
type DialFunc func(ctx context.Context) (Conn, error)

// ClientConfig configures a Client.
type ClientConfig struct {
	SearchBase string
	Timeout    time.Duration
	Metrics    *metrics.Metrics
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Client searches the live directory over a shared connection. The
// connection is opened lazily and re-dialled after it has been closed by the
// server; concurrent searches are multiplexed over it.
type Client struct {
	dial       DialFunc
	searchBase string
	timeout    time.Duration
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	mu   sync.Mutex
	conn Conn
}

func NewClient(dial DialFunc, cfg ClientConfig) (*Client, error) {
	if dial == nil {
		return nil, fmt.Errorf("directory dialer must not be nil")
	}
	if cfg.SearchBase == "" {
		return nil, fmt.Errorf("search base must be specified")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	return &Client{
		dial:       dial,
		searchBase: cfg.SearchBase,
		timeout:    cfg.Timeout,
		metrics:    cfg.Metrics,
		tracer:     cfg.TracerProvider.Tracer("github.com/sds/sds/internal/platform/directory"),
	}, nil
}

// Connect opens and binds the connection now instead of on first use.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.connection(ctx)
	return err
}

// Close closes the underlying connection if one is open.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if closer, ok := c.conn.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	c.conn = nil
}

func (c *Client) Search(ctx context.Context, q Query, attributes []string) ([]Record, error) {
	records, err := c.SearchStrict(ctx, q, attributes)
	if errors.Is(err, ErrSearchTimeout) {
		zerolog.Ctx(ctx).Error().Str("filter", q.Filter()).Dur("timeout", c.timeout).Msg("LDAP query timed out")
		return []Record{}, nil
	}
	return records, err
}

func (c *Client) SearchStrict(ctx context.Context, q Query, attributes []string) ([]Record, error) {
	return c.search(ctx, ldap.ScopeWholeSubtree, q.Filter(), attributes, 0)
}

// Ping performs a base-object lookup on the search base.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.search(ctx, ldap.ScopeBaseObject, "(objectClass=*)", []string{"1.1"}, 1)
	return err
}

func (c *Client) search(ctx context.Context, scope int, filter string, attributes []string, sizeLimit int) ([]Record, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "directory.search", trace.WithAttributes(
		attribute.String("ldap.base", c.searchBase),
		attribute.String("ldap.filter", filter),
	))
	defer span.End()

	log := zerolog.Ctx(ctx)

	cn, err := c.connection(ctx)
	if err != nil {
		c.metrics.ObserveSearch("error", time.Since(start))
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	req := ldap.NewSearchRequest(
		c.searchBase, scope, ldap.NeverDerefAliases,
		sizeLimit, int(c.timeout/time.Second), false,
		filter, attributes, nil,
	)
	log.Info().Str("filter", filter).Msg("sending LDAP query")

	type outcome struct {
		res *ldap.SearchResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := cn.Search(req)
		done <- outcome{res: res, err: err}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			if isTimeout(out.err) {
				c.metrics.ObserveSearch("timeout", time.Since(start))
				span.SetStatus(codes.Error, ErrSearchTimeout.Error())
				return nil, ErrSearchTimeout
			}
			if ldap.IsErrorWithCode(out.err, ldap.ErrorNetwork) {
				c.reset(cn)
			}
			c.metrics.ObserveSearch("error", time.Since(start))
			span.SetStatus(codes.Error, out.err.Error())
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, out.err)
		}
		records := make([]Record, 0, len(out.res.Entries))
		for _, e := range out.res.Entries {
			records = append(records, FromEntry(e))
		}
		c.metrics.ObserveSearch("ok", time.Since(start))
		span.SetAttributes(attribute.Int("ldap.records", len(records)))
		log.Info().Str("filter", filter).Int("records", len(records)).Msg("found LDAP details")
		return records, nil

	case <-timer.C:
		c.metrics.ObserveSearch("timeout", time.Since(start))
		span.SetStatus(codes.Error, ErrSearchTimeout.Error())
		return nil, ErrSearchTimeout

	case <-ctx.Done():
		c.metrics.ObserveSearch("error", time.Since(start))
		span.SetStatus(codes.Error, ctx.Err().Error())
		return nil, ctx.Err()
	}
}

// connection returns the shared connection, dialling and binding when there
// is none or the previous one is closing. Binding is anonymous; the client
// certificate authenticates the TLS session.
func (c *Client) connection(ctx context.Context) (Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosing() {
		return c.conn, nil
	}
	cn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	if err := cn.UnauthenticatedBind(""); err != nil {
		if closer, ok := cn.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("bind: %w", err)
	}
	c.conn = cn
	return cn, nil
}

// reset drops cn so the next search re-dials.
func (c *Client) reset(cn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == cn {
		c.conn = nil
	}
}

func isTimeout(err error) bool {
	return ldap.IsErrorWithCode(err, ldap.LDAPResultTimeLimitExceeded) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultTimeout)
}
