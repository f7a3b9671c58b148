// Package client assembles the storefront synchronization engines into a
// single embeddable facade: session signal, local snapshot stores, remote
// service clients, and the cart and wishlist engines wired to react to
// sign-in and sign-out.
package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/utafrali/StorefrontGo/internal/engine"
	"github.com/utafrali/StorefrontGo/internal/remote"
	"github.com/utafrali/StorefrontGo/internal/session"
	"github.com/utafrali/StorefrontGo/internal/snapshot"
	"github.com/utafrali/StorefrontGo/pkg/config"
	"github.com/utafrali/StorefrontGo/pkg/httpclient"
	"github.com/utafrali/StorefrontGo/pkg/logger"
)

// Config holds client configuration, loadable from the environment.
type Config struct {
	APIBaseURL     string        `env:"STOREFRONT_API_URL" envDefault:"http://localhost:8003"`
	StateDir       string        `env:"STOREFRONT_STATE_DIR" envDefault:".storefront"`
	LogLevel       string        `env:"STOREFRONT_LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"STOREFRONT_REQUEST_TIMEOUT" envDefault:"10s"`
	MergeTimeout   time.Duration `env:"STOREFRONT_MERGE_TIMEOUT" envDefault:"30s"`
}

// LoadConfig reads client configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Client is the top-level storefront state facade. It owns the session
// signal and both engines and keeps them in lockstep: a session change to
// authenticated triggers the guest-to-account merge on both collections, a
// change back to anonymous resets them to empty guest state.
type Client struct {
	cfg         *Config
	logger      *slog.Logger
	session     *session.Signal
	events      *engine.Notifier
	cart        *engine.CartEngine
	wishlist    *engine.WishlistEngine
	unsubscribe func()
}

// New builds a fully wired client. The state directory must be writable; it
// is created by the snapshot stores on first save.
func New(cfg *Config) *Client {
	log := logger.New("storefront-client", cfg.LogLevel)
	sess := session.NewSignal(session.State{})
	events := engine.NewNotifier()

	base := httpclient.New(httpclient.Config{
		Timeout:         cfg.RequestTimeout,
		MaxRetries:      2,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 10,
	})
	cartHTTP := httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("cart-service"), log)
	wishlistHTTP := httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("wishlist-service"), log)

	cartRemote := remote.NewHTTPCartClient(cfg.APIBaseURL, cartHTTP, sess)
	wishlistRemote := remote.NewHTTPWishlistClient(cfg.APIBaseURL, wishlistHTTP, sess)

	cart := engine.NewCartEngine(snapshot.NewCartStore(cfg.StateDir), cartRemote, log, events)
	wishlist := engine.NewWishlistEngine(snapshot.NewWishlistStore(cfg.StateDir), wishlistRemote, cart, log, events)

	c := &Client{
		cfg:      cfg,
		logger:   log,
		session:  sess,
		events:   events,
		cart:     cart,
		wishlist: wishlist,
	}
	c.unsubscribe = sess.Subscribe(c.onSessionChange)

	return c
}

// Cart returns the cart engine.
func (c *Client) Cart() *engine.CartEngine { return c.cart }

// Wishlist returns the wishlist engine.
func (c *Client) Wishlist() *engine.WishlistEngine { return c.wishlist }

// Session returns the session signal. The embedding application's auth
// layer calls Set on it after sign-in and sign-out.
func (c *Client) Session() *session.Signal { return c.session }

// Events returns the notifier both engines publish to.
func (c *Client) Events() *engine.Notifier { return c.events }

// SignIn marks the session as authenticated for the given user and runs the
// guest-to-account merge on both engines. Returns the combined merge result;
// on error the session reverts to anonymous so a later SignIn retries the
// merge from intact guest state.
func (c *Client) SignIn(ctx context.Context, userID string) (*engine.MergeResult, error) {
	c.session.Set(session.State{Authenticated: true, UserID: userID})

	ctx, cancel := context.WithTimeout(ctx, c.cfg.MergeTimeout)
	defer cancel()

	combined := &engine.MergeResult{}

	cartRes, err := c.cart.SignIn(ctx)
	if err != nil {
		c.session.Set(session.State{})
		return nil, err
	}
	if cartRes != nil {
		combined.DroppedProducts = append(combined.DroppedProducts, cartRes.DroppedProducts...)
	}

	wishRes, err := c.wishlist.SignIn(ctx)
	if err != nil {
		// The cart merge may already have landed server-side; its snapshot
		// is clear, so reverting leaves an empty guest cart while the
		// wishlist keeps its snapshot for the retry.
		c.session.Set(session.State{})
		return nil, err
	}
	if wishRes != nil {
		combined.DroppedProducts = append(combined.DroppedProducts, wishRes.DroppedProducts...)
	}

	c.logger.InfoContext(ctx, "session signed in",
		slog.String("user_id", userID),
		slog.Int("dropped_products", len(combined.DroppedProducts)),
	)

	return combined, nil
}

// SignOut marks the session as anonymous and resets both engines to empty
// guest state. Server-side records are left untouched.
func (c *Client) SignOut() {
	c.session.Set(session.State{})
	c.logger.Info("session signed out")
}

// Close detaches the client from the session signal. Engines remain usable
// but no longer react to session changes.
func (c *Client) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// onSessionChange keeps the engines consistent when the session signal is
// driven directly rather than through SignIn/SignOut, e.g. by an auth layer
// that observes token expiry.
func (c *Client) onSessionChange(st session.State) {
	if st.Authenticated {
		return
	}
	c.cart.SignOut()
	c.wishlist.SignOut()
}
