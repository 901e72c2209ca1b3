// Package firebase adapts the Realtime Database (live telemetry) and
// Firestore (asset metadata) stores behind simple fetch operations. Both
// return empty mappings when no data exists at the requested path.
package firebase

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// substationsCollection is the Firestore collection holding per-substation
// asset metadata documents.
const substationsCollection = "substations"

// Client lazily initializes the Firebase app on first use and shares the
// underlying connections for the process lifetime.
type Client struct {
	databaseURL     string
	credentialsPath string
	credentialsJSON string

	once    sync.Once
	initErr error
	rtdb    *db.Client
	store   *firestore.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithDatabaseURL sets the Realtime Database URL.
func WithDatabaseURL(url string) Option {
	return func(c *Client) { c.databaseURL = url }
}

// WithCredentialsFile points the client at a service account JSON file.
func WithCredentialsFile(path string) Option {
	return func(c *Client) { c.credentialsPath = path }
}

// WithCredentialsJSON supplies service account credentials inline.
func WithCredentialsJSON(payload string) Option {
	return func(c *Client) { c.credentialsJSON = payload }
}

// NewClient creates an unconnected client. Credentials are checked on the
// first fetch, not here.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ensure(ctx context.Context) error {
	c.once.Do(func() {
		var creds option.ClientOption
		switch {
		case c.credentialsPath != "":
			creds = option.WithCredentialsFile(c.credentialsPath)
		case c.credentialsJSON != "":
			creds = option.WithCredentialsJSON([]byte(c.credentialsJSON))
		default:
			c.initErr = ErrNotConfigured
			return
		}

		conf := &fb.Config{}
		if c.databaseURL != "" {
			conf.DatabaseURL = c.databaseURL
		}
		app, err := fb.NewApp(ctx, conf, creds)
		if err != nil {
			c.initErr = fmt.Errorf("%w: init app: %v", ErrFetch, err)
			return
		}

		if c.databaseURL != "" {
			rtdb, err := app.Database(ctx)
			if err != nil {
				c.initErr = fmt.Errorf("%w: init realtime database: %v", ErrFetch, err)
				return
			}
			c.rtdb = rtdb
		}

		store, err := app.Firestore(ctx)
		if err != nil {
			c.initErr = fmt.Errorf("%w: init firestore: %v", ErrFetch, err)
			return
		}
		c.store = store
	})
	return c.initErr
}

// FetchRealtime returns the live telemetry snapshot under area/substation,
// or an empty mapping when the path holds no data.
func (c *Client) FetchRealtime(ctx context.Context, areaCode, substationID string) (map[string]any, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	if c.rtdb == nil {
		return nil, fmt.Errorf("%w: realtime database URL not configured", ErrFetch)
	}

	var snapshot map[string]any
	ref := c.rtdb.NewRef(areaCode).Child(substationID)
	if err := ref.Get(ctx, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: realtime %s/%s: %v", ErrFetch, areaCode, substationID, err)
	}
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	return snapshot, nil
}

// FetchAssetMetadata returns the substation's asset metadata document, or an
// empty mapping when the document does not exist.
func (c *Client) FetchAssetMetadata(ctx context.Context, substationID string) (map[string]any, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	doc, err := c.store.Collection(substationsCollection).Doc(substationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("%w: asset metadata %s: %v", ErrFetch, substationID, err)
	}
	data := doc.Data()
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// Close releases the Firestore connection if it was opened.
func (c *Client) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
