// Package mongodb is a twinstore.Store implementation backed by
// go.mongodb.org/mongo-driver, using FindOneAndUpdate for atomic
// single-document patches.
package mongodb

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nyxwave/fleetmesh/pkg/errors"
	"github.com/nyxwave/fleetmesh/pkg/resilience"
	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/nyxwave/fleetmesh/pkg/twinstore"
)

// Config configures the MongoDB adapter's connection.
type Config struct {
	Host               string `env:"TWINSTORE_MONGO_HOST" env-default:"localhost"`
	Port               int    `env:"TWINSTORE_MONGO_PORT" env-default:"27017"`
	User               string `env:"TWINSTORE_MONGO_USER"`
	Password           string `env:"TWINSTORE_MONGO_PASSWORD"`
	Database           string `env:"TWINSTORE_MONGO_DATABASE" env-default:"fleetmesh"`
	Collection         string `env:"TWINSTORE_MONGO_COLLECTION" env-default:"twins"`
	UseTLS             bool   `env:"TWINSTORE_MONGO_TLS"`
	InsecureSkipVerify bool   `env:"TWINSTORE_MONGO_TLS_INSECURE_SKIP_VERIFY"`
	CAPath             string `env:"TWINSTORE_MONGO_CA_PATH"`
	CertPath           string `env:"TWINSTORE_MONGO_CERT_PATH"`
	KeyPath            string `env:"TWINSTORE_MONGO_KEY_PATH"`
	MaxPoolSize        uint64 `env:"TWINSTORE_MONGO_MAX_POOL_SIZE" env-default:"100"`

	// RetryMaxAttempts bounds the resilience.Retry wrapper placed around
	// Patch, the one operation the version-reconciliation read-modify-write
	// depends on completing. 0 or 1 disables retrying.
	RetryMaxAttempts   int           `env:"TWINSTORE_MONGO_RETRY_MAX_ATTEMPTS" env-default:"3"`
	RetryInitialBackoff time.Duration `env:"TWINSTORE_MONGO_RETRY_INITIAL_BACKOFF" env-default:"50ms"`
}

// Store is a MongoDB-backed twinstore.Store.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	retryCfg   resilience.RetryConfig
}

// document is the BSON shape persisted for a twin, keyed by device id.
type document struct {
	ID   string    `bson:"_id"`
	Twin twin.Twin `bson:",inline"`
}

// New dials MongoDB and returns a ready Store.
func New(cfg Config) (*Store, error) {
	uri := fmt.Sprintf("mongodb://%s:%d", cfg.Host, cfg.Port)
	if cfg.User != "" && cfg.Password != "" {
		uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.User, cfg.Password, cfg.Host, cfg.Port)
	}

	opts := options.Client().ApplyURI(uri).SetConnectTimeout(10 * time.Second)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	if cfg.UseTLS || cfg.CAPath != "" || cfg.CertPath != "" {
		tlsConfig := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}

		if cfg.CAPath != "" {
			caCert, err := os.ReadFile(cfg.CAPath)
			if err != nil {
				return nil, errors.Wrap(err, "failed to read twinstore CA certificate")
			}
			pool := x509.NewCertPool()
			if ok := pool.AppendCertsFromPEM(caCert); !ok {
				return nil, errors.New(errors.CodeInternal, "failed to append twinstore CA certificate", nil)
			}
			tlsConfig.RootCAs = pool
		}

		if cfg.CertPath != "" && cfg.KeyPath != "" {
			cert, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
			if err != nil {
				return nil, errors.Wrap(err, "failed to load twinstore client certificate")
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}

		opts.SetTLSConfig(tlsConfig)
	}

	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to twinstore mongodb")
	}
	if err := client.Ping(context.Background(), nil); err != nil {
		return nil, errors.Wrap(err, "failed to ping twinstore mongodb")
	}

	return &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		retryCfg: resilience.RetryConfig{
			MaxAttempts:    cfg.RetryMaxAttempts,
			InitialBackoff: cfg.RetryInitialBackoff,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.0,
			RetryIf:        isTransient,
		},
	}, nil
}

// isTransient reports whether an error from a Store operation is worth
// retrying. Business outcomes (stale/not-found/already-exists) never
// become true on retry, so they are excluded.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case stderrors.Is(err, mongo.ErrNoDocuments):
		return false
	case mongo.IsDuplicateKeyError(err):
		return false
	default:
		return true
	}
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return errors.Wrap(err, "failed to disconnect twinstore mongodb client")
	}
	return nil
}

func (s *Store) SelectAll(ctx context.Context) ([]twin.Twin, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query twins")
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode twins")
	}

	twins := make([]twin.Twin, len(docs))
	for i, d := range docs {
		twins[i] = d.Twin
	}
	return twins, nil
}

func (s *Store) SelectByDeviceID(ctx context.Context, deviceID string) (*twin.Twin, error) {
	var d document
	err := s.collection.FindOne(ctx, bson.M{"_id": deviceID}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query twin "+deviceID)
	}
	return &d.Twin, nil
}

func (s *Store) SelectWhereMetaDeviceID(ctx context.Context, deviceID string) ([]twin.Twin, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"meta_properties.device_id": deviceID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query twin by meta device id")
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode twins")
	}

	twins := make([]twin.Twin, len(docs))
	for i, d := range docs {
		twins[i] = d.Twin
	}
	return twins, nil
}

func (s *Store) Insert(ctx context.Context, deviceID string, t twin.Twin) (twin.Twin, error) {
	_, err := s.collection.InsertOne(ctx, document{ID: deviceID, Twin: t})
	if mongo.IsDuplicateKeyError(err) {
		return twin.Twin{}, twinstore.ErrAlreadyExists(deviceID)
	}
	if err != nil {
		return twin.Twin{}, errors.Wrap(err, "failed to insert twin "+deviceID)
	}
	return t, nil
}

// Patch retries transient FindOneAndUpdate failures (network blips,
// primary stepdowns) under resilience.Retry; a not-found result is a
// business outcome and is never retried.
func (s *Store) Patch(ctx context.Context, deviceID string, path string, value any) (twin.Twin, error) {
	field, ok := mongoField(path)
	if !ok {
		return twin.Twin{}, errors.New(errors.CodeInvalidArgument, "unrecognized patch path: "+path, nil)
	}

	after := options.After
	var d document
	runErr := resilience.Retry(ctx, s.retryCfg, func(ctx context.Context) error {
		err := s.collection.FindOneAndUpdate(
			ctx,
			bson.M{"_id": deviceID},
			bson.M{"$set": bson.M{field: value}},
			&options.FindOneAndUpdateOptions{ReturnDocument: &after},
		).Decode(&d)
		return err
	})
	if runErr == mongo.ErrNoDocuments {
		return twin.Twin{}, twinstore.ErrRecordNotFound(deviceID)
	}
	if runErr != nil {
		return twin.Twin{}, errors.Wrap(runErr, "failed to patch twin "+deviceID)
	}
	return d.Twin, nil
}

func (s *Store) Delete(ctx context.Context, deviceID string) (*twin.Twin, error) {
	var d document
	err := s.collection.FindOneAndDelete(ctx, bson.M{"_id": deviceID}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to delete twin "+deviceID)
	}
	return &d.Twin, nil
}

// mongoField maps a twinstore patch path to the dotted BSON field name
// FindOneAndUpdate's $set operator expects.
func mongoField(path string) (string, bool) {
	switch path {
	case twinstore.PathLastActivityTime:
		return "meta_properties.last_activity_time", true
	case twinstore.PathConnectionState:
		return "meta_properties.connection_state", true
	case "/meta_properties":
		return "meta_properties", true
	case "/tag_properties":
		return "tag_properties", true
	case "/desired_properties":
		return "desired_properties", true
	case "/reported_properties":
		return "reported_properties", true
	default:
		return "", false
	}
}
