package mongo

import (
	"context"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type ConnectionInfo struct {
	Scheme     string
	User       string
	Password   string
	Host       string
	Port       string
	DB         string
	AuthSource string
	AppName    string
	// Timeout bounds server selection and the initial ping; zero means 5s.
	Timeout time.Duration
}

type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// URI builds the connection string with escaped credentials.
func (info ConnectionInfo) URI() string {
	u := url.URL{Scheme: info.Scheme, Host: info.Host, Path: "/" + info.DB}
	if u.Scheme == "" {
		u.Scheme = "mongodb"
	}
	if info.Port != "" {
		u.Host += ":" + info.Port
	}
	switch {
	case info.User != "" && info.Password != "":
		u.User = url.UserPassword(info.User, info.Password)
	case info.User != "":
		u.User = url.User(info.User)
	}
	if info.AuthSource != "" {
		u.RawQuery = url.Values{"authSource": {info.AuthSource}}.Encode()
	}
	return u.String()
}

func NewConnection(ctx context.Context, info ConnectionInfo) (*Mongo, error) {
	timeout := info.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := options.Client().
		ApplyURI(info.URI()).
		SetServerSelectionTimeout(timeout)
	if info.AppName != "" {
		opts.SetAppName(info.AppName)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Mongo{Client: client, Database: client.Database(info.DB)}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.Client != nil {
		return m.Client.Disconnect(ctx)
	}
	return nil
}
