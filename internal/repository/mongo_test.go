package repository_test

import (
	"context"
	"fmt"
	"net/url"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// startMongo runs a single-node replica set, which transactions require.
func startMongo(ctx context.Context) (*mongodb.MongoDBContainer, string, error) {
	mongoContainer, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	if err != nil {
		return nil, "", fmt.Errorf("mongodb.Run: %w", err)
	}

	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("mc.ConnectionString: %w", err)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("url.Parse: %w", err)
	}
	q := u.Query()
	q.Set("directConnection", "true")
	u.RawQuery = q.Encode()

	return mongoContainer, u.String(), nil
}
