// README: Cloud Storage client initialisation for remote model artifacts.
package infra

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCS creates a storage client. If credentialsFile is non-empty it is used
// as the service-account JSON path; otherwise application-default credentials
// / GOOGLE_APPLICATION_CREDENTIALS are used.
func NewGCS(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return client, nil
}
