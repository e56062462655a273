package creds

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// AWSProvider discovers credentials through the AWS default chain:
// environment, shared config, SSO, and the EC2/ECS instance metadata
// services. Instance roles hand out session credentials that expire,
// which is what makes the cache's refresh margin matter.
func AWSProvider() Provider {
	return ProviderFunc(func(ctx context.Context) (Snapshot, error) {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return Snapshot{}, fmt.Errorf("load aws config: %w", err)
		}

		c, err := cfg.Credentials.Retrieve(ctx)
		if err != nil {
			return Snapshot{}, fmt.Errorf("retrieve aws credentials: %w", err)
		}

		return Snapshot{
			AccessKeyID:     c.AccessKeyID,
			SecretAccessKey: c.SecretAccessKey,
			SessionToken:    c.SessionToken,
			Region:          cfg.Region,
			Expires:         c.Expires,
			CanExpire:       c.CanExpire,
		}, nil
	})
}
