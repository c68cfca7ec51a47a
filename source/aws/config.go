// Package aws provides read-only preference sources backed by AWS services:
// S3 objects, SSM Parameter Store parameters and AppConfig profiles.
// Each source supports polling-based watching with the cheapest change
// signal the service offers (ETag, parameter version, session token).
package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/yacchi/prefstack/watcher"
)

// Option is a marker interface for all AWS source options.
// Only types that implement this interface can be passed to NewXxxSource functions.
type Option interface {
	awsSourceOption()
}

// clientConfig holds settings shared by all AWS sources.
type clientConfig struct {
	awsConfig    *aws.Config
	pollInterval time.Duration
}

// ClientOption configures behavior shared by every AWS source.
type ClientOption func(*clientConfig)

func (ClientOption) awsSourceOption() {}

// WithAWSConfig sets a custom AWS configuration.
// If not provided, the default configuration is loaded from the environment.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(ctx, config.WithRegion("eu-central-1"))
//	src := aws.NewS3Source("prefs", "team/base.js", aws.WithAWSConfig(cfg))
func WithAWSConfig(cfg aws.Config) ClientOption {
	return func(c *clientConfig) {
		c.awsConfig = &cfg
	}
}

// WithPollInterval sets the interval used by the watcher returned from Watch.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.pollInterval = d
	}
}

func (c *clientConfig) watchOptions() []watcher.WatchConfigOption {
	if c.pollInterval <= 0 {
		return nil
	}
	return []watcher.WatchConfigOption{watcher.WithPollInterval(c.pollInterval)}
}

// loadAWSConfig returns the AWS config, loading the default if not set.
func loadAWSConfig(ctx context.Context, cfg *clientConfig) (aws.Config, error) {
	if cfg.awsConfig != nil {
		return *cfg.awsConfig, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}
