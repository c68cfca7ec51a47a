package aws

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/appconfigdata"
	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/watcher"
)

// AppConfigSource loads a layer document from an AWS AppConfig
// configuration profile. This source is read-only.
type AppConfigSource struct {
	application          string
	environment          string
	configurationProfile string
	cfg                  clientConfig
	client               *appconfigdata.Client

	clientInit    sync.Once
	clientInitErr error
}

// Ensure AppConfigSource implements the source.WatchableSource interface.
var _ source.WatchableSource = (*AppConfigSource)(nil)

// TypeAppConfig is the source type identifier for AppConfig sources.
const TypeAppConfig source.SourceType = "appconfig"

// AppConfigOption configures an AppConfigSource.
type AppConfigOption func(*AppConfigSource)

func (AppConfigOption) awsSourceOption() {}

// WithAppConfigClient sets a custom AppConfig data client.
// This overrides WithAWSConfig for the AppConfig client.
func WithAppConfigClient(client *appconfigdata.Client) AppConfigOption {
	return func(s *AppConfigSource) {
		s.client = client
	}
}

// NewAppConfigSource creates an AppConfig source for the given application, environment,
// and configuration profile.
//
// Example:
//
//	src := aws.NewAppConfigSource("browser-fleet", "production", "hardening")
func NewAppConfigSource(application, environment, configurationProfile string, opts ...Option) *AppConfigSource {
	s := &AppConfigSource{
		application:          application,
		environment:          environment,
		configurationProfile: configurationProfile,
	}

	for _, opt := range opts {
		switch o := opt.(type) {
		case ClientOption:
			o(&s.cfg)
		case AppConfigOption:
			o(s)
		}
	}

	return s
}

func (s *AppConfigSource) ensureClient(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	s.clientInit.Do(func() {
		cfg, err := loadAWSConfig(ctx, &s.cfg)
		if err != nil {
			s.clientInitErr = err
			return
		}
		s.client = appconfigdata.NewFromConfig(cfg)
	})
	return s.clientInitErr
}

// startSession starts a new configuration session and returns the initial token.
func (s *AppConfigSource) startSession(ctx context.Context) (string, error) {
	result, err := s.client.StartConfigurationSession(ctx, &appconfigdata.StartConfigurationSessionInput{
		ApplicationIdentifier:          aws.String(s.application),
		EnvironmentIdentifier:          aws.String(s.environment),
		ConfigurationProfileIdentifier: aws.String(s.configurationProfile),
	})
	if err != nil {
		return "", fmt.Errorf("failed to start configuration session for %s/%s/%s: %w",
			s.application, s.environment, s.configurationProfile, err)
	}

	if result.InitialConfigurationToken == nil {
		return "", fmt.Errorf("no initial configuration token returned")
	}

	return *result.InitialConfigurationToken, nil
}

// Load fetches the current configuration. Every call starts a fresh session.
func (s *AppConfigSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.ensureClient(ctx); err != nil {
		return nil, err
	}

	token, err := s.startSession(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetLatestConfiguration(ctx, &appconfigdata.GetLatestConfigurationInput{
		ConfigurationToken: aws.String(token),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration for %s/%s/%s: %w",
			s.application, s.environment, s.configurationProfile, err)
	}

	if len(result.Configuration) == 0 {
		return nil, source.NewNotExistError(s.String(), nil)
	}

	return result.Configuration, nil
}

// Save always returns ErrSaveNotSupported.
func (s *AppConfigSource) Save(ctx context.Context, updateFunc source.UpdateFunc) error {
	return source.ErrSaveNotSupported
}

// CanSave returns false because AppConfig sources do not support saving.
func (s *AppConfigSource) CanSave() bool {
	return false
}

// Type returns the source type identifier.
func (s *AppConfigSource) Type() source.SourceType {
	return TypeAppConfig
}

// String returns the appconfig:// URI of the profile.
func (s *AppConfigSource) String() string {
	return fmt.Sprintf("appconfig://%s/%s/%s", s.application, s.environment, s.configurationProfile)
}

// Application returns the AppConfig application identifier.
func (s *AppConfigSource) Application() string {
	return s.application
}

// Environment returns the AppConfig environment identifier.
func (s *AppConfigSource) Environment() string {
	return s.environment
}

// ConfigurationProfile returns the AppConfig configuration profile identifier.
func (s *AppConfigSource) ConfigurationProfile() string {
	return s.configurationProfile
}

// Watch returns a polling watcher driven by AppConfig session tokens. The
// service answers with an empty body while nothing changed, in which case
// the previously fetched configuration is handed to the watcher again.
func (s *AppConfigSource) Watch() (watcher.Watcher, error) {
	var (
		token    string
		lastData []byte
	)

	fetch := func(ctx context.Context) ([]byte, error) {
		if err := s.ensureClient(ctx); err != nil {
			return nil, err
		}

		if token == "" {
			t, err := s.startSession(ctx)
			if err != nil {
				return nil, err
			}
			token = t
		}

		result, err := s.client.GetLatestConfiguration(ctx, &appconfigdata.GetLatestConfigurationInput{
			ConfigurationToken: aws.String(token),
		})
		if err != nil {
			// the token may have expired; start over on the next poll
			token = ""
			return nil, fmt.Errorf("failed to get configuration for %s: %w", s, err)
		}

		if result.NextPollConfigurationToken != nil {
			token = *result.NextPollConfigurationToken
		}

		if len(result.Configuration) > 0 {
			lastData = result.Configuration
		}
		return lastData, nil
	}

	return watcher.NewPolling(fetch, s.cfg.watchOptions()...), nil
}
