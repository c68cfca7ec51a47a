package aws

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/watcher"
)

// TypeParameterStore is the source type identifier for SSM Parameter Store sources.
const TypeParameterStore source.SourceType = "ssm"

// ParameterSource loads a layer document from an SSM Parameter Store parameter.
// This source is read-only; Save returns ErrSaveNotSupported.
type ParameterSource struct {
	name        string
	withDecrypt bool
	cfg         clientConfig
	client      *ssm.Client

	clientInit    sync.Once
	clientInitErr error
}

// Ensure ParameterSource implements the source.WatchableSource interface.
var _ source.WatchableSource = (*ParameterSource)(nil)

// ParameterOption configures a ParameterSource.
type ParameterOption func(*ParameterSource)

func (ParameterOption) awsSourceOption() {}

// WithSSMClient sets a custom SSM client.
// This overrides WithAWSConfig for the SSM client.
func WithSSMClient(client *ssm.Client) ParameterOption {
	return func(s *ParameterSource) {
		s.client = client
	}
}

// WithDecryption enables decryption for SecureString parameters.
// Default is false.
func WithDecryption(decrypt bool) ParameterOption {
	return func(s *ParameterSource) {
		s.withDecrypt = decrypt
	}
}

// NewParameterSource creates a Parameter Store source for the given parameter name.
//
// Example:
//
//	src := aws.NewParameterSource("/prefs/firefox/hardening")
//	src := aws.NewParameterSource("/prefs/firefox/proxy", aws.WithDecryption(true))
func NewParameterSource(name string, opts ...Option) *ParameterSource {
	s := &ParameterSource{
		name: name,
	}

	for _, opt := range opts {
		switch o := opt.(type) {
		case ClientOption:
			o(&s.cfg)
		case ParameterOption:
			o(s)
		}
	}

	return s
}

func (s *ParameterSource) ensureClient(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	s.clientInit.Do(func() {
		cfg, err := loadAWSConfig(ctx, &s.cfg)
		if err != nil {
			s.clientInitErr = err
			return
		}
		s.client = ssm.NewFromConfig(cfg)
	})
	return s.clientInitErr
}

func (s *ParameterSource) getParameter(ctx context.Context) (version int64, value []byte, err error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	if err := s.ensureClient(ctx); err != nil {
		return 0, nil, err
	}

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.name),
		WithDecryption: aws.Bool(s.withDecrypt),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return 0, nil, source.NewNotExistError(s.String(), err)
		}
		return 0, nil, fmt.Errorf("failed to get parameter %q: %w", s.name, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return 0, nil, source.NewNotExistError(s.String(), nil)
	}

	return result.Parameter.Version, []byte(*result.Parameter.Value), nil
}

// Load fetches the parameter value.
func (s *ParameterSource) Load(ctx context.Context) ([]byte, error) {
	_, value, err := s.getParameter(ctx)
	return value, err
}

// Save always returns ErrSaveNotSupported.
func (s *ParameterSource) Save(ctx context.Context, updateFunc source.UpdateFunc) error {
	return source.ErrSaveNotSupported
}

// CanSave returns false because Parameter Store sources do not support saving.
func (s *ParameterSource) CanSave() bool {
	return false
}

// Type returns the source type identifier.
func (s *ParameterSource) Type() source.SourceType {
	return TypeParameterStore
}

// String returns the ssm:// URI of the parameter.
func (s *ParameterSource) String() string {
	return "ssm://" + s.name
}

// Name returns the SSM parameter name.
func (s *ParameterSource) Name() string {
	return s.name
}

// Watch returns a polling watcher. The parameter version is compared
// before the value, so an unchanged version is never reported.
func (s *ParameterSource) Watch() (watcher.Watcher, error) {
	var (
		lastVersion int64
		lastValue   []byte
		hasVersion  bool
	)
	fetch := func(ctx context.Context) ([]byte, error) {
		version, value, err := s.getParameter(ctx)
		if err != nil {
			return nil, err
		}
		if hasVersion && version == lastVersion {
			return lastValue, nil
		}
		lastVersion, lastValue, hasVersion = version, value, true
		return value, nil
	}

	return watcher.NewPolling(fetch, s.cfg.watchOptions()...), nil
}
