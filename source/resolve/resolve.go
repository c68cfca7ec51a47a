// Package resolve turns layer locations into sources.
//
// Supported forms:
//
//	path/to/file.js                   local file (~ expanded)
//	file:///abs/path/user.js          local file
//	s3://bucket/key                   S3 object
//	ssm://name                        SSM parameter, e.g. ssm:///prefs/base
//	appconfig://app/env/profile       AppConfig configuration profile
package resolve

import (
	"fmt"
	"strings"

	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/source/aws"
	"github.com/yacchi/prefstack/source/fs"
)

// Options configures Open.
type Options struct {
	// FS options applied to file sources.
	FS []fs.Option
	// AWS options applied to remote sources.
	AWS []aws.Option
}

// Open returns the source for location.
func Open(location string, opts Options) (source.WatchableSource, error) {
	if location == "" {
		return nil, fmt.Errorf("empty source location")
	}

	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		return fs.New(location, opts.FS...), nil
	}

	switch scheme {
	case "file":
		if rest == "" {
			return nil, fmt.Errorf("invalid file location %q: missing path", location)
		}
		return fs.New(rest, opts.FS...), nil

	case "s3":
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return nil, fmt.Errorf("invalid S3 location %q: want s3://bucket/key", location)
		}
		return aws.NewS3Source(bucket, key, opts.AWS...), nil

	case "ssm":
		if strings.Trim(rest, "/") == "" {
			return nil, fmt.Errorf("invalid SSM location %q: missing parameter name", location)
		}
		return aws.NewParameterSource(rest, opts.AWS...), nil

	case "appconfig":
		parts := strings.Split(rest, "/")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid AppConfig location %q: want appconfig://application/environment/profile", location)
		}
		return aws.NewAppConfigSource(parts[0], parts[1], parts[2], opts.AWS...), nil
	}

	return nil, fmt.Errorf("unsupported source scheme %q in %q", scheme, location)
}

// IsRemote reports whether location names a non-file source.
func IsRemote(location string) bool {
	scheme, _, ok := strings.Cut(location, "://")
	return ok && scheme != "file"
}
