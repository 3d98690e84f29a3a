package deploy

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/inactive/internal/config"
	"github.com/vango-dev/inactive/internal/errors"
)

// DefaultRegion is used when neither deploy.region nor the AWS
// configuration names one.
const DefaultRegion = "us-east-1"

// NewClient builds an S3 client from the deploy section of cfg.
//
// Credentials and region come from the default AWS chain: environment,
// shared config and credentials files (AWS_PROFILE), SSO and instance
// roles. deploy.region overrides the region. Credentials are resolved once
// up front so a missing login fails before any upload starts.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Deploy.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Deploy.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.New("E152").WithDetail("loading AWS configuration").Wrap(err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = DefaultRegion
	}

	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, errors.New("E152").Wrap(err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Deploy.PathStyle
		if cfg.Deploy.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Deploy.Endpoint)
		}
	}), nil
}
