package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmMaxBatchSize is the GetParameters per-call limit imposed by AWS.
const ssmMaxBatchSize = 10

// ssmClient is the subset of the SSM SDK client used by SSMProvider.
// Tests substitute a fake through newSSMProviderWithClient.
type ssmClient interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMProvider implements SecretProvider against AWS Systems Manager
// Parameter Store. It is the provider for every environment except local,
// where the loader reads keys straight from the environment instead.
//
// Provider API keys are stored as SecureString parameters and are named by
// the *_SSM_PARAM variables (WEATHER_API_KEY_SSM_PARAM,
// NARRATIVE_API_KEY_SSM_PARAM). Parameters live in the same region the
// service runs in.
type SSMProvider struct {
	// region is the AWS region that holds the parameters.
	region string

	// endpoint, when set, replaces the SSM service URL. It points the
	// provider at LocalStack during development.
	endpoint string

	// client is created lazily on first use unless injected.
	client ssmClient
}

// NewSSMProvider creates an SSMProvider for region. endpoint overrides the
// service URL (LocalStack); pass "" in real deployments.
func NewSSMProvider(region, endpoint string) *SSMProvider {
	return &SSMProvider{
		region:   region,
		endpoint: endpoint,
	}
}

// newSSMProviderWithClient creates an SSMProvider around an existing client.
func newSSMProviderWithClient(region string, client ssmClient) *SSMProvider {
	return &SSMProvider{
		region: region,
		client: client,
	}
}

// ensureClient builds the SSM client from the SDK default credential chain
// the first time it is needed.
func (p *SSMProvider) ensureClient(ctx context.Context) error {
	if p.client != nil {
		return nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.region))
	if err != nil {
		return fmt.Errorf("loading AWS config for SSM (region=%s): %w", p.region, err)
	}

	p.client = ssm.NewFromConfig(cfg, func(o *ssm.Options) {
		if p.endpoint != "" {
			o.BaseEndpoint = aws.String(p.endpoint)
		}
	})
	return nil
}

// GetParametersBatch resolves keys (SSM parameter paths) to their decrypted
// values.
//
// Implementation details:
//   - Keys are sent in groups of ssmMaxBatchSize with WithDecryption set.
//   - The context is checked before each group, so a Lambda cold start that
//     runs out of time stops early.
//   - Any parameter SSM lists as invalid fails the whole call; a missing API
//     key is a configuration error, not a partial result.
//   - The result maps parameter path to plaintext value.
func (p *SSMProvider) GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return make(map[string]string), nil
	}

	if err := p.ensureClient(ctx); err != nil {
		return nil, err
	}

	result := make(map[string]string, len(keys))

	for i := 0; i < len(keys); i += ssmMaxBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during SSM parameter retrieval: %w", err)
		}

		end := min(i+ssmMaxBatchSize, len(keys))
		batch := keys[i:end]

		output, err := p.client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          batch,
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("SSM GetParameters failed (batch %d-%d of %d): %w",
				i, end-1, len(keys), err)
		}

		for _, param := range output.Parameters {
			if param.Name != nil && param.Value != nil {
				result[*param.Name] = *param.Value
			}
		}

		if len(output.InvalidParameters) > 0 {
			return nil, fmt.Errorf("SSM parameters not found: %v", output.InvalidParameters)
		}
	}

	return result, nil
}
