package cfg

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/keithlinneman/linnemanlabs-gate/internal/xerrors"
)

// ParameterGetter is the subset of *ssm.Client used to read thresholds.
type ParameterGetter interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Limits is the JSON document stored in the rate limit SSM parameter.
type Limits struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	RequestsPerHour   int `json:"requests_per_hour"`
}

// NewSSMClient builds an SSM client from the default AWS credential chain.
func NewSSMClient(ctx context.Context) (*ssm.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, xerrors.Wrap(err, "load AWS config")
	}
	return ssm.NewFromConfig(awsCfg), nil
}

// LoadLimits reads and validates the thresholds stored in parameter name.
func LoadLimits(ctx context.Context, client ParameterGetter, name string) (Limits, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return Limits{}, xerrors.Wrapf(err, "get SSM parameter %s", name)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return Limits{}, xerrors.Newf("SSM parameter %s has no value", name)
	}

	raw := strings.TrimSpace(*out.Parameter.Value)
	if raw == "" {
		return Limits{}, xerrors.Newf("SSM parameter %s is empty", name)
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	var l Limits
	if err := dec.Decode(&l); err != nil {
		return Limits{}, xerrors.Wrapf(err, "decode SSM parameter %s", name)
	}
	if err := validateLimits(l.RequestsPerMinute, l.RequestsPerHour); err != nil {
		return Limits{}, xerrors.Wrapf(err, "SSM parameter %s", name)
	}
	return l, nil
}

// ApplyLimits overrides the flag thresholds with l.
func (c *App) ApplyLimits(l Limits) {
	c.RateLimitPerMinute = l.RequestsPerMinute
	c.RateLimitPerHour = l.RequestsPerHour
}
