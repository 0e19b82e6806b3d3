package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ParameterSource lists SSM parameters below a path.
type ParameterSource interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// OverlayFromSSM merges every parameter below SSM_PARAMETER_PATH into the config
// map. Parameter names are reduced to their last path segment, so
// /portfolio/prod/SUPABASE_SERVICE_ROLE_KEY overrides SUPABASE_SERVICE_ROLE_KEY.
// It is a no-op when SSM_PARAMETER_PATH is unset.
func OverlayFromSSM(ctx context.Context, c map[string]string) error {
	prefix := GetString(c, "SSM_PARAMETER_PATH", "")
	if prefix == "" {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	return overlayParameters(ctx, ssm.NewFromConfig(awsCfg), prefix, c)
}

func overlayParameters(ctx context.Context, source ParameterSource, prefix string, c map[string]string) error {
	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	loaded := 0
	for {
		out, err := source.GetParametersByPath(ctx, input)
		if err != nil {
			return fmt.Errorf("get parameters by path %s: %w", prefix, err)
		}

		for _, param := range out.Parameters {
			name := path.Base(aws.ToString(param.Name))
			if name == "" || name == "." || name == "/" {
				continue
			}
			c[strings.ToUpper(name)] = aws.ToString(param.Value)
			loaded++
		}

		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}

	log.Info().Str("path", prefix).Int("count", loaded).Msg("Loaded configuration overlay from SSM")
	return nil
}
