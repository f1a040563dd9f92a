package main

import (
	"context"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/cdstlab/optimizer/internal/distance"
	"github.com/cdstlab/optimizer/internal/problem"
	"github.com/cdstlab/optimizer/pkg/api"
)

// loadNetworkConfig reads a JSON or YAML network config file. sigs.k8s.io/yaml
// converts YAML to JSON before unmarshaling, so plain JSON input works
// unchanged.
func loadNetworkConfig(path string) (*api.NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network config %s: %w", path, err)
	}
	var cfg api.NetworkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing network config %s: %w", path, err)
	}
	return &cfg, nil
}

// buildProblem loads the network config at path and materializes it into a
// Problem using a Provider constructed from the shared flags.
func buildProblem(ctx context.Context, path string, f *commonFlags) (*problem.Problem, *distance.Provider, error) {
	cfg, err := loadNetworkConfig(path)
	if err != nil {
		return nil, nil, err
	}
	provider := f.provider()
	builder := problem.NewBuilder(provider)
	p, err := builder.Build(ctx, cfg.ToSnapshot(), problem.DateWindow{})
	if err != nil {
		provider.Close()
		return nil, nil, fmt.Errorf("building problem: %w", err)
	}
	return p, provider, nil
}
