package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// GAConfig is the YAML-loaded GA hyperparameter file read by the
// `partition` subcommand, mirroring the teacher's
// coefficients_config.go yaml.Unmarshal pattern.
type GAConfig struct {
	Variant        string   `yaml:"variant"` // "canonical" or "hybrid"
	Seed           int64    `yaml:"seed"`
	Population     int      `yaml:"population"`
	Generations    int      `yaml:"generations"`
	CrossoverRate  float64  `yaml:"crossover_rate"`
	MutationRate   float64  `yaml:"mutation_rate"`
	TournamentSize int      `yaml:"tournament_size"`
	EliteCount     int      `yaml:"elite_count"`
	MinPartitions  int      `yaml:"min_partitions"`
	MaxPartitions  int      `yaml:"max_partitions"`
	UbFactor       float64  `yaml:"ub_factor"`
	FloorplanIters int      `yaml:"floorplan_iters"`
	Threads        int      `yaml:"threads"`
	TechNodes      []string `yaml:"tech_nodes"`
}

func LoadGAConfig(path string) (GAConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GAConfig{}, err
	}
	var cfg GAConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GAConfig{}, err
	}
	return cfg, nil
}
