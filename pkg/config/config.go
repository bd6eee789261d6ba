package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	// Environment
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Contest rules
	SalaryCap int `mapstructure:"SALARY_CAP"`

	// Simulation
	Iterations          int     `mapstructure:"ITERATIONS"`
	SimulationBatchSize int     `mapstructure:"SIMULATION_BATCH_SIZE"`
	SimulationWorkers   int     `mapstructure:"SIMULATION_WORKERS"`
	Randomness          float64 `mapstructure:"RANDOMNESS"`
	TargetTop           float64 `mapstructure:"TARGET_TOP"`

	// Builder
	MaxAttemptsPerLineup int `mapstructure:"MAX_ATTEMPTS_PER_LINEUP"`

	// Genetic algorithm
	GeneticPopulation     int     `mapstructure:"GENETIC_POPULATION"`
	GeneticGenerations    int     `mapstructure:"GENETIC_GENERATIONS"`
	GeneticEliteRate      float64 `mapstructure:"GENETIC_ELITE_RATE"`
	GeneticCrossoverRate  float64 `mapstructure:"GENETIC_CROSSOVER_RATE"`
	GeneticMutationRate   float64 `mapstructure:"GENETIC_MUTATION_RATE"`
	GeneticTournamentSize int     `mapstructure:"GENETIC_TOURNAMENT_SIZE"`
	GeneticMaxStagnation  int     `mapstructure:"GENETIC_MAX_STAGNATION"`
	GeneticFitnessBatch   int     `mapstructure:"GENETIC_FITNESS_BATCH"`

	// Progress reporting
	ProgressUpdatesPerSecond float64 `mapstructure:"PROGRESS_UPDATES_PER_SECOND"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SALARY_CAP", 50000)
	viper.SetDefault("ITERATIONS", 10000)
	viper.SetDefault("SIMULATION_BATCH_SIZE", 1000)
	viper.SetDefault("SIMULATION_WORKERS", 4)
	viper.SetDefault("RANDOMNESS", 0.3)
	viper.SetDefault("TARGET_TOP", 0.01)
	viper.SetDefault("MAX_ATTEMPTS_PER_LINEUP", 5)
	viper.SetDefault("GENETIC_POPULATION", 100)
	viper.SetDefault("GENETIC_GENERATIONS", 50)
	viper.SetDefault("GENETIC_ELITE_RATE", 0.10)
	viper.SetDefault("GENETIC_CROSSOVER_RATE", 0.60)
	viper.SetDefault("GENETIC_MUTATION_RATE", 0.30)
	viper.SetDefault("GENETIC_TOURNAMENT_SIZE", 3)
	viper.SetDefault("GENETIC_MAX_STAGNATION", 8)
	viper.SetDefault("GENETIC_FITNESS_BATCH", 10)
	viper.SetDefault("PROGRESS_UPDATES_PER_SECOND", 20)

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// Default returns the engine defaults without consulting the environment.
func Default() *Config {
	return &Config{
		Env:                      "development",
		LogLevel:                 "info",
		SalaryCap:                50000,
		Iterations:               10000,
		SimulationBatchSize:      1000,
		SimulationWorkers:        4,
		Randomness:               0.3,
		TargetTop:                0.01,
		MaxAttemptsPerLineup:     5,
		GeneticPopulation:        100,
		GeneticGenerations:       50,
		GeneticEliteRate:         0.10,
		GeneticCrossoverRate:     0.60,
		GeneticMutationRate:      0.30,
		GeneticTournamentSize:    3,
		GeneticMaxStagnation:     8,
		GeneticFitnessBatch:      10,
		ProgressUpdatesPerSecond: 20,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
