package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	Logging    Logging    `mapstructure:"logging"`
	Data       Data       `mapstructure:"data"`
	Vectors    Vectors    `mapstructure:"vectors"`
	Features   Features   `mapstructure:"features"`
	Random     Random     `mapstructure:"random"`
	Strategies Strategies `mapstructure:"strategies"`
	KMeans     KMeans     `mapstructure:"kmeans"`
	DBSCAN     DBSCAN     `mapstructure:"dbscan"`
	MeanShift  MeanShift  `mapstructure:"meanshift"`
	Pipeline   Pipeline   `mapstructure:"pipeline"`
	Output     Output     `mapstructure:"output"`
	Similarity Similarity `mapstructure:"similarity"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	ConfigFile string `mapstructure:"config_file"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
	File   string `mapstructure:"file"`   // optional JSON log file
}

// Data holds the input and gold file locations
type Data struct {
	Input        string `mapstructure:"input"`
	NoCountInput string `mapstructure:"nocount_input"`
	DevInput     string `mapstructure:"dev_input"`
	Gold         string `mapstructure:"gold"`
}

// Vectors lists the embedding files used by each vector strategy. More than one file
// means the embeddings are concatenated per word.
type Vectors struct {
	Sparse  []string `mapstructure:"sparse"`
	Dense   []string `mapstructure:"dense"`
	NoCount []string `mapstructure:"nocount"`
}

// Features holds the dimension-drop settings
type Features struct {
	DropCount int   `mapstructure:"drop_count"`
	Seed      int64 `mapstructure:"seed"` // 0 seeds from the clock
}

// Random holds the random baseline settings
type Random struct {
	Seed int64 `mapstructure:"seed"`
}

// Strategies holds per-strategy clustering choices
type Strategies struct {
	Sparse  StrategyConfig `mapstructure:"sparse"`
	Dense   StrategyConfig `mapstructure:"dense"`
	NoCount StrategyConfig `mapstructure:"nocount"`
}

// StrategyConfig selects the fitter and cluster-count policy of a vector strategy
type StrategyConfig struct {
	Algorithm string `mapstructure:"algorithm"`
	Noise     string `mapstructure:"noise"`    // group or singletons
	KPolicy   string `mapstructure:"k_policy"` // nocount only: ceiling or silhouette
	Ceiling   int    `mapstructure:"ceiling"`  // nocount only
}

// KMeans holds k-means settings
type KMeans struct {
	MaxIterations int     `mapstructure:"max_iterations"`
	Tolerance     float64 `mapstructure:"tolerance"`
	NInit         int     `mapstructure:"n_init"`
	Seed          int64   `mapstructure:"seed"`
}

// DBSCAN holds DBSCAN settings
type DBSCAN struct {
	Eps        float64 `mapstructure:"eps"`
	MinSamples int     `mapstructure:"min_samples"`
}

// MeanShift holds mean-shift settings
type MeanShift struct {
	Bandwidth     float64 `mapstructure:"bandwidth"`
	Quantile      float64 `mapstructure:"quantile"`
	MaxIterations int     `mapstructure:"max_iterations"`
}

// Pipeline holds evaluation driver settings
type Pipeline struct {
	FailFast        bool    `mapstructure:"fail_fast"`
	Instrument      bool    `mapstructure:"instrument"` // log silhouette per word
	MinScore        float64 `mapstructure:"min_score"`
	MaxFailureRatio float64 `mapstructure:"max_failure_ratio"`
	BlockOnFailure  bool    `mapstructure:"block_on_failure"`
}

// Output holds output artifact names
type Output struct {
	Directory string `mapstructure:"directory"`
	Random    string `mapstructure:"random"`
	Sparse    string `mapstructure:"sparse"`
	DevSparse string `mapstructure:"dev_sparse"`
	Dense     string `mapstructure:"dense"`
	NoCount   string `mapstructure:"nocount"`
	Reports   string `mapstructure:"reports"`
}

// Similarity holds the word-similarity correlation settings
type Similarity struct {
	Pairs   string   `mapstructure:"pairs"`
	Vectors []string `mapstructure:"vectors"`
	Top     int      `mapstructure:"top"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".paracluster")
		viper.SetConfigType("yaml")
	}

	// Set defaults
	setDefaults()

	// Bind environment variables
	bindEnvironmentVariables()

	// PARACLUSTER_FEATURES_DROP_COUNT -> features.drop_count
	viper.SetEnvPrefix("PARACLUSTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal into struct
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	// Apply post-processing
	postProcessConfig(config)

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.file", "")

	// Data defaults
	viper.SetDefault("data.input", "data/test_input.txt")
	viper.SetDefault("data.nocount_input", "data/test_nok_input.txt")
	viper.SetDefault("data.dev_input", "data/dev_input.txt")
	viper.SetDefault("data.gold", "data/dev_output.txt")

	// Vector defaults
	viper.SetDefault("vectors.sparse", []string{"vectors/coocvec-500mostfreq-window-3.filter.txt"})
	viper.SetDefault("vectors.dense", []string{"vectors/wiki-news-300d-1M.txt"})
	viper.SetDefault("vectors.nocount", []string{
		"vectors/wiki-news-300d-1M.txt",
		"vectors/glove.twitter.27B.200d.txt",
	})

	// Feature defaults
	viper.SetDefault("features.drop_count", 35)
	viper.SetDefault("features.seed", 0)

	// Random baseline defaults
	viper.SetDefault("random.seed", 123)

	// Strategy defaults
	viper.SetDefault("strategies.sparse.algorithm", "meanshift")
	viper.SetDefault("strategies.sparse.noise", "group")
	viper.SetDefault("strategies.dense.algorithm", "dbscan")
	viper.SetDefault("strategies.dense.noise", "group")
	viper.SetDefault("strategies.nocount.algorithm", "kmeans")
	viper.SetDefault("strategies.nocount.noise", "group")
	viper.SetDefault("strategies.nocount.k_policy", "ceiling")
	viper.SetDefault("strategies.nocount.ceiling", 6)

	// Fitter defaults
	viper.SetDefault("kmeans.max_iterations", 300)
	viper.SetDefault("kmeans.tolerance", 1e-4)
	viper.SetDefault("kmeans.n_init", 10)
	viper.SetDefault("kmeans.seed", 0)
	viper.SetDefault("dbscan.eps", 20.0)
	viper.SetDefault("dbscan.min_samples", 2)
	viper.SetDefault("meanshift.bandwidth", 0.0)
	viper.SetDefault("meanshift.quantile", 0.3)
	viper.SetDefault("meanshift.max_iterations", 300)

	// Pipeline defaults
	viper.SetDefault("pipeline.fail_fast", false)
	viper.SetDefault("pipeline.instrument", false)
	viper.SetDefault("pipeline.min_score", 0.0)
	viper.SetDefault("pipeline.max_failure_ratio", 1.0)
	viper.SetDefault("pipeline.block_on_failure", false)

	// Output defaults
	viper.SetDefault("output.directory", ".")
	viper.SetDefault("output.random", "test_output_random.txt")
	viper.SetDefault("output.sparse", "test_output_sparse.txt")
	viper.SetDefault("output.dev_sparse", "dev_output_sparse.txt")
	viper.SetDefault("output.dense", "test_output_dense.txt")
	viper.SetDefault("output.nocount", "test_output_nok.txt")
	viper.SetDefault("output.reports", "reports")

	// Similarity defaults
	viper.SetDefault("similarity.pairs", "data/SimLex-999.txt")
	viper.SetDefault("similarity.vectors", []string{"vectors/coocvec-500mostfreq-window-3.filter.txt"})
	viper.SetDefault("similarity.top", 5)
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"PARACLUSTER_DEBUG",
	})

	bindEnvKeys("logging.level", []string{
		"LOG_LEVEL",
		"PARACLUSTER_LOG_LEVEL",
	})

	bindEnvKeys("features.seed", []string{
		"PARACLUSTER_SEED",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) {
	if config.App.Debug {
		config.Logging.Level = "debug"
	}

	// Expand paths
	config.Data.Input = expandPath(config.Data.Input)
	config.Data.NoCountInput = expandPath(config.Data.NoCountInput)
	config.Data.DevInput = expandPath(config.Data.DevInput)
	config.Data.Gold = expandPath(config.Data.Gold)
	config.Logging.File = expandPath(config.Logging.File)
	config.Output.Directory = expandPath(config.Output.Directory)
	config.Similarity.Pairs = expandPath(config.Similarity.Pairs)
	config.Vectors.Sparse = expandPaths(config.Vectors.Sparse)
	config.Vectors.Dense = expandPaths(config.Vectors.Dense)
	config.Vectors.NoCount = expandPaths(config.Vectors.NoCount)
	config.Similarity.Vectors = expandPaths(config.Similarity.Vectors)

	for _, s := range []*StrategyConfig{&config.Strategies.Sparse, &config.Strategies.Dense, &config.Strategies.NoCount} {
		s.Algorithm = strings.ToLower(strings.TrimSpace(s.Algorithm))
		s.Noise = strings.ToLower(strings.TrimSpace(s.Noise))
		s.KPolicy = strings.ToLower(strings.TrimSpace(s.KPolicy))
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func expandPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, expandPath(p))
		}
	}
	return out
}

var (
	knownAlgorithms = []string{"kmeans", "dbscan", "meanshift", "ward"}
	knownNoise      = []string{"group", "singletons"}
	knownKPolicies  = []string{"input", "ceiling", "silhouette"}
	knownLogFormats = []string{"text", "json"}
)

// validateConfig rejects settings the pipeline cannot run with
func validateConfig(config *Config) error {
	var errors []string

	if config.Features.DropCount < 0 {
		errors = append(errors, fmt.Sprintf("features.drop_count must not be negative, got %d", config.Features.DropCount))
	}

	strategies := map[string]StrategyConfig{
		"sparse":  config.Strategies.Sparse,
		"dense":   config.Strategies.Dense,
		"nocount": config.Strategies.NoCount,
	}
	for _, name := range []string{"sparse", "dense", "nocount"} {
		s := strategies[name]
		if !contains(knownAlgorithms, s.Algorithm) {
			errors = append(errors, fmt.Sprintf("Unknown algorithm for strategies.%s: %s. Supported: %s",
				name, s.Algorithm, strings.Join(knownAlgorithms, ", ")))
		}
		if !contains(knownNoise, s.Noise) {
			errors = append(errors, fmt.Sprintf("Unknown noise policy for strategies.%s: %s. Supported: %s",
				name, s.Noise, strings.Join(knownNoise, ", ")))
		}
	}

	nocount := config.Strategies.NoCount
	if !contains(knownKPolicies, nocount.KPolicy) {
		errors = append(errors, fmt.Sprintf("Unknown k policy for strategies.nocount: %s. Supported: %s",
			nocount.KPolicy, strings.Join(knownKPolicies, ", ")))
	}
	if nocount.Ceiling <= 0 {
		errors = append(errors, fmt.Sprintf("strategies.nocount.ceiling must be positive, got %d", nocount.Ceiling))
	}

	if config.DBSCAN.Eps <= 0 {
		errors = append(errors, fmt.Sprintf("dbscan.eps must be positive, got %g", config.DBSCAN.Eps))
	}
	if config.DBSCAN.MinSamples <= 0 {
		errors = append(errors, fmt.Sprintf("dbscan.min_samples must be positive, got %d", config.DBSCAN.MinSamples))
	}
	if config.MeanShift.Bandwidth < 0 {
		errors = append(errors, fmt.Sprintf("meanshift.bandwidth must not be negative, got %g", config.MeanShift.Bandwidth))
	}
	if config.MeanShift.Quantile <= 0 || config.MeanShift.Quantile > 1 {
		errors = append(errors, fmt.Sprintf("meanshift.quantile must be in (0, 1], got %g", config.MeanShift.Quantile))
	}
	if config.KMeans.NInit <= 0 {
		errors = append(errors, fmt.Sprintf("kmeans.n_init must be positive, got %d", config.KMeans.NInit))
	}

	if config.Pipeline.MinScore < 0 || config.Pipeline.MinScore > 1 {
		errors = append(errors, fmt.Sprintf("pipeline.min_score must be in [0, 1], got %g", config.Pipeline.MinScore))
	}
	if config.Pipeline.MaxFailureRatio < 0 || config.Pipeline.MaxFailureRatio > 1 {
		errors = append(errors, fmt.Sprintf("pipeline.max_failure_ratio must be in [0, 1], got %g", config.Pipeline.MaxFailureRatio))
	}

	if !contains(knownLogFormats, strings.ToLower(config.Logging.Format)) {
		errors = append(errors, fmt.Sprintf("Unknown log format: %s. Supported: text, json", config.Logging.Format))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Convenience getters for commonly used configuration values
func GetLogging() Logging       { return Get().Logging }
func GetData() Data             { return Get().Data }
func GetVectors() Vectors       { return Get().Vectors }
func GetOutput() Output         { return Get().Output }
func GetSimilarity() Similarity { return Get().Similarity }
func IsDebugMode() bool         { return Get().App.Debug }

// OutputPath joins name onto the configured output directory
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) || c.Output.Directory == "" {
		return name
	}
	return filepath.Join(c.Output.Directory, name)
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
