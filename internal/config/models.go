package config

import "time"

// ArtifactsConfig locates the four data artifacts and the model
type ArtifactsConfig struct {
	BadFeed   string
	AllowList string
	Scaler    string
	Threshold string
	Model     string
}

// BloomConfig sizes the known-bad prefilter
type BloomConfig struct {
	ExpectedItems     uint
	FalsePositiveRate float64
}

// OracleConfig selects the scoring backend
type OracleConfig struct {
	Provider string
}

// ONNXConfig represents the configuration for the onnxruntime oracle
type ONNXConfig struct {
	SharedLibraryPath string
	IntraOpThreads    int
}

// HeadersConfig names the headers added to relayed mail
type HeadersConfig struct {
	Status string
	Score  string
	Reason string
}

// PostfixConfig is the downstream MTA for the SMTP link filter
type PostfixConfig struct {
	Enabled bool
	Address string
	Port    int
}

// ServerConfig represents the front-end filter configuration
type ServerConfig struct {
	FilterType     string
	ListenAddress  string
	BlockMalicious bool
	Headers        HeadersConfig
	Postfix        PostfixConfig
	MaxURLs        int
	ReadTimeout    time.Duration
}

// CacheConfig represents the verdict cache configuration
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
}

// GetArtifacts returns the artifact locations
func (c *Config) GetArtifacts() ArtifactsConfig {
	return ArtifactsConfig{
		BadFeed:   c.GetString("artifacts.bad_feed"),
		AllowList: c.GetString("artifacts.allow_list"),
		Scaler:    c.GetString("artifacts.scaler"),
		Threshold: c.GetString("artifacts.threshold"),
		Model:     c.GetString("artifacts.model"),
	}
}

// GetBloom returns the prefilter sizing
func (c *Config) GetBloom() BloomConfig {
	return BloomConfig{
		ExpectedItems:     c.GetUint("bloom.expected_items"),
		FalsePositiveRate: c.GetFloat64("bloom.false_positive_rate"),
	}
}

// GetOracle returns the oracle configuration
func (c *Config) GetOracle() OracleConfig {
	return OracleConfig{
		Provider: c.GetString("oracle.provider"),
	}
}

// GetONNX returns the onnxruntime configuration
func (c *Config) GetONNX() ONNXConfig {
	return ONNXConfig{
		SharedLibraryPath: c.GetString("onnx.shared_library_path"),
		IntraOpThreads:    c.GetInt("onnx.intra_op_threads"),
	}
}

// GetServer returns the server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	readTimeout, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		FilterType:     c.GetString("server.filter_type"),
		ListenAddress:  c.GetString("server.listen_address"),
		BlockMalicious: c.GetBool("server.block_malicious"),
		Headers: HeadersConfig{
			Status: c.GetString("server.headers.status"),
			Score:  c.GetString("server.headers.score"),
			Reason: c.GetString("server.headers.reason"),
		},
		Postfix: PostfixConfig{
			Enabled: c.GetBool("server.postfix.enabled"),
			Address: c.GetString("server.postfix.address"),
			Port:    c.GetInt("server.postfix.port"),
		},
		MaxURLs:     c.GetInt("server.max_urls"),
		ReadTimeout: readTimeout,
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}

	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
	}, nil
}
