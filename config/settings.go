// Package config provides configuration structures for the anagram search service and its client.
// Settings can be loaded from a TOML or YAML file and overridden from command-line flags.
package config

import (
	"net/url"
	"strings"
	"time"
)

// DefaultCorpusSource is the public word list used when no source is configured.
const DefaultCorpusSource = "https://raw.githubusercontent.com/dwyl/english-words/master/words.txt"

// Snapshot store kinds
const (
	SnapshotNone = "none"
	SnapshotFile = "file"
	SnapshotNATS = "nats"
)

// Settings contains every configuration option of the server and the client.
type Settings struct {
	Server   ServerSettings   `toml:"server" yaml:"server"`
	Corpus   CorpusSettings   `toml:"corpus" yaml:"corpus"`
	Snapshot SnapshotSettings `toml:"snapshot" yaml:"snapshot"`
	Client   ClientSettings   `toml:"client" yaml:"client"`
	Log      LogSettings      `toml:"log" yaml:"log"`
}

// ServerSettings configures the HTTP search endpoint.
type ServerSettings struct {
	Port             string  `toml:"port" yaml:"port"`                           // Port to listen on (e.g., "8080")
	RateLimit        float64 `toml:"rate_limit" yaml:"rate_limit"`               // Requests per second across all clients; <= 0 disables limiting
	RateBurst        int     `toml:"rate_burst" yaml:"rate_burst"`               // Burst size for the rate limiter
	JobWorkers       int     `toml:"job_workers" yaml:"job_workers"`             // Concurrent background jobs (corpus refreshes)
	MetricsNamespace string  `toml:"metrics_namespace" yaml:"metrics_namespace"` // Prometheus namespace
	WarmCorpus       bool    `toml:"warm_corpus" yaml:"warm_corpus"`             // Load the corpus at startup instead of on the first search
}

// CorpusSettings configures where the word list comes from.
type CorpusSettings struct {
	Source       string        `toml:"source" yaml:"source"`               // http(s)://, file://, s3://bucket/key or minio://bucket/key
	FetchTimeout time.Duration `toml:"fetch_timeout" yaml:"fetch_timeout"` // Upper bound on a single corpus fetch
	MaxBytes     int64         `toml:"max_bytes" yaml:"max_bytes"`         // Payloads larger than this are rejected
	S3           S3Settings    `toml:"s3" yaml:"s3"`
	MinIO        MinIOSettings `toml:"minio" yaml:"minio"`
}

// S3Settings configures the s3:// corpus source.
type S3Settings struct {
	Region       string `toml:"region" yaml:"region"`
	Endpoint     string `toml:"endpoint" yaml:"endpoint"` // Optional custom endpoint (e.g., LocalStack)
	UsePathStyle bool   `toml:"use_path_style" yaml:"use_path_style"`
}

// MinIOSettings configures the minio:// corpus source.
type MinIOSettings struct {
	Endpoint  string `toml:"endpoint" yaml:"endpoint"` // host:port
	AccessKey string `toml:"access_key" yaml:"access_key"`
	SecretKey string `toml:"secret_key" yaml:"secret_key"`
	Secure    bool   `toml:"secure" yaml:"secure"`
}

// SnapshotSettings configures the cross-process corpus snapshot.
type SnapshotSettings struct {
	Kind        string `toml:"kind" yaml:"kind"`               // none, file or nats
	Path        string `toml:"path" yaml:"path"`               // File path for kind=file
	Compression string `toml:"compression" yaml:"compression"` // zstd, lz4 or none
	NATSURL     string `toml:"nats_url" yaml:"nats_url"`       // Server URL for kind=nats
	Bucket      string `toml:"bucket" yaml:"bucket"`           // JetStream object store bucket
	Object      string `toml:"object" yaml:"object"`           // Object name inside the bucket
}

// ClientSettings configures the query controller and its HTTP searcher.
type ClientSettings struct {
	ServerURL      string        `toml:"server_url" yaml:"server_url"`
	Debounce       time.Duration `toml:"debounce" yaml:"debounce"`               // Quiet period before a query is sent
	RequestTimeout time.Duration `toml:"request_timeout" yaml:"request_timeout"` // Per-request HTTP timeout
}

// LogSettings configures the charm logger.
type LogSettings struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format"` // text, json or logfmt
}

// DefaultSettings returns Settings with default values.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills every zero-valued option with its default
func (s *Settings) ApplyDefaults() {
	if s.Server.Port == "" {
		s.Server.Port = "8080"
	}
	if s.Server.RateBurst <= 0 && s.Server.RateLimit > 0 {
		s.Server.RateBurst = int(s.Server.RateLimit) + 1
	}
	if s.Server.JobWorkers <= 0 {
		s.Server.JobWorkers = 1
	}
	if s.Server.MetricsNamespace == "" {
		s.Server.MetricsNamespace = "anagram"
	}

	if s.Corpus.Source == "" {
		s.Corpus.Source = DefaultCorpusSource
	}
	if s.Corpus.FetchTimeout <= 0 {
		s.Corpus.FetchTimeout = 30 * time.Second
	}
	if s.Corpus.MaxBytes <= 0 {
		s.Corpus.MaxBytes = 64 << 20
	}
	if s.Corpus.S3.Region == "" {
		s.Corpus.S3.Region = "us-east-1"
	}

	if s.Snapshot.Kind == "" {
		s.Snapshot.Kind = SnapshotNone
	}
	if s.Snapshot.Compression == "" {
		s.Snapshot.Compression = "zstd"
	}
	if s.Snapshot.Bucket == "" {
		s.Snapshot.Bucket = "anagram-corpus"
	}
	if s.Snapshot.Object == "" {
		s.Snapshot.Object = "words"
	}

	if s.Client.ServerURL == "" {
		s.Client.ServerURL = "http://localhost:" + s.Server.Port
	}
	if s.Client.Debounce <= 0 {
		s.Client.Debounce = 400 * time.Millisecond
	}
	if s.Client.RequestTimeout <= 0 {
		s.Client.RequestTimeout = 45 * time.Second
	}

	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if s.Log.Format == "" {
		s.Log.Format = "text"
	}
}

// Validate checks the settings and returns one message per problem found.
func (s *Settings) Validate() []string {
	var errors []string

	u, err := url.Parse(s.Corpus.Source)
	if err != nil {
		errors = append(errors, "corpus.source is not a valid URL: "+err.Error())
	} else {
		switch u.Scheme {
		case "http", "https", "file":
		case "s3", "minio":
			if u.Host == "" || strings.Trim(u.Path, "/") == "" {
				errors = append(errors, "corpus.source must look like "+u.Scheme+"://bucket/key")
			}
			if u.Scheme == "minio" && s.Corpus.MinIO.Endpoint == "" {
				errors = append(errors, "corpus.minio.endpoint is required for minio:// sources")
			}
		default:
			errors = append(errors, "corpus.source has unsupported scheme '"+u.Scheme+"'")
		}
	}

	switch s.Snapshot.Kind {
	case SnapshotNone:
	case SnapshotFile:
		if strings.TrimSpace(s.Snapshot.Path) == "" {
			errors = append(errors, "snapshot.path is required when snapshot.kind is 'file'")
		}
	case SnapshotNATS:
		if strings.TrimSpace(s.Snapshot.NATSURL) == "" {
			errors = append(errors, "snapshot.nats_url is required when snapshot.kind is 'nats'")
		}
	default:
		errors = append(errors, "snapshot.kind must be one of 'none', 'file', 'nats'")
	}

	switch s.Snapshot.Compression {
	case "zstd", "lz4", "none":
	default:
		errors = append(errors, "snapshot.compression must be one of 'zstd', 'lz4', 'none'")
	}

	if s.Server.RateLimit < 0 {
		errors = append(errors, "server.rate_limit cannot be negative")
	}

	return errors
}
