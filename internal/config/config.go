package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/go-postproc/internal/align"
	"github.com/example/go-postproc/internal/codec"
	"github.com/example/go-postproc/internal/corpus"
	"github.com/example/go-postproc/internal/text"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel   string           `mapstructure:"log_level"`
	Codec      CodecConfig      `mapstructure:"codec"`
	Preprocess PreprocessConfig `mapstructure:"preprocess"`
	Corpus     CorpusConfig     `mapstructure:"corpus"`
	Server     ServerConfig     `mapstructure:"server"`
}

type CodecConfig struct {
	MatchScore         int    `mapstructure:"match_score"`
	MismatchPenalty    int    `mapstructure:"mismatch_penalty"`
	GapPenalty         int    `mapstructure:"gap_penalty"`
	Delimiter          string `mapstructure:"delimiter"`
	WhitespaceSentinel string `mapstructure:"whitespace_sentinel"`
	InternalWhitespace string `mapstructure:"internal_whitespace"`
}

type PreprocessConfig struct {
	Mode      string `mapstructure:"mode"`
	ModelPath string `mapstructure:"model_path"`
	Lowercase bool   `mapstructure:"lowercase"`
}

type CorpusConfig struct {
	MaxLineBytes     int `mapstructure:"max_line_bytes"`
	MaxDocumentChars int `mapstructure:"max_document_chars"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
	RequestTimeout  int    `mapstructure:"request_timeout"`  // seconds
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
	Workers         int    `mapstructure:"workers"` // 0 = unbounded
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	params := codec.DefaultParams()

	return Config{
		LogLevel: "info",
		Codec: CodecConfig{
			MatchScore:         params.Scoring.Match,
			MismatchPenalty:    params.Scoring.Mismatch,
			GapPenalty:         params.Scoring.Gap,
			Delimiter:          string(params.Delimiter),
			WhitespaceSentinel: params.WhitespaceSentinel,
			InternalWhitespace: string(params.InternalWhitespace),
		},
		Preprocess: PreprocessConfig{
			Mode:      text.ModeRules,
			ModelPath: "models/tokenizer.model",
			Lowercase: true,
		},
		Corpus: CorpusConfig{
			MaxLineBytes:     corpus.DefaultMaxLineBytes,
			MaxDocumentChars: 0,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 30,
			RequestTimeout:  60,
			MaxBodyBytes:    1 << 20,
			Workers:         0,
		},
	}
}

// binding ties a config key to the flag that sets it.
type binding struct {
	key  string
	flag string
}

var bindings = []binding{
	{"log_level", "log-level"},
	{"codec.match_score", "codec-match-score"},
	{"codec.mismatch_penalty", "codec-mismatch-penalty"},
	{"codec.gap_penalty", "codec-gap-penalty"},
	{"codec.delimiter", "codec-delimiter"},
	{"codec.whitespace_sentinel", "codec-whitespace-sentinel"},
	{"codec.internal_whitespace", "codec-internal-whitespace"},
	{"preprocess.mode", "preprocess-mode"},
	{"preprocess.model_path", "preprocess-model-path"},
	{"preprocess.lowercase", "preprocess-lowercase"},
	{"corpus.max_line_bytes", "corpus-max-line-bytes"},
	{"corpus.max_document_chars", "corpus-max-document-chars"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.shutdown_timeout", "server-shutdown-timeout"},
	{"server.request_timeout", "server-request-timeout"},
	{"server.max_body_bytes", "server-max-body-bytes"},
	{"server.workers", "workers"},
}

// aliases are shorthand flags; when set they win over the long form.
var aliases = []binding{
	{"preprocess.model_path", "sp-model"},
	{"preprocess.mode", "mode"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
	fs.Int("codec-match-score", defaults.Codec.MatchScore, "Alignment score for similar characters")
	fs.Int("codec-mismatch-penalty", defaults.Codec.MismatchPenalty, "Alignment score for dissimilar characters")
	fs.Int("codec-gap-penalty", defaults.Codec.GapPenalty, "Alignment score for a gap")
	fs.String("codec-delimiter", defaults.Codec.Delimiter, "Separator between operation name and payload in wire labels")
	fs.String("codec-whitespace-sentinel", defaults.Codec.WhitespaceSentinel, "Displayed text of a token separator")
	fs.String("codec-internal-whitespace", defaults.Codec.InternalWhitespace, "Character joining processed sub-tokens")
	fs.String("preprocess-mode", defaults.Preprocess.Mode, "Preprocessor: rules|sentencepiece")
	fs.String("mode", defaults.Preprocess.Mode, "Preprocessor (alias for --preprocess-mode)")
	fs.String("preprocess-model-path", defaults.Preprocess.ModelPath, "Path to SentencePiece model")
	fs.String("sp-model", defaults.Preprocess.ModelPath, "Path to SentencePiece model (alias for --preprocess-model-path)")
	fs.Bool("preprocess-lowercase", defaults.Preprocess.Lowercase, "Lower-case processed tokens")
	fs.Int("corpus-max-line-bytes", defaults.Corpus.MaxLineBytes, "Longest accepted corpus line in bytes")
	fs.Int("corpus-max-document-chars", defaults.Corpus.MaxDocumentChars, "Split longer lines at sentence boundaries (0 disables)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int64("server-max-body-bytes", defaults.Server.MaxBodyBytes, "Maximum request body size in bytes")
	fs.Int("workers", defaults.Server.Workers, "Max requests processed concurrently (0 = unbounded)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("POSTPROC")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("preprocess.model_path", "POSTPROC_PREPROCESS_MODEL_PATH", "POSTPROC_SP_MODEL"); err != nil {
		return Config{}, fmt.Errorf("bind model env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("postproc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, b := range bindings {
		f := fs.Lookup(b.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", b.flag, err)
		}
	}
	for _, a := range aliases {
		if f := fs.Lookup(a.flag); f != nil && f.Changed {
			v.Set(a.key, f.Value.String())
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("codec.match_score", c.Codec.MatchScore)
	v.SetDefault("codec.mismatch_penalty", c.Codec.MismatchPenalty)
	v.SetDefault("codec.gap_penalty", c.Codec.GapPenalty)
	v.SetDefault("codec.delimiter", c.Codec.Delimiter)
	v.SetDefault("codec.whitespace_sentinel", c.Codec.WhitespaceSentinel)
	v.SetDefault("codec.internal_whitespace", c.Codec.InternalWhitespace)
	v.SetDefault("preprocess.mode", c.Preprocess.Mode)
	v.SetDefault("preprocess.model_path", c.Preprocess.ModelPath)
	v.SetDefault("preprocess.lowercase", c.Preprocess.Lowercase)
	v.SetDefault("corpus.max_line_bytes", c.Corpus.MaxLineBytes)
	v.SetDefault("corpus.max_document_chars", c.Corpus.MaxDocumentChars)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.max_body_bytes", c.Server.MaxBodyBytes)
	v.SetDefault("server.workers", c.Server.Workers)
}

// CodecParams converts the codec section into validated codec parameters.
func (c Config) CodecParams() (codec.Params, error) {
	delim, err := singleRune("codec.delimiter", c.Codec.Delimiter)
	if err != nil {
		return codec.Params{}, err
	}
	ws, err := singleRune("codec.internal_whitespace", c.Codec.InternalWhitespace)
	if err != nil {
		return codec.Params{}, err
	}

	p := codec.Params{
		Scoring: align.Scoring{
			Match:    c.Codec.MatchScore,
			Mismatch: c.Codec.MismatchPenalty,
			Gap:      c.Codec.GapPenalty,
		},
		Delimiter:          delim,
		WhitespaceSentinel: c.Codec.WhitespaceSentinel,
		InternalWhitespace: ws,
	}
	if err := p.Validate(); err != nil {
		return codec.Params{}, err
	}
	return p, nil
}

// Options converts the preprocess section into preprocessor options.
func (p PreprocessConfig) Options() (text.Options, error) {
	mode, err := NormalizeMode(p.Mode)
	if err != nil {
		return text.Options{}, err
	}
	return text.Options{Mode: mode, ModelPath: p.ModelPath, Lowercase: p.Lowercase}, nil
}

// ReaderOptions converts the corpus section into corpus reader options.
func (c CorpusConfig) ReaderOptions() corpus.Options {
	return corpus.Options{MaxLineBytes: c.MaxLineBytes, MaxDocumentChars: c.MaxDocumentChars}
}

func singleRune(key, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%s must be exactly one character, got %q", key, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
