package main

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/amp-labs/amp-valuemap/compare"
	"github.com/amp-labs/amp-valuemap/hashing"
	"github.com/amp-labs/amp-valuemap/logger"
	"github.com/amp-labs/amp-valuemap/maps"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configF    = "config"
	inputF     = "input"
	putF       = "put"
	removeF    = "remove"
	tieBreakF  = "tie-break"
	logLevelF  = "log-level"
	logJSONF   = "log-json"
	envPrefix  = "VALUEMAP"
	subsystemN = "valuemap"

	defaultTieBreak = "key"

	configFlagUsage = "YAML file holding any of the flags below, keyed by flag name."
	inputUsage      = "YAML mapping of keys to integer values. The built-in sample is used when unset."
	putUsage        = "key=value pairs stored after loading, in order. Repeatable."
	removeUsage     = "Keys removed after the puts. Repeatable."
	tieBreakUsage   = `Order between keys with equal values:
	key = plain key order
	natural = human key order (item2 before item10)
	hash = xxh3 digest of the key
	insertion = order of appearance in the input`
	logLevelUsage = "Minimum log level: debug, info, warn or error."
	logJSONUsage  = "Log as JSON instead of text."
)

var (
	ErrInvalidAssignment = errors.New("invalid key=value assignment")
	ErrUnknownTieBreak   = errors.New("unknown tie-break")
	ErrInvalidInput      = errors.New("invalid input document")
)

// Config is the resolved configuration of one run.
type Config struct {
	Input    string   `mapstructure:"input"`
	Put      []string `mapstructure:"put"`
	Remove   []string `mapstructure:"remove"`
	TieBreak string   `mapstructure:"tie-break"`
	LogLevel string   `mapstructure:"log-level"`
	LogJSON  bool     `mapstructure:"log-json"`
}

// sampleEntries is the demonstration input used when no file is given.
var sampleEntries = []maps.KeyValuePair[string, int]{ //nolint:gochecknoglobals
	{Key: "hello", Value: 2},
	{Key: "world", Value: 1},
	{Key: "obama", Value: 1},
	{Key: "cricket", Value: 1},
	{Key: "prez", Value: 3},
}

func NewCmd() *cobra.Command {
	var cfgFile string

	valuemapCmd := &cobra.Command{
		Use:          "valuemap [flags]",
		Short:        "Print key/value pairs in ascending order of value.",
		SilenceUsage: true,
	}

	valuemapCmd.Flags().StringVar(&cfgFile, configF, "", configFlagUsage)
	valuemapCmd.Flags().String(inputF, "", inputUsage)
	valuemapCmd.Flags().StringSlice(putF, nil, putUsage)
	valuemapCmd.Flags().StringSlice(removeF, nil, removeUsage)
	valuemapCmd.Flags().String(tieBreakF, defaultTieBreak, tieBreakUsage)
	valuemapCmd.Flags().String(logLevelF, "info", logLevelUsage)
	valuemapCmd.Flags().Bool(logJSONF, false, logJSONUsage)

	valuemapCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		v := viper.New()
		if cfgFile != "" {
			v.SetConfigType("yaml")
			v.SetConfigFile(cfgFile)

			if err := v.ReadInConfig(); err != nil {
				return err
			}
		}

		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()

		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		cfg := new(Config)
		if err := v.Unmarshal(cfg); err != nil {
			return err
		}

		return run(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	return valuemapCmd
}

func run(cfg *Config, out, logOut io.Writer) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	log := logger.ConfigureLoggingWithOptions(logger.Options{
		Subsystem: subsystemN,
		JSON:      cfg.LogJSON,
		MinLevel:  level,
		Output:    logOut,
	})

	order, err := tieBreak(cfg.TieBreak)
	if err != nil {
		return err
	}

	entries := sampleEntries
	if cfg.Input != "" {
		if entries, err = loadEntries(cfg.Input); err != nil {
			return err
		}
	}

	log.Debug("loaded entries", slog.Int("count", len(entries)), slog.String("input", cfg.Input))

	m := maps.NewValueOrderedMapOf(seqOf(entries), maps.WithTieBreak(order), maps.WithLogger[string](log))

	for _, assignment := range cfg.Put {
		key, value, err := parseAssignment(assignment)
		if err != nil {
			return err
		}

		if previous, replaced := m.Put(key, value); replaced {
			log.Debug("replaced value", slog.String("key", key), slog.Int("previous", previous), slog.Int("value", value))
		}
	}

	for _, key := range cfg.Remove {
		if _, removed := m.Remove(key); !removed {
			log.Warn("key to remove is not present", slog.String("key", key))
		}
	}

	if err := m.Validate(); err != nil {
		return err
	}

	log.Info("ordered entries", slog.Int("entries", m.Size()), slog.String("tie_break", cfg.TieBreak))

	render(out, m)

	return nil
}

func tieBreak(name string) (compare.Order[string], error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", defaultTieBreak:
		return compare.Natural[string](), nil
	case "natural":
		return compare.NaturalStrings(), nil
	case "hash":
		byHash := compare.ByHash[hashing.HashableString](hashing.Xxh3)

		return func(a, b string) int {
			return byHash(hashing.HashableString(a), hashing.HashableString(b))
		}, nil
	case "insertion":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTieBreak, name)
	}
}

// loadEntries reads a YAML mapping, keeping the order the keys appear in the document.
func loadEntries(path string) ([]maps.KeyValuePair[string, int], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if len(doc.Content) == 0 {
		return nil, nil
	}

	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s is not a mapping", ErrInvalidInput, path)
	}

	entries := make([]maps.KeyValuePair[string, int], 0, len(mapping.Content)/2)

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valueNode := mapping.Content[i], mapping.Content[i+1]

		var value int
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: line %d: value of %q: %w", ErrInvalidInput, valueNode.Line, keyNode.Value, err)
		}

		entries = append(entries, maps.KeyValuePair[string, int]{Key: keyNode.Value, Value: value})
	}

	return entries, nil
}

func parseAssignment(assignment string) (string, int, error) {
	key, raw, ok := strings.Cut(assignment, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidAssignment, assignment)
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q: %w", ErrInvalidAssignment, assignment, err)
	}

	return strings.TrimSpace(key), value, nil
}

func seqOf(entries []maps.KeyValuePair[string, int]) iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		for _, entry := range entries {
			if !yield(entry.Key, entry.Value) {
				return
			}
		}
	}
}

func render(out io.Writer, m *maps.ValueOrderedMap[string, int]) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Rank", "Key", "Value"})
	table.SetAutoFormatHeaders(false)

	rank := 0

	for key, value := range m.Seq() {
		table.Append([]string{strconv.Itoa(rank), key, strconv.Itoa(value)})
		rank++
	}

	table.Render()
}
