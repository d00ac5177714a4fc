package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/exception"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

const moduleName = "config"

// EnvPrefix prefixes every environment override, e.g. BOXSCORE_SCHEDULER_TIMEOUT.
const EnvPrefix = "BOXSCORE_"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string              `name:"envFilePath" optional:"true"`
	Expander       EnvironmentExpander `optional:"true"`
}

// LoadConfig builds a Config from defaults, the raw YAML and environment overrides, in that order.
func LoadConfig(envFilePath string, raw EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not found or could not be loaded: %v", err)
	}

	if expander == nil {
		expander = NewOsEnvironmentExpander()
	}
	expanded, err := expander.Expand(raw)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to expand environment placeholders", err, false)
	}

	cfg := NewConfig()
	// Decoding onto the defaults leaves every key absent from the file untouched.
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to unmarshal config", err, false)
	}
	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem().Field(0), EnvPrefix); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err, false)
	}
	if err := cfg.Validate(); err != nil {
		return nil, exception.NewBatchError(moduleName, "invalid configuration", err, false)
	}
	return cfg, nil
}

// LoadConfigFile reads path (empty means defaults only) and calls LoadConfig.
func LoadConfigFile(path, envFilePath string) (*Config, error) {
	var raw []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, exception.NewBatchErrorf(moduleName, false, "failed to read config file %s", path, err)
		}
		raw = b
	}
	return LoadConfig(envFilePath, raw, nil)
}

// NewConfigProvider is an fx provider that loads *Config and applies the logging settings.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(params.EnvFilePath, params.EmbeddedConfig, params.Expander)
	if err != nil {
		return nil, err
	}
	ApplyLogging(cfg)
	return cfg, nil
}

// ApplyLogging pushes the logging section into the logger package.
func ApplyLogging(cfg *Config) {
	logger.SetFormat(cfg.Boxscore.System.Logging.Format)
	logger.SetLogLevel(cfg.Boxscore.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.Boxscore.System.Logging.Level)
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStructFromEnv overrides struct fields from environment variables named after
// their yaml tags, upper-cased and joined with "_".
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		switch {
		case field.Kind() == reflect.Struct:
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		case field.Kind() == reflect.Map:
			if err := loadMapFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// loadMapFromEnv handles the two map shapes of the tree:
//   - map[string]time.Duration: BOXSCORE_SCHEDULER_JOBS_UPDATE_SCHEDULES=12h
//   - map[string]interface{} of connection maps: BOXSCORE_DATABASE_DEFAULT_HOST=db
func loadMapFromEnv(mapField reflect.Value, prefix string) error {
	if mapField.Type().Key().Kind() != reflect.String {
		return nil
	}
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(env, prefix), "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		key, value := strings.ToLower(parts[0]), parts[1]
		if mapField.IsNil() {
			mapField.Set(reflect.MakeMap(mapField.Type()))
		}

		switch elem := mapField.Type().Elem(); {
		case elem == durationType:
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("env var '%s%s': %w", prefix, parts[0], err)
			}
			mapField.SetMapIndex(reflect.ValueOf(key), reflect.ValueOf(d))
		case elem.Kind() == reflect.Interface:
			name, attr, ok := strings.Cut(key, "_")
			if !ok {
				continue
			}
			entry := map[string]interface{}{}
			if existing := mapField.MapIndex(reflect.ValueOf(name)); existing.IsValid() {
				if m, isMap := existing.Interface().(map[string]interface{}); isMap {
					entry = m
				}
			}
			entry[attr] = value
			mapField.SetMapIndex(reflect.ValueOf(name), reflect.ValueOf(entry))
		}
	}
	return nil
}

// setField sets a scalar field from its string form.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
