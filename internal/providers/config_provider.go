package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"gerritwatch/internal/structures"
)

const AppName = "GerritWatch"

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataDir", "./data")
	v.SetDefault("monitor.logFilename", "snapshot-log")
	v.SetDefault("monitor.dataFileExt", ".json")
	v.SetDefault("monitor.recordCount", 100)
	v.SetDefault("monitor.interval", 30*time.Minute)
	v.SetDefault("gerrit.urlPrefix", "/changes/?q=status:")
	v.SetDefault("gerrit.urlSuffix", "&o=DETAILED_LABELS&o=DETAILED_ACCOUNTS")
	v.SetDefault("gerrit.timeout", 30*time.Second)
	v.SetDefault("delta.mode", structures.DeltaModeUrgent)
	v.SetDefault("delta.excludedReviewer", "CI Bot")
	v.SetDefault("notify.audit.allFile", "delta-all.tsv")
	v.SetDefault("notify.audit.changesFile", "delta-changes.tsv")
	v.SetDefault("webServer.enabled", true)
	v.SetDefault("webServer.host", "127.0.0.1")
	v.SetDefault("webServer.port", 8090)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("cache.size", 8)
}

// NewConfigProvider loads the YAML file named by flags.ConfigPath, applies
// defaults and environment overrides, and validates the result. An empty
// path runs on defaults and environment alone.
func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	setDefaults(v)

	_ = v.BindEnv("logger.level", "GW_LOG_LEVEL")
	_ = v.BindEnv("dataDir", "GW_DATA_DIR")
	_ = v.BindEnv("delta.mode", "GW_DELTA_MODE")
	_ = v.BindEnv("monitor.interval", "GW_INTERVAL")
	_ = v.BindEnv("notify.webhook.url", "GW_WEBHOOK_URL")

	if flags.ConfigPath != "" {
		filename := filepath.Base(flags.ConfigPath)
		v.AddConfigPath(filepath.Dir(flags.ConfigPath))
		v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	conf.AppName = AppName
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	cnfValidator := NewCnfValidator(&conf)
	if err := cnfValidator.Validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}
