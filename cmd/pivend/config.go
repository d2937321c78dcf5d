package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/calvinmclean/pivend/controller"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileName = "pivend"
	configFileType = "yaml"
	configDirName  = "pivend"
)

// flagKeys maps persistent flags to the config keys they override
var flagKeys = map[string]string{
	"port":    controller.KeySerialPort,
	"baud":    controller.KeyBaudRate,
	"timeout": controller.KeyTimeout,
}

// loadConfig reads the config file, environment and flags, in increasing priority. A missing
// config file is not an error unless it was named explicitly
func loadConfig(configFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	controller.SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configDirName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %q: %w", name, err)
			}
		}
	}

	return v, nil
}
