package commands

import (
	"io"
	"os"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/bakernet/harness/src/config"
)

func loadConfig(cmd *cobra.Command, args []string) error {

	// cmd.Flags() includes flags from this command and all persistent flags
	// from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for a config file called bakernet.toml (.json, .yaml also work)
	// in the working directory
	viper.SetConfigName("bakernet")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in working directory")
	} else {
		return err
	}

	// second unmarshal to read from the config file
	return viper.Unmarshal(_config)
}

// newLogger builds the harness's own logger. When emitFiles is set, info and
// debug output is also written to bakernet_info.log and bakernet_debug.log.
// When discard is set, nothing goes to stderr, which keeps the tabbed log
// viewer intact.
func newLogger(emitFiles, discard bool) *logrus.Logger {
	logger := logrus.New()
	logger.Level = config.LogLevel(_config.LogLevel)
	logger.Formatter = new(prefixed.TextFormatter)

	if discard {
		logger.Out = io.Discard
	}

	if !emitFiles {
		return logger
	}

	pathMap := lfshook.PathMap{}

	for level, name := range map[logrus.Level]string{
		logrus.InfoLevel:  "bakernet_info.log",
		logrus.DebugLevel: "bakernet_debug.log",
	} {
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			logger.Infof("Failed to open %s, using default stderr", name)
			continue
		}
		f.Close()
		pathMap[level] = name
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))

	return logger
}
