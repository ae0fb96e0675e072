package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicnetworks/nrs/src/config"
	"github.com/mosaicnetworks/nrs/src/nrs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts an editor engine
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the editor engine",
		PreRunE: loadConfig,
		RunE:    runEngine,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runEngine(cmd *cobra.Command, args []string) error {
	engine := nrs.NewEngine(&_config.NRS)

	if err := engine.Init(); err != nil {
		_config.NRS.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	go func() {
		waitForSignal()
		engine.Shutdown()
	}()

	engine.Run()

	return nil
}

func waitForSignal() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	<-signalCh
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

// addCommonFlags adds the flags shared by the run and component commands.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.NRS.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.NRS.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.NRS.LogFile, "Copy log entries to this file")

	// Network
	cmd.Flags().StringP("listen", "l", _config.NRS.BindAddr, "Listen IP:Port for the transport")
	cmd.Flags().StringP("advertise", "a", _config.NRS.AdvertiseAddr, "Advertise IP:Port for the transport")
	cmd.Flags().DurationP("timeout", "t", _config.NRS.TCPTimeout, "TCP Timeout")
	cmd.Flags().Int("max-pool", _config.NRS.MaxPool, "Connection pool size max")
}

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	addCommonFlags(cmd)

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.NRS.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.NRS.NoService, "Disable HTTP service")

	// Scheduler
	cmd.Flags().Duration("poll", _config.NRS.PollInterval, "Time between scheduler passes while jobs are pending")
	cmd.Flags().Duration("slow-poll", _config.NRS.SlowPollInterval, "Time between scheduler passes while idle")
	cmd.Flags().Duration("job-timeout", _config.NRS.JobTimeout, "Abort jobs pending for longer than this (0 disables)")
	cmd.Flags().Bool("auto-link", _config.NRS.AutoLink, "Link compatible sibling variables of created nodes")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// The badger directory used by "component --store" follows --datadir
	// unless "component --db" overrides it
	_config.NRS.SetDataDir(_config.NRS.DataDir)

	logFields := logrus.Fields{
		"nrs.DataDir":          _config.NRS.DataDir,
		"nrs.BindAddr":         _config.NRS.BindAddr,
		"nrs.AdvertiseAddr":    _config.NRS.AdvertiseAddr,
		"nrs.ServiceAddr":      _config.NRS.ServiceAddr,
		"nrs.NoService":        _config.NRS.NoService,
		"nrs.MaxPool":          _config.NRS.MaxPool,
		"nrs.LogLevel":         _config.NRS.LogLevel,
		"nrs.LogFile":          _config.NRS.LogFile,
		"nrs.PollInterval":     _config.NRS.PollInterval,
		"nrs.SlowPollInterval": _config.NRS.SlowPollInterval,
		"nrs.JobTimeout":       _config.NRS.JobTimeout,
		"nrs.TCPTimeout":       _config.NRS.TCPTimeout,
		"nrs.AutoLink":         _config.NRS.AutoLink,
	}

	if _config.NRS.ComponentName != "" {
		logFields["nrs.ComponentName"] = _config.NRS.ComponentName
		logFields["nrs.Store"] = _config.NRS.Store
	}

	if _config.NRS.Store {
		logFields["nrs.DatabaseDir"] = _config.NRS.DatabaseDir
	}

	_config.NRS.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/nrs.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigName) // name of config file (without extension)
	viper.AddConfigPath(_config.NRS.DataDir)      // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.NRS.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.NRS.Logger().Debugf("No config file found in: %s", _config.NRS.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
