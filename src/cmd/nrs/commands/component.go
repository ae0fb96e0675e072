package commands

import (
	"github.com/mosaicnetworks/nrs/src/component"
	"github.com/mosaicnetworks/nrs/src/net"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//NewComponentCmd returns the command that starts a standalone component host
func NewComponentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "component",
		Short:   "Run a component host",
		PreRunE: loadConfig,
		RunE:    runComponent,
	}
	AddComponentFlags(cmd)
	return cmd
}

func runComponent(cmd *cobra.Command, args []string) error {
	conf := &_config.NRS
	logger := conf.Logger()

	trans, err := net.NewTCPTransport(
		conf.BindAddr,
		conf.AdvertiseAddr,
		conf.MaxPool,
		conf.TCPTimeout,
		logger,
	)
	if err != nil {
		logger.Error("Cannot initialize transport:", err)
		return err
	}

	var store component.Store
	if conf.Store {
		logger.WithField("path", conf.DatabaseDir).Debug("Opening badger store")

		store, err = component.NewBadgerStore(conf.DatabaseDir, logger)
		if err != nil {
			trans.Close()
			logger.Error("Cannot open database:", err)
			return err
		}
	} else {
		store = component.NewInmemStore()
	}

	c := component.NewComponent(conf.ComponentName, trans, store, logger)

	logger.WithFields(logrus.Fields{
		"component": conf.ComponentName,
		"advertise": trans.AdvertiseAddr(),
	}).Info("Serving component")

	c.RunAsync()

	waitForSignal()

	c.Shutdown()

	return nil
}

//AddComponentFlags adds flags to the Component command
func AddComponentFlags(cmd *cobra.Command) {
	addCommonFlags(cmd)

	cmd.Flags().StringP("component", "n", _config.NRS.ComponentName, "Name of the hosted component")
	cmd.Flags().Bool("store", _config.NRS.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.NRS.DatabaseDir, "Database directory")
	_ = cmd.MarkFlagRequired("component")
}
