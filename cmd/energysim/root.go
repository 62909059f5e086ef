package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"energy_simulator/internal/config"
	"energy_simulator/internal/util"
)

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"log":       "log.level",
	"addr":      "http.addr",
	"interval":  "interval",
	"latitude":  "location.latitude",
	"longitude": "location.longitude",
	"seed":      "seed",
}

type app struct {
	cfgFile string
	viper   *viper.Viper
	cfg     config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "energysim",
		Short:        "Household energy grid simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd.Flags())
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default energysim.yaml)")
	root.PersistentFlags().StringP("log", "l", "", "log level (fatal, error, warn, info, debug, trace)")
	root.PersistentFlags().Float64("latitude", 0, "latitude of the household")
	root.PersistentFlags().Float64("longitude", 0, "longitude of the household")

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newSunCommand(a))

	return root
}

func (a *app) loadConfig(flags *pflag.FlagSet) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	util.LogLevel(cfg.Log.Level, cfg.Log.Levels)
	if file := v.ConfigFileUsed(); file != "" {
		util.NewLogger("main").INFO.Printf("using config file %s", file)
	}

	a.viper, a.cfg = v, cfg
	return nil
}
