/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mikesmitty/dewalert/pkg/condensation"
	"github.com/mikesmitty/dewalert/pkg/dewalert"
	"github.com/mikesmitty/dewalert/pkg/prefs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dewalert",
	Short: "Condensation alerts from an SHT4x temperature and humidity sensor",
	Long: `dewalert reads temperature and relative humidity from an SHT4x sensor,
estimates the dew point and raises a condensation alert when the air
temperature approaches it. Readings, the dew point and the alert are
published to Home Assistant over MQTT.`,
	Run: dewalert.Root(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dewalert.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("i2cbus", "", "name of the i2c bus")
	rootCmd.PersistentFlags().String("device-id", "", "name of the monitored device (default is the hostname)")
	rootCmd.PersistentFlags().Duration("read-interval", 30*time.Second, "Sensor polling interval")
	rootCmd.PersistentFlags().String("mqtt-broker", "", "mqtt broker url")
	rootCmd.PersistentFlags().Int("mqtt-sample-interval", 1, "Publish one in every n temperature/humidity readings")
	rootCmd.PersistentFlags().Float64(prefs.KeyRHThreshold, condensation.DefaultRHThreshold, "Humidity drop (%) that forces a dewpoint recalculation")
	rootCmd.PersistentFlags().Float64(prefs.KeyTemperatureOffset, 0, "Temperature calibration offset (C)")
	rootCmd.PersistentFlags().Float64(prefs.KeyHumidityOffset, 0, "Humidity calibration offset (%)")
	rootCmd.PersistentFlags().Duration("watchdog-timeout", 5*time.Minute, "Mark the sensor unavailable after this long without readings")
	rootCmd.PersistentFlags().String("http-listen", "", "address for the status API, e.g. :8080 (disabled if empty)")
	rootCmd.PersistentFlags().StringSlice("kafka-brokers", nil, "kafka brokers for dewpoint/alert events (disabled if empty)")
	rootCmd.PersistentFlags().String("kafka-topic", "dewalert.events", "kafka topic for dewpoint/alert events")
	rootCmd.PersistentFlags().String("alert-pin", "", "GPIO pin driven high while the condensation alert is on")
	rootCmd.PersistentFlags().Int("trend-window", 20, "Temperature readings used for the trend sensor")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".dewalert" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".dewalert")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
