package dewalert

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mikesmitty/dewalert/pkg/alertpin"
	"github.com/mikesmitty/dewalert/pkg/cmhsht4x"
	"github.com/mikesmitty/dewalert/pkg/condensation"
	"github.com/mikesmitty/dewalert/pkg/httpapi"
	"github.com/mikesmitty/dewalert/pkg/kafkasink"
	"github.com/mikesmitty/dewalert/pkg/mqtt"
	"github.com/mikesmitty/dewalert/pkg/prefs"
	"github.com/mikesmitty/dewalert/pkg/router"
	"github.com/mikesmitty/dewalert/pkg/stats"
	"github.com/mikesmitty/dewalert/pkg/watchdog"
	"github.com/mikesmitty/sht4x"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func Root() func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		slogOpts := slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if viper.GetBool("debug") {
			slogOpts.Level = slog.LevelDebug
		}
		log := slog.New(slog.NewTextHandler(os.Stderr, &slogOpts))
		slog.SetDefault(log)

		i2cBus := viper.GetString("i2cbus")
		readInterval := viper.GetDuration("read-interval")
		deviceID := viper.GetString("device-id")
		if deviceID == "" {
			hostname, err := os.Hostname()
			errChk(err)
			deviceID = strings.Split(hostname, ".")[0]
		}

		hostState, err := host.Init()
		errChk(err)
		for i := range hostState.Loaded {
			slog.Debug("loaded", "module", hostState.Loaded[i])
		}
		for i := range hostState.Failed {
			slog.Error("failed", "module", hostState.Failed[i])
		}
		for i := range hostState.Skipped {
			slog.Debug("skipped", "module", hostState.Skipped[i])
		}

		ctx, cancelFunc := context.WithCancel(context.Background())
		defer cancelFunc()
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(-1)

		// SHT4x
		ib, err := i2creg.Open(i2cBus)
		errChk(err)
		defer ib.Close()

		dev, err := sht4x.New(ib, nil)
		errChk(err)

		readingCh, reader, readFn := cmhsht4x.ReadingChannel(ctx, deviceID, dev, readInterval)
		slog.Debug("starting sht4x", "device", deviceID, "interval", readInterval)
		g.Go(readFn)
		readingFan := router.NewFan[condensation.Event]("readings", readingCh)
		readingFan.SetDebug(viper.GetBool("debug"))

		// Preferences
		control := make(chan condensation.Event, 4)
		control <- condensation.DeviceAdded{ID: deviceID}
		store := prefs.NewStore(func(old, current *float64) {
			select {
			case control <- condensation.PreferenceChanged{ID: deviceID, Old: old, New: current}:
			case <-ctx.Done():
			}
		})
		errChk(store.Load())

		// MQTT
		mqttUrl, err := url.Parse(viper.GetString("mqtt-broker"))
		errChk(err)
		mc := mqtt.NewClient(mqttUrl, viper.GetInt("mqtt-sample-interval"))
		trend := stats.NewTrend(viper.GetInt("trend-window"))
		g.Go(mc.GetPublisher(deviceID, readingFan.Subscribe("mqtt"), store, trend))
		errChk(mc.Connect())
		errChk(mc.HomeAssistant())
		g.Go(mc.PreferenceFn(deviceID, store))

		publishers := condensation.Publishers{mc}

		// Kafka
		if brokers := viper.GetStringSlice("kafka-brokers"); len(brokers) > 0 {
			sink := kafkasink.New(brokers, viper.GetString("kafka-topic"))
			defer sink.Close()
			publishers = append(publishers, sink)
			slog.Info("publishing to kafka", "brokers", brokers, "topic", viper.GetString("kafka-topic"))
		}

		// Alert output pin
		if pinName := viper.GetString("alert-pin"); pinName != "" {
			pin, err := alertpin.New(pinName)
			errChk(err)
			defer pin.Halt()
			publishers = append(publishers, pin)
		}

		// Condensation monitor
		registry := condensation.NewRegistry(store, publishers, reader)
		registryCh := readingFan.Subscribe("registry")
		g.Go(func() error { return registry.Run(ctx, registryCh, control) })

		// Watchdog
		watchdogTimeout := viper.GetDuration("watchdog-timeout")
		g.Go(watchdog.NewWatchdog(ctx, watchdogTimeout,
			func() {
				mc.SetAvailable(false)
				trend.Reset()
				reader.RequestRead(deviceID)
			},
			func() { mc.SetAvailable(true) },
			readingFan.Subscribe("watchdog"),
		))

		g.Go(func() error { return readingFan.Run(ctx) })

		// Status API
		if addr := viper.GetString("http-listen"); addr != "" {
			g.Go(httpapi.Server(ctx, addr, httpapi.NewRouter(registry)))
		}

		// Signal handling
		chanSignal := make(chan os.Signal, 1)
		signal.Notify(chanSignal, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)

		g.Go(func() error {
			defer cancelFunc()
			select {
			case <-ctx.Done():
			case <-chanSignal:
			}
			slog.Info("shutting down...")
			return nil
		})

		slog.Debug("waiting for goroutines to finish")
		err = g.Wait()
		registry.Handle(condensation.DeviceRemoved{ID: deviceID})
		mc.Disconnect()
		errChk(err)
	}
}

func errChk(err error) {
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
