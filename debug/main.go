package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/elcodo/burdy"
	"github.com/elcodo/burdy/internal/config"
	"github.com/elcodo/burdy/internal/jobs"
)

func main() {
	cnf := config.LoadConfig()

	engine, err := burdy.FromConfig(cnf)
	if err != nil {
		logrus.Fatal(err)
	}
	defer engine.Close()

	if err := engine.Store.Migrate(); err != nil {
		logrus.Fatal(err)
	}

	runner := jobs.NewRunner(jobs.NewVersionCleaner(engine.Store))
	runner.Start()
	defer runner.Stop()

	logrus.Info("engine running, version cleaner scheduled")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}
