package main

//go-build: CGO_ENABLED=0

import (
	"errors"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/framework"
	"github.com/robotalks/envdash/pkg/station"
)

func init() {
	station.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	s, err := station.NewConfig().NewStation()
	if err != nil {
		glog.Exitf("station: %v", err)
	}
	defer s.Close()

	err = framework.NewRunner().HandleSignals().Go(s).Wait()
	if err != nil && !errors.Is(err, station.ErrHalted) {
		glog.Errorf("station: %v", err)
		s.Close()
		glog.Flush()
		os.Exit(1)
	}
}
