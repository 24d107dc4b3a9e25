package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ride-sim/internal/config"
	"ride-sim/internal/mylogger"
	ridesim "ride-sim/internal/ride-sim"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <serve|headless> [flags]\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	mylog := mylogger.New(os.Getenv("LOG_LEVEL"))
	cfg := config.New(mylog)

	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	port := serveCmd.String("port", cfg.Srv.SimServicePort, "HTTP port")
	router := serveCmd.String("router", cfg.Router.Kind, "router kind: osrm or straight")

	headlessCmd := flag.NewFlagSet("headless", flag.ExitOnError)
	lat := headlessCmd.Float64("lat", cfg.Device.Latitude, "device latitude")
	lon := headlessCmd.Float64("lon", cfg.Device.Longitude, "device longitude")
	permission := headlessCmd.String("permission", cfg.Device.Permission, "location permission the device grants")
	autoRestart := headlessCmd.Bool("auto-restart", cfg.Device.AutoRestart, "start a new ride after every arrival")
	headlessRouter := headlessCmd.String("router", cfg.Router.Kind, "router kind: osrm or straight")

	var err error
	switch os.Args[1] {
	case "serve":
		_ = serveCmd.Parse(os.Args[2:])
		cfg.Srv.SimServicePort = *port
		cfg.Router.Kind = *router
		mylog.Action("ride_sim_started").Info("ride-sim service starting", "port", *port)
		err = ridesim.Execute(context.Background(), mylog, cfg)
	case "headless":
		_ = headlessCmd.Parse(os.Args[2:])
		cfg.Device.Latitude = *lat
		cfg.Device.Longitude = *lon
		cfg.Device.Permission = *permission
		cfg.Device.AutoRestart = *autoRestart
		cfg.Router.Kind = *headlessRouter
		mylog.Action("ride_sim_started").Info("ride-sim headless run starting")
		err = ridesim.RunHeadless(context.Background(), mylog, cfg)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		mylog.Action("ride_sim_failed").Error("ride-sim exited with error", err)
		os.Exit(1)
	}
}
