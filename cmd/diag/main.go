package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/geomag/geofield/internal/field"
	"github.com/geomag/geofield/internal/model"
)

func main() {
	modelPath := flag.String("model", "", "coefficient file to load")
	date := flag.String("date", "", "evaluation date YYYY-MM-DD (default today)")
	lat := flag.Float64("lat", 45.76415653, "geodetic latitude in degrees")
	lon := flag.Float64("lon", 2.95536402, "longitude in degrees")
	alt := flag.Float64("alt", 1090, "altitude above the ellipsoid in meters")
	flag.Parse()

	if *modelPath == "" {
		fmt.Println("ERROR: -model is required")
		flag.Usage()
		os.Exit(1)
	}

	when := time.Now().UTC()
	if *date != "" {
		t, err := time.Parse("2006-01-02", *date)
		if err != nil {
			fmt.Println("ERROR parsing -date:", err)
			os.Exit(1)
		}
		when = t
	}

	snap, err := model.Load(*modelPath, when.Day(), int(when.Month()), when.Year())
	if err != nil {
		fmt.Println("ERROR loading model:", err)
		os.Exit(1)
	}

	minKm, maxKm := snap.AltitudeRangeKm()
	fmt.Printf("Loaded %s\n", *modelPath)
	fmt.Printf("  order: %d\n", snap.Order())
	fmt.Printf("  altitude range: %.0f m to %.0f m\n", minKm*1e3, maxKm*1e3)
	fmt.Printf("  date: %s\n", when.Format("2006-01-02"))

	var scratch field.Scratch
	f, err := field.Evaluate(snap, *lat, *lon, *alt, &scratch)
	if err != nil {
		fmt.Println("ERROR evaluating field:", err)
		os.Exit(1)
	}

	mag := math.Sqrt(f.East*f.East + f.North*f.North + f.Up*f.Up)
	fmt.Printf("\nField at lat=%.6f° lon=%.6f° alt=%.1f m:\n", *lat, *lon, *alt)
	fmt.Printf("  east:  %12.2f nT\n", f.East*1e9)
	fmt.Printf("  north: %12.2f nT\n", f.North*1e9)
	fmt.Printf("  up:    %12.2f nT\n", f.Up*1e9)
	fmt.Printf("  total: %12.2f nT\n", mag*1e9)
}
