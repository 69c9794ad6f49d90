package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/zhouyaoji/astromosaic/internal/mosaic"
	"github.com/zhouyaoji/astromosaic/internal/preview"
	"github.com/zhouyaoji/astromosaic/internal/quality"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("astromosaic %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	var (
		outPath     = flag.String("o", "mosaic.fits", "output FITS file")
		previewPath = flag.String("preview", "", "also write a preview image (.png or .tiff)")
		falseColor  = flag.Bool("false-color", false, "render the preview with a color ramp")
		maxDim      = flag.Int("max-dim", 2048, "longest preview edge in pixels (0 = full size)")
		paramsPath  = flag.String("params", "", "YAML file with field quality parameters")
		report      = flag.Bool("quality", false, "print a field quality report as JSON")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "astromosaic - mosaic FITS images aligned by their WCS")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Usage: astromosaic [options] file1.fits file2.fits ...")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "The first file is the reference frame; the mosaic inherits")
		fmt.Fprintln(os.Stderr, "its metadata and coordinate system.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// keep stdout clean for the quality report
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	img, err := mosaic.FromFiles(flag.Args())
	if err != nil {
		log.Fatalf("mosaic failed: %v", err)
	}
	if err := img.SaveAs(*outPath); err != nil {
		log.Fatalf("writing %s: %v", *outPath, err)
	}
	wd, ht := img.Size()
	log.Printf("wrote %s (%dx%d)", *outPath, wd, ht)

	if *previewPath != "" {
		opts := preview.Options{MaxDim: *maxDim, FalseColor: *falseColor}
		if err := preview.Write(*previewPath, img.Data().Raw(), wd, ht, opts); err != nil {
			log.Fatalf("writing preview: %v", err)
		}
		log.Printf("wrote %s", *previewPath)
	}

	if *report {
		p := quality.DefaultParams()
		if *paramsPath != "" {
			if p, err = quality.LoadParams(*paramsPath); err != nil {
				log.Fatalf("loading params: %v", err)
			}
		}
		rep, err := img.FieldQuality(0, 0, wd, ht, p)
		if err != nil {
			log.Fatalf("field quality: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Fatalf("encoding report: %v", err)
		}
	}
}
