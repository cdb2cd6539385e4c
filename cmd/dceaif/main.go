package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"dceaif/pkg/aif"
	"dceaif/pkg/config"
	"dceaif/pkg/visualization"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "4D DCE series in NIfTI format (.nii or .nii.gz)")
	outputDir := flag.String("output", "aif_results", "Directory for the AIF plot and diagnostic table")
	configPath := flag.String("config", "dceaif.yaml", "Optional YAML configuration file")
	patientID := flag.String("patient", "", "Patient identifier (default: input filename)")
	repetitionTime := flag.Float64("tr", 0, "Override the frame spacing in seconds (0: use header)")
	clusters := flag.Int("clusters", 0, "Override the configured cluster count (0: use config)")
	saveMaskSlices := flag.Bool("save-mask-slices", false, "Export the final mask's z-slices as PNGs")
	flag.Parse()

	// Validate inputs
	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration, falling back to defaults when the file is absent
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *clusters > 0 {
		cfg.Cluster.Count = *clusters
	}
	if *saveMaskSlices {
		cfg.Output.SaveMaskSlices = true
	}

	fmt.Println("================================")
	fmt.Println("DETERMINISTIC ARTERIAL INPUT FUNCTION SELECTION IN DCE-MRI")
	fmt.Println("Based on the method by Christian Tönnes et al.")
	fmt.Println("================================")

	// Load the input series
	fmt.Printf("Loading series from %s...\n", *inputPath)
	series, err := loadSeries(*inputPath, *patientID, *repetitionTime)
	if err != nil {
		log.Fatalf("Failed to load series: %v", err)
	}
	fmt.Printf("Loaded %d frames of %dx%dx%d voxels (patient %s)\n",
		series.T, series.Z, series.Y, series.X, series.PatientID)

	// Run the extraction pipeline
	pipeline := aif.NewPipeline(aif.ParamsFromConfig(cfg))
	startTime := time.Now()
	result, err := pipeline.Process(series)
	if err != nil {
		log.Fatalf("AIF extraction failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nAIF extraction completed in %.2f seconds\n", processingTime.Seconds())
	fmt.Printf("Dominant arrival timestep: %d\n", result.DominantTimestep)
	fmt.Printf("Best region: %d (cost %.6f)\n", result.Best.Label, result.Best.Cost)
	fmt.Printf("Cost after dilation: %.6f\n", result.CostAfterDilation)
	fmt.Printf("Cost after region growing: %.6f\n", result.CostAfterRegionGrowing)
	fmt.Printf("Final mask: %d voxels\n", result.Mask.Count())

	// Persist the outputs keyed by patient identifier
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	plotPath := filepath.Join(*outputDir, result.PatientID+".png")
	if err := visualization.PlotCurve(plotPath, "Arterial Input Function", result.Timeline, result.Curve); err != nil {
		log.Fatalf("Failed to save AIF plot: %v", err)
	}
	fmt.Printf("AIF plot saved to: %s\n", plotPath)

	tablePath := filepath.Join(*outputDir, result.PatientID+"_diagnostics.csv")
	if err := writeDiagnostics(tablePath, result.Table); err != nil {
		log.Fatalf("Failed to save diagnostic table: %v", err)
	}
	fmt.Printf("Diagnostic table saved to: %s\n", tablePath)

	if cfg.Output.SaveMaskSlices {
		slicesDir := filepath.Join(*outputDir, result.PatientID+"_mask")
		fmt.Printf("Saving mask slices to: %s\n", slicesDir)
		if err := visualization.SaveMaskSlices(result.Mask, slicesDir); err != nil {
			log.Printf("Warning: Failed to save mask slices: %v", err)
		}
	}
}
